// Package marketdata implements the market_data tool on Yahoo Finance's
// chart endpoint: daily OHLCV history for a ticker symbol.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Jeff-67/TonyStock/internal/config"
	"github.com/Jeff-67/TonyStock/internal/tool"
	"github.com/Jeff-67/TonyStock/internal/tool/stockid"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// httpDoer is the minimal HTTP client interface needed for quote fetching.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MarketDataTool fetches daily price history for a stock.
type MarketDataTool struct {
	client  httpDoer
	baseURL string
	cfg     config.ToolsConfig
}

// NewMarketDataTool creates a MarketDataTool. baseURL overrides the quote
// endpoint; empty means the public Yahoo Finance API.
func NewMarketDataTool(client httpDoer, baseURL string, cfg config.ToolsConfig) *MarketDataTool {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &MarketDataTool{client: client, baseURL: baseURL, cfg: cfg}
}

type marketRequest struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Days     int    `json:"days"`
}

var validIntervals = map[string]bool{"1d": true, "1wk": true, "1mo": true}

func (r *marketRequest) validate(cfg config.ToolsConfig) error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", tool.ErrInvalidArguments)
	}
	if r.Interval == "" {
		r.Interval = "1d"
	}
	if !validIntervals[r.Interval] {
		return fmt.Errorf("%w: interval must be 1d, 1wk, or 1mo", tool.ErrInvalidArguments)
	}
	if r.Days <= 0 {
		r.Days = cfg.DefaultMarketDays
	}
	if r.Days > cfg.MaxMarketDays {
		r.Days = cfg.MaxMarketDays
	}
	return nil
}

// chartResponse mirrors the fields we consume from the Yahoo chart payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (t *MarketDataTool) Name() string { return "market_data" }

func (t *MarketDataTool) Declaration() tool.Declaration {
	return tool.Declaration{
		Name:        t.Name(),
		Description: "Get daily price history for a stock: latest close, period high/low, and recent daily bars. Accepts ticker symbols (AAPL, 2330.TW) or Taiwanese company names (台積電, 文曄).",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"symbol": {
					Type:        tool.TypeString,
					Description: "Ticker symbol or company name.",
				},
				"interval": {
					Type:        tool.TypeString,
					Description: "Bar interval.",
					Enum:        []string{"1d", "1wk", "1mo"},
				},
				"days": {
					Type:        tool.TypeInteger,
					Description: "How many calendar days of history to cover.",
				},
			},
			Required: []string{"symbol"},
		},
	}
}

func (t *MarketDataTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	var req marketRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return "", err
	}
	if err := req.validate(t.cfg); err != nil {
		return "", err
	}

	symbol := stockid.Resolve(req.Symbol)
	data, err := t.fetchChart(ctx, symbol, req.Interval, req.Days)
	if err != nil {
		return "", err
	}
	return formatChart(symbol, data), nil
}

func (t *MarketDataTool) fetchChart(ctx context.Context, symbol, interval string, days int) (*chartResponse, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		t.baseURL, url.PathEscape(symbol), interval, rangeForDays(days))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building chart request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching chart for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no market data for symbol %q", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart endpoint returned status %d", resp.StatusCode)
	}

	var data chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding chart response: %w", err)
	}
	if data.Chart.Error != nil {
		return nil, fmt.Errorf("chart endpoint error: %s (%s)", data.Chart.Error.Description, data.Chart.Error.Code)
	}
	if len(data.Chart.Result) == 0 {
		return nil, fmt.Errorf("no market data for symbol %q", symbol)
	}
	return &data, nil
}

// rangeForDays maps a day count to the closest range the chart endpoint
// accepts.
func rangeForDays(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 31:
		return "1mo"
	case days <= 93:
		return "3mo"
	case days <= 186:
		return "6mo"
	case days <= 366:
		return "1y"
	case days <= 731:
		return "2y"
	case days <= 1827:
		return "5y"
	default:
		return "10y"
	}
}

// recentBars bounds how many daily rows are echoed back to the model; the
// summary line carries the rest of the period.
const recentBars = 10

func formatChart(symbol string, data *chartResponse) string {
	result := data.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return ""
	}
	quote := result.Indicators.Quote[0]

	// A truncated payload may carry fewer quote values than timestamps.
	bars := len(result.Timestamp)
	for _, series := range [][]float64{quote.Open, quote.High, quote.Low, quote.Close} {
		if len(series) < bars {
			bars = len(series)
		}
	}
	if len(quote.Volume) < bars {
		bars = len(quote.Volume)
	}
	if bars == 0 {
		return ""
	}

	periodHigh, periodLow := quote.Close[0], quote.Close[0]
	for _, c := range quote.Close[:bars] {
		if c > periodHigh {
			periodHigh = c
		}
		if c != 0 && c < periodLow {
			periodLow = c
		}
	}

	var b strings.Builder
	last := bars - 1
	fmt.Fprintf(&b, "%s (%s): latest close %.2f, period high %.2f, period low %.2f, %d bars\n",
		symbol, result.Meta.Currency, quote.Close[last], periodHigh, periodLow, bars)

	b.WriteString("date        open     high     low      close    volume\n")
	start := bars - recentBars
	if start < 0 {
		start = 0
	}
	for i := start; i <= last; i++ {
		ts := result.Timestamp[i]
		fmt.Fprintf(&b, "%s  %-8.2f %-8.2f %-8.2f %-8.2f %d\n",
			formatDate(ts), quote.Open[i], quote.High[i], quote.Low[i], quote.Close[i], quote.Volume[i])
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}
