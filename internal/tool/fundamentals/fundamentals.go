// Package fundamentals implements the financial_statements tool on Yahoo
// Finance's quoteSummary endpoint: income statement, balance sheet, and cash
// flow history for a ticker.
package fundamentals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/Jeff-67/TonyStock/internal/tool"
	"github.com/Jeff-67/TonyStock/internal/tool/stockid"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// httpDoer is the minimal HTTP client interface needed for statement fetching.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// statementSpec names the quoteSummary modules for one statement type and
// the key the module wraps its period list under. The list key matches the
// annual module name only for income; balance and cashflow use their own.
type statementSpec struct {
	annualModule    string
	quarterlyModule string
	listKey         string
}

var statementSpecs = map[string]statementSpec{
	"income":   {"incomeStatementHistory", "incomeStatementHistoryQuarterly", "incomeStatementHistory"},
	"balance":  {"balanceSheetHistory", "balanceSheetHistoryQuarterly", "balanceSheetStatements"},
	"cashflow": {"cashflowStatementHistory", "cashflowStatementHistoryQuarterly", "cashflowStatements"},
}

// FinancialStatementsTool fetches reported financial statements.
type FinancialStatementsTool struct {
	client  httpDoer
	baseURL string
}

// NewFinancialStatementsTool creates the tool. baseURL overrides the
// endpoint; empty means the public Yahoo Finance API.
func NewFinancialStatementsTool(client httpDoer, baseURL string) *FinancialStatementsTool {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &FinancialStatementsTool{client: client, baseURL: baseURL}
}

type statementsRequest struct {
	Symbol    string `json:"symbol"`
	Statement string `json:"statement"`
	Quarterly bool   `json:"quarterly"`
}

func (r *statementsRequest) validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", tool.ErrInvalidArguments)
	}
	if r.Statement == "" {
		r.Statement = "income"
	}
	if _, ok := statementSpecs[r.Statement]; !ok {
		return fmt.Errorf("%w: statement must be income, balance, or cashflow; got %q", tool.ErrInvalidArguments, r.Statement)
	}
	return nil
}

func (t *FinancialStatementsTool) Name() string { return "financial_statements" }

func (t *FinancialStatementsTool) Declaration() tool.Declaration {
	return tool.Declaration{
		Name:        t.Name(),
		Description: "Get reported financial statements for a stock: income statement, balance sheet, or cash flow, annual or quarterly. Accepts ticker symbols or Taiwanese company names.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"symbol": {
					Type:        tool.TypeString,
					Description: "Ticker symbol or company name.",
				},
				"statement": {
					Type:        tool.TypeString,
					Description: "Which statement to fetch.",
					Enum:        []string{"income", "balance", "cashflow"},
				},
				"quarterly": {
					Type:        tool.TypeBoolean,
					Description: "Quarterly periods instead of annual.",
				},
			},
			Required: []string{"symbol"},
		},
	}
}

func (t *FinancialStatementsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	var req statementsRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return "", err
	}
	if err := req.validate(); err != nil {
		return "", err
	}

	spec := statementSpecs[req.Statement]
	module := spec.annualModule
	if req.Quarterly {
		module = spec.quarterlyModule
	}

	symbol := stockid.Resolve(req.Symbol)
	periods, err := t.fetchStatements(ctx, symbol, module, spec.listKey)
	if err != nil {
		return "", err
	}
	return formatStatements(symbol, req.Statement, periods), nil
}

// quoteSummaryResponse holds the parts of the payload we consume. Line items
// come back as {"raw": n, "fmt": "..."} objects under period maps whose keys
// vary by statement, so they stay untyped until rendering.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (t *FinancialStatementsTool) fetchStatements(ctx context.Context, symbol, module, listKey string) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		t.baseURL, url.PathEscape(symbol), module)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building statements request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching statements for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("statements endpoint returned status %d", resp.StatusCode)
	}

	var data quoteSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding statements response: %w", err)
	}
	if data.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("statements endpoint error: %s (%s)",
			data.QuoteSummary.Error.Description, data.QuoteSummary.Error.Code)
	}
	if len(data.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no financial statements for symbol %q", symbol)
	}

	raw, ok := data.QuoteSummary.Result[0][module]
	if !ok {
		return nil, fmt.Errorf("no financial statements for symbol %q", symbol)
	}

	var wrapper map[string][]map[string]any
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decoding %s module: %w", module, err)
	}
	periods := wrapper[listKey]
	if len(periods) == 0 {
		return nil, fmt.Errorf("no financial statements for symbol %q", symbol)
	}
	return periods, nil
}

func formatStatements(symbol, statement string, periods []map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s statement, %d periods (most recent first)\n", symbol, statement, len(periods))

	for _, period := range periods {
		fmt.Fprintf(&b, "\n[%s]\n", lineItemText(period["endDate"]))

		keys := make([]string, 0, len(period))
		for key := range period {
			if key == "endDate" || key == "maxAge" {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			value := lineItemText(period[key])
			if value == "" {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", key, value)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// lineItemText renders a {"raw": n, "fmt": "..."} line item, preferring the
// human-formatted string.
func lineItemText(item any) string {
	obj, ok := item.(map[string]any)
	if !ok {
		return ""
	}
	if longFmt, ok := obj["longFmt"].(string); ok {
		return longFmt
	}
	if fmtted, ok := obj["fmt"].(string); ok {
		return fmtted
	}
	if raw, ok := obj["raw"].(float64); ok {
		return fmt.Sprintf("%.0f", raw)
	}
	return ""
}
