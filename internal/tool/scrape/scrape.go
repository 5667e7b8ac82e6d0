// Package scrape implements the web_scraper tool: fetch pages and reduce
// them to readable text the model can digest.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/Jeff-67/TonyStock/internal/config"
	"github.com/Jeff-67/TonyStock/internal/tool"
	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// httpDoer is the minimal HTTP client interface needed for fetching pages.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ScrapeTool fetches one or more URLs and extracts their text content.
type ScrapeTool struct {
	client httpDoer
	cfg    config.ToolsConfig
}

// NewScrapeTool creates a ScrapeTool.
func NewScrapeTool(client httpDoer, cfg config.ToolsConfig) *ScrapeTool {
	return &ScrapeTool{client: client, cfg: cfg}
}

type scrapeRequest struct {
	URLs []string `json:"urls"`
}

func (r *scrapeRequest) validate(cfg config.ToolsConfig) error {
	if len(r.URLs) == 0 {
		return fmt.Errorf("%w: urls is required", tool.ErrInvalidArguments)
	}
	if len(r.URLs) > cfg.MaxScrapeURLs {
		return fmt.Errorf("%w: at most %d urls per call, got %d", tool.ErrInvalidArguments, cfg.MaxScrapeURLs, len(r.URLs))
	}
	for _, u := range r.URLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("%w: unsupported url %q", tool.ErrInvalidArguments, u)
		}
	}
	return nil
}

func (t *ScrapeTool) Name() string { return "web_scraper" }

func (t *ScrapeTool) Declaration() tool.Declaration {
	return tool.Declaration{
		Name:        t.Name(),
		Description: "Fetch web pages and return their readable text content. Use after search_engine to read articles, filings, or news in full.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"urls": {
					Type:        tool.TypeArray,
					Description: "Absolute http(s) URLs to fetch.",
					Items:       &tool.Schema{Type: tool.TypeString},
				},
			},
			Required: []string{"urls"},
		},
	}
}

func (t *ScrapeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	var req scrapeRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return "", err
	}
	if err := req.validate(t.cfg); err != nil {
		return "", err
	}

	// Pages are independent; fetch them concurrently but report in the
	// order they were requested.
	sections := make([]string, len(req.URLs))
	var wg sync.WaitGroup
	for i, pageURL := range req.URLs {
		wg.Add(1)
		go func(i int, pageURL string) {
			defer wg.Done()
			text, err := t.fetchPage(ctx, pageURL)
			if err != nil {
				sections[i] = fmt.Sprintf("## %s\n\nFailed to fetch: %v", pageURL, err)
				return
			}
			sections[i] = fmt.Sprintf("## %s\n\n%s", pageURL, text)
		}(i, pageURL)
	}
	wg.Wait()

	return strings.Join(sections, "\n\n"), nil
}

func (t *ScrapeTool) fetchPage(ctx context.Context, pageURL string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, t.cfg.MaxScrapeBytes)
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}

	return extractText(doc), nil
}

// extractText reduces a page to its readable content: boilerplate elements
// are dropped, block elements become lines, runs of whitespace collapse.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, header, footer, iframe, svg, form").Remove()

	root := doc.Find("main, article").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var lines []string
	if title := strings.TrimSpace(doc.Find("title").Text()); title != "" {
		lines = append(lines, "# "+title)
	}

	root.Find("h1, h2, h3, h4, p, li, td, th, pre, blockquote").Each(func(_ int, sel *goquery.Selection) {
		// Skip elements whose text is fully covered by a nested match.
		if sel.Find("p, li").Length() > 0 {
			return
		}
		text := collapseWhitespace(sel.Text())
		if text != "" {
			lines = append(lines, text)
		}
	})

	if len(lines) <= 1 {
		// Pages without meaningful block structure fall back to raw text.
		if text := collapseWhitespace(root.Text()); text != "" {
			lines = append(lines, text)
		}
	}

	return strings.Join(lines, "\n")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
