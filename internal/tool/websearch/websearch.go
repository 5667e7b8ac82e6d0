// Package websearch implements the search_engine tool on top of the
// DuckDuckGo HTML endpoint, which needs no API key.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Jeff-67/TonyStock/internal/config"
	"github.com/Jeff-67/TonyStock/internal/tool"
	"github.com/PuerkitoBio/goquery"
)

const defaultBaseURL = "https://html.duckduckgo.com/html/"

// Bots with default Go user agents get blocked outright.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// httpDoer is the minimal HTTP client interface needed for searching.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// newsSite describes one financial news site searched directly when the
// general web search comes back empty.
type newsSite struct {
	domain          string
	searchURL       string // fmt template taking the escaped query
	resultSelector  string
	linkSelector    string
	snippetSelector string
}

var financialSites = []newsSite{
	{
		domain:          "money.udn.com",
		searchURL:       "https://money.udn.com/search/result/1001/%s",
		resultSelector:  "div.story-list__news",
		linkSelector:    "a.story-list__text",
		snippetSelector: "p.story-list__text",
	},
	{
		domain:          "news.cnyes.com",
		searchURL:       "https://news.cnyes.com/search?query=%s",
		resultSelector:  "div.jsx-2605922312",
		linkSelector:    "a.jsx-2605922312",
		snippetSelector: "div.summary",
	},
	{
		domain:          "www.moneydj.com",
		searchURL:       "https://www.moneydj.com/KMDJ/Search/list.aspx?_Query_=%s",
		resultSelector:  "div.r-list",
		linkSelector:    "a.r-title",
		snippetSelector: "div.r-desc",
	},
}

// SearchTool searches the web and returns titles, URLs, and snippets.
type SearchTool struct {
	client  httpDoer
	baseURL string
	sites   []newsSite
	cfg     config.ToolsConfig
}

// NewSearchTool creates a SearchTool. baseURL overrides the search endpoint;
// empty means the public DuckDuckGo HTML endpoint.
func NewSearchTool(client httpDoer, baseURL string, cfg config.ToolsConfig) *SearchTool {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &SearchTool{client: client, baseURL: baseURL, sites: financialSites, cfg: cfg}
}

// searchRequest represents the parameters for one search invocation.
type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func (r *searchRequest) validate(cfg config.ToolsConfig) error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query is required", tool.ErrInvalidArguments)
	}
	if r.MaxResults <= 0 {
		r.MaxResults = cfg.DefaultSearchResults
	}
	if r.MaxResults > cfg.MaxSearchResults {
		r.MaxResults = cfg.MaxSearchResults
	}
	return nil
}

// searchResult is a single hit.
type searchResult struct {
	Title   string
	URL     string
	Snippet string
}

func (t *SearchTool) Name() string { return "search_engine" }

func (t *SearchTool) Declaration() tool.Declaration {
	return tool.Declaration{
		Name:        t.Name(),
		Description: "Search the web. Returns result titles, URLs, and snippets. Follow up with web_scraper to read a promising page in full.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"query": {
					Type:        tool.TypeString,
					Description: "Search query. Include company names, ticker symbols, or years to narrow results.",
				},
				"max_results": {
					Type:        tool.TypeInteger,
					Description: "Maximum number of results to return.",
				},
			},
			Required: []string{"query"},
		},
	}
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	var req searchRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return "", err
	}
	if err := req.validate(t.cfg); err != nil {
		return "", err
	}

	results, err := t.search(ctx, req.Query, req.MaxResults)
	if err != nil || len(results) == 0 {
		// The general search producing nothing, by failure or by empty
		// result, falls through to the direct site searches.
		if fromSites := t.searchSites(ctx, req.Query, req.MaxResults); len(fromSites) > 0 {
			return formatResults(fromSites), nil
		}
		if err != nil {
			return "", err
		}
	}
	return formatResults(results), nil
}

func (t *SearchTool) search(ctx context.Context, query string, maxResults int) ([]searchResult, error) {
	endpoint := t.baseURL + "?q=" + url.QueryEscape(query)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing search results: %w", err)
	}

	var results []searchResult
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a")
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		results = append(results, searchResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     resolveRedirect(href),
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
		return len(results) < maxResults
	})

	return results, nil
}

// searchSites queries the financial news sites directly. One unreachable
// site must not sink the others, so per-site errors are skipped.
func (t *SearchTool) searchSites(ctx context.Context, query string, maxResults int) []searchResult {
	var results []searchResult
	for _, site := range t.sites {
		if len(results) >= maxResults {
			break
		}
		hits, err := t.searchSite(ctx, site, query)
		if err != nil {
			continue
		}
		for _, h := range hits {
			if len(results) >= maxResults {
				break
			}
			results = append(results, h)
		}
	}
	return results
}

func (t *SearchTool) searchSite(ctx context.Context, site newsSite, query string) ([]searchResult, error) {
	endpoint := fmt.Sprintf(site.searchURL, url.QueryEscape(query))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", site.domain, err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept-Language", "zh-TW,zh;q=0.9,en;q=0.8")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", site.domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", site.domain, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s results: %w", site.domain, err)
	}

	var hits []searchResult
	doc.Find(site.resultSelector).Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find(site.linkSelector).First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		hits = append(hits, searchResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     absoluteURL(site.domain, href),
			Snippet: strings.TrimSpace(sel.Find(site.snippetSelector).First().Text()),
		})
	})
	return hits, nil
}

// absoluteURL resolves a site-relative link against the site's host.
func absoluteURL(domain, href string) string {
	parsed, err := url.Parse(href)
	if err != nil || parsed.IsAbs() {
		return href
	}
	base := &url.URL{Scheme: "https", Host: domain}
	return base.ResolveReference(parsed).String()
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the
// destination URL.
func resolveRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
		return parsed.String()
	}
	return href
}

func formatResults(results []searchResult) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
