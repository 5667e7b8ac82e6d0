// Package pdfread implements the read_pdf tool: fetch a PDF (annual
// reports, filings, broker notes) from a URL or local path and extract
// its text.
package pdfread

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/Jeff-67/TonyStock/internal/config"
	"github.com/Jeff-67/TonyStock/internal/tool"
	"github.com/ledongthuc/pdf"
)

// httpDoer is the minimal HTTP client interface needed for downloading.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// extractFunc turns raw PDF bytes into text. Swappable in tests.
type extractFunc func(r io.ReaderAt, size int64, maxPages int) (string, error)

// ReadPDFTool downloads a PDF and returns its plain text.
type ReadPDFTool struct {
	client  httpDoer
	cfg     config.ToolsConfig
	extract extractFunc
}

// NewReadPDFTool creates a ReadPDFTool.
func NewReadPDFTool(client httpDoer, cfg config.ToolsConfig) *ReadPDFTool {
	return &ReadPDFTool{client: client, cfg: cfg, extract: extractText}
}

type readPDFRequest struct {
	Source   string `json:"source"`
	MaxPages int    `json:"max_pages"`
}

func (r *readPDFRequest) validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return fmt.Errorf("%w: source is required", tool.ErrInvalidArguments)
	}
	if r.MaxPages < 0 {
		return fmt.Errorf("%w: max_pages cannot be negative", tool.ErrInvalidArguments)
	}
	return nil
}

func (r *readPDFRequest) remote() bool {
	return strings.HasPrefix(r.Source, "http://") || strings.HasPrefix(r.Source, "https://")
}

func (t *ReadPDFTool) Name() string { return "read_pdf" }

func (t *ReadPDFTool) Declaration() tool.Declaration {
	return tool.Declaration{
		Name:        t.Name(),
		Description: "Read a PDF document and extract its text. Useful for annual reports, investor presentations, and regulatory filings.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"source": {
					Type:        tool.TypeString,
					Description: "Absolute http(s) URL or local file path of the PDF.",
				},
				"max_pages": {
					Type:        tool.TypeInteger,
					Description: "Extract at most this many pages from the start. 0 means all pages.",
				},
			},
			Required: []string{"source"},
		},
	}
}

func (t *ReadPDFTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	var req readPDFRequest
	if err := tool.DecodeArgs(args, &req); err != nil {
		return "", err
	}
	if err := req.validate(); err != nil {
		return "", err
	}

	var data []byte
	var err error
	if req.remote() {
		data, err = t.download(ctx, req.Source)
	} else {
		data, err = t.readLocal(req.Source)
	}
	if err != nil {
		return "", err
	}

	text, err := t.extract(bytes.NewReader(data), int64(len(data)), req.MaxPages)
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", req.Source, err)
	}
	return text, nil
}

func (t *ReadPDFTool) readLocal(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > t.cfg.MaxPDFSize {
		return nil, fmt.Errorf("pdf exceeds the %d byte size limit", t.cfg.MaxPDFSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func (t *ReadPDFTool) download(ctx context.Context, pdfURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", pdfURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	// Read one byte past the cap to tell "exactly at the limit" from "too big".
	data, err := io.ReadAll(io.LimitReader(resp.Body, t.cfg.MaxPDFSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pdfURL, err)
	}
	if int64(len(data)) > t.cfg.MaxPDFSize {
		return nil, fmt.Errorf("pdf exceeds the %d byte size limit", t.cfg.MaxPDFSize)
	}
	return data, nil
}

func extractText(r io.ReaderAt, size int64, maxPages int) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}

	pages := reader.NumPage()
	if maxPages > 0 && maxPages < pages {
		pages = maxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not lose the rest.
			fmt.Fprintf(&b, "[page %d: unreadable]\n", i)
			continue
		}
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
