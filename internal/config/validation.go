package config

import (
	"fmt"
	"strings"
)

// Validate checks config values for correctness.
// Returns an error listing every invalid value.
func (c *Config) Validate() error {
	var errs []string

	// Agent
	if c.Agent.MaxIterations < 1 {
		errs = append(errs, "agent.max_iterations must be >= 1")
	}
	if c.Agent.ModelRetries < 0 {
		errs = append(errs, "agent.model_retries must be >= 0")
	}

	// Provider
	if c.Provider.ModelName == "" {
		errs = append(errs, "provider.model_name must not be empty")
	}
	if c.Provider.RequestTimeoutSeconds < 1 {
		errs = append(errs, "provider.request_timeout_seconds must be >= 1")
	}

	// Tools
	if c.Tools.ExecTimeoutSeconds < 1 {
		errs = append(errs, "tools.exec_timeout_seconds must be >= 1")
	}
	if c.Tools.DefaultSearchResults < 1 {
		errs = append(errs, "tools.default_search_results must be >= 1")
	}
	if c.Tools.MaxSearchResults < 1 {
		errs = append(errs, "tools.max_search_results must be >= 1")
	}
	if c.Tools.DefaultSearchResults > c.Tools.MaxSearchResults {
		errs = append(errs, "tools.default_search_results must be <= tools.max_search_results")
	}
	if c.Tools.MaxScrapeURLs < 1 {
		errs = append(errs, "tools.max_scrape_urls must be >= 1")
	}
	if c.Tools.MaxScrapeBytes < 1 {
		errs = append(errs, "tools.max_scrape_bytes must be >= 1")
	}
	if c.Tools.DefaultMarketDays < 1 {
		errs = append(errs, "tools.default_market_days must be >= 1")
	}
	if c.Tools.MaxMarketDays < 1 {
		errs = append(errs, "tools.max_market_days must be >= 1")
	}
	if c.Tools.DefaultMarketDays > c.Tools.MaxMarketDays {
		errs = append(errs, "tools.default_market_days must be <= tools.max_market_days")
	}
	if c.Tools.MaxPDFSize < 1 {
		errs = append(errs, "tools.max_pdf_size must be >= 1")
	}

	// Server
	if c.Server.Addr == "" {
		errs = append(errs, "server.addr must not be empty")
	}
	if c.Server.ReplyChunkSize < 1 {
		errs = append(errs, "server.reply_chunk_size must be >= 1")
	}

	// Session
	switch c.Session.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("session.backend must be \"memory\" or \"sqlite\", got %q", c.Session.Backend))
	}
	if c.Session.Backend == "sqlite" && c.Session.SQLitePath == "" {
		errs = append(errs, "session.sqlite_path must not be empty when session.backend is \"sqlite\"")
	}
	if c.Session.MaxTurns < 1 {
		errs = append(errs, "session.max_turns must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
