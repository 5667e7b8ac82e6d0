package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
// Secrets (API keys, LINE channel credentials) are read from the environment by
// the entry points and never appear here.
type Config struct {
	Agent    AgentConfig    `json:"agent"`
	Provider ProviderConfig `json:"provider"`
	Tools    ToolsConfig    `json:"tools"`
	Server   ServerConfig   `json:"server"`
	Session  SessionConfig  `json:"session"`
}

type AgentConfig struct {
	// MaxIterations bounds model round-trips per conversation turn.
	MaxIterations int `json:"max_iterations"` // Default: 8

	// ModelRetries bounds retries of a retryable provider failure within one round.
	ModelRetries int `json:"model_retries"` // Default: 2

	// VerifyRetry grants one extra round when verification flags a suspicious
	// tool result. Still bounded by MaxIterations.
	VerifyRetry bool `json:"verify_retry"` // Default: false
}

type ProviderConfig struct {
	// ModelName is the Gemini model used for generation.
	ModelName string `json:"model_name"` // Default: "gemini-2.0-flash"

	// RequestTimeoutSeconds bounds a single model call.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"` // Default: 120
}

type ToolsConfig struct {
	// ExecTimeoutSeconds bounds a single tool execution.
	ExecTimeoutSeconds int `json:"exec_timeout_seconds"` // Default: 60

	// Search
	DefaultSearchResults int `json:"default_search_results"` // Default: 5
	MaxSearchResults     int `json:"max_search_results"`     // Default: 10

	// Scrape
	MaxScrapeURLs  int   `json:"max_scrape_urls"`  // Default: 5
	MaxScrapeBytes int64 `json:"max_scrape_bytes"` // Default: 2MB per page

	// Market data
	DefaultMarketDays int `json:"default_market_days"` // Default: 365
	MaxMarketDays     int `json:"max_market_days"`     // Default: 3650

	// PDF
	MaxPDFSize int64 `json:"max_pdf_size"` // Default: 50MB
}

type ServerConfig struct {
	// Addr is the listen address of the HTTP server.
	Addr string `json:"addr"` // Default: ":8888"

	// ReplyChunkSize splits long replies for the LINE message size limit.
	ReplyChunkSize int `json:"reply_chunk_size"` // Default: 4999
}

type SessionConfig struct {
	// Backend selects the session store: "memory" or "sqlite".
	Backend string `json:"backend"` // Default: "memory"

	// SQLitePath is the database file used when Backend is "sqlite".
	SQLitePath string `json:"sqlite_path"` // Default: "tonystock.db"

	// MaxTurns caps how much history is rehydrated per session.
	MaxTurns int `json:"max_turns"` // Default: 40
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			MaxIterations: 8,
			ModelRetries:  2,
			VerifyRetry:   false,
		},
		Provider: ProviderConfig{
			ModelName:             "gemini-2.0-flash",
			RequestTimeoutSeconds: 120,
		},
		Tools: ToolsConfig{
			ExecTimeoutSeconds:   60,
			DefaultSearchResults: 5,
			MaxSearchResults:     10,
			MaxScrapeURLs:        5,
			MaxScrapeBytes:       2 * 1024 * 1024,
			DefaultMarketDays:    365,
			MaxMarketDays:        3650,
			MaxPDFSize:           50 * 1024 * 1024,
		},
		Server: ServerConfig{
			Addr:           ":8888",
			ReplyChunkSize: 4999,
		},
		Session: SessionConfig{
			Backend:    "memory",
			SQLitePath: "tonystock.db",
			MaxTurns:   40,
		},
	}
}
