// Package app wires the assistant from configuration: provider, tools,
// sessions, loop. The entry points differ only in what they put in front of
// it (HTTP server, terminal UI, or a single tool invocation).
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Jeff-67/TonyStock/internal/agent"
	"github.com/Jeff-67/TonyStock/internal/config"
	"github.com/Jeff-67/TonyStock/internal/prompt"
	"github.com/Jeff-67/TonyStock/internal/provider/gemini"
	"github.com/Jeff-67/TonyStock/internal/session"
	"github.com/Jeff-67/TonyStock/internal/tool"
	"github.com/Jeff-67/TonyStock/internal/tool/clock"
	"github.com/Jeff-67/TonyStock/internal/tool/fundamentals"
	"github.com/Jeff-67/TonyStock/internal/tool/marketdata"
	"github.com/Jeff-67/TonyStock/internal/tool/pdfread"
	"github.com/Jeff-67/TonyStock/internal/tool/scrape"
	"github.com/Jeff-67/TonyStock/internal/tool/websearch"
	"google.golang.org/genai"
)

// BuildRegistry assembles the tool registry the model can call.
func BuildRegistry(cfg *config.Config) (*tool.Registry, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.Tools.ExecTimeoutSeconds) * time.Second}

	return tool.NewRegistry(
		websearch.NewSearchTool(httpClient, "", cfg.Tools),
		scrape.NewScrapeTool(httpClient, cfg.Tools),
		marketdata.NewMarketDataTool(httpClient, "", cfg.Tools),
		fundamentals.NewFinancialStatementsTool(httpClient, ""),
		pdfread.NewReadPDFTool(httpClient, cfg.Tools),
		clock.NewCurrentTimeTool(nil),
	)
}

// BuildProvider creates the Gemini provider from the environment. It fails
// without a GEMINI_API_KEY.
func BuildProvider(ctx context.Context, cfg *config.Config) (*gemini.GeminiProvider, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	client := gemini.NewRealGeminiClient(genaiClient)
	timeout := time.Duration(cfg.Provider.RequestTimeoutSeconds) * time.Second
	return gemini.New(client, cfg.Provider.ModelName, timeout), nil
}

// BuildSessions creates the configured session store.
func BuildSessions(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "sqlite":
		return session.OpenSQLite(cfg.Session.SQLitePath, cfg.Session.MaxTurns)
	case "memory", "":
		return session.NewMemoryStore(cfg.Session.MaxTurns), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// BuildAssistant wires the full assistant: registry, executor, provider,
// loop, sessions. The provider is returned alongside so entry points can
// surface model information.
func BuildAssistant(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*agent.Assistant, *gemini.GeminiProvider, error) {
	registry, err := BuildRegistry(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("building tool registry: %w", err)
	}

	provider, err := BuildProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	sessions, err := BuildSessions(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("building session store: %w", err)
	}

	executor := tool.NewExecutor(time.Duration(cfg.Tools.ExecTimeoutSeconds)*time.Second, logger)
	loop := agent.NewLoop(provider, registry, executor, prompt.System(provider.GetModel()), cfg.Agent, logger)
	return agent.NewAssistant(loop, sessions, logger), provider, nil
}

// LoadConfig loads the user configuration, falling back to defaults when the
// dotfile is broken.
func LoadConfig(logger *slog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using defaults", "error", err)
		return config.DefaultConfig()
	}
	return cfg
}
