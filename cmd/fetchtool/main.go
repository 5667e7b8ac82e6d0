// Package main runs one registered tool directly with JSON arguments,
// bypassing the model. Useful for checking what a tool feeds the LLM:
//
//	fetchtool market_data '{"symbol": "文曄", "days": 30}'
//	fetchtool search_engine '{"query": "TSMC Q1 earnings"}'
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Jeff-67/TonyStock/internal/app"
	"github.com/Jeff-67/TonyStock/internal/tool"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := app.LoadConfig(logger)

	registry, err := app.BuildRegistry(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <tool> [json-args]\nTools: %s\n",
			os.Args[0], strings.Join(registry.Names(), ", "))
		os.Exit(2)
	}

	args := map[string]any{}
	if len(os.Args) > 2 {
		if err := json.Unmarshal([]byte(os.Args[2]), &args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid JSON arguments: %v\n", err)
			os.Exit(2)
		}
	}

	t, err := registry.Resolve(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\nTools: %s\n", err, strings.Join(registry.Names(), ", "))
		os.Exit(2)
	}

	executor := tool.NewExecutor(time.Duration(cfg.Tools.ExecTimeoutSeconds)*time.Second, logger)
	result := executor.Execute(context.Background(), t, args)

	fmt.Printf("status: %s\n\n%s\n", result.Status, result.LLMContent())
	if result.Status == tool.StatusFailed {
		os.Exit(1)
	}
}
