// Package main runs a local terminal chat with the assistant, without LINE.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Jeff-67/TonyStock/internal/app"
	"github.com/Jeff-67/TonyStock/internal/chatui"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	// Logs would smear the TUI; keep them out of the terminal.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := app.LoadConfig(logger)

	assistant, provider, err := app.BuildAssistant(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	program := tea.NewProgram(chatui.New(assistant, provider, nil), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
