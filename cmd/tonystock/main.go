// Package main runs the TonyStock bot server: the LINE webhook and the JSON
// chat API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jeff-67/TonyStock/internal/app"
	"github.com/Jeff-67/TonyStock/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.LoadConfig(logger)

	assistant, provider, err := app.BuildAssistant(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	srv := server.New(assistant, nil, cfg.Server, logger)
	secret := os.Getenv("LINE_CHANNEL_SECRET")
	token := os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")
	if secret != "" && token != "" {
		line, err := server.NewLINEClient(secret, token)
		if err != nil {
			logger.Error("failed to create LINE client", "error", err)
			os.Exit(1)
		}
		srv = server.New(assistant, line, cfg.Server, logger)
	} else {
		logger.Warn("LINE credentials not set, webhook disabled")
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.Server.Addr, "model", provider.GetModel())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
