package models

import "context"

// Provider defines the interface for LLM backends.
type Provider interface {
	// Generate sends a request to the model and returns the response.
	// Failures are reported as *ProviderError so callers can distinguish
	// retryable conditions.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// GetModel returns the currently active model name.
	GetModel() string

	// ListModels returns the available model names.
	ListModels(ctx context.Context) ([]string, error)
}
