// Package gemini implements the model provider on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"time"

	provider "github.com/Jeff-67/TonyStock/internal/provider/models"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client    GeminiClient
	modelName string
	timeout   time.Duration
}

// New creates a new GeminiProvider with the specified client and model.
// timeout bounds a single Generate call.
func New(client GeminiClient, modelName string, timeout time.Duration) *GeminiProvider {
	return &GeminiProvider{
		client:    client,
		modelName: modelName,
		timeout:   timeout,
	}
}

// Generate sends a request to the Gemini API and returns the response.
func (p *GeminiProvider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	contents := toGeminiContents(req.History)
	config := toGeminiConfig(req)

	start := time.Now()
	resp, err := p.client.GenerateContent(callCtx, p.modelName, contents, config)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &provider.ProviderError{
				Code:       provider.ErrorCodeTimeout,
				Message:    "model call timed out",
				Underlying: err,
				Retryable:  true,
			}
		}
		return nil, mapGeminiError(err)
	}

	out, err := fromGeminiResponse(resp, p.modelName)
	if err != nil {
		return nil, err
	}
	out.Metadata.LatencyMs = time.Since(start).Milliseconds()
	return out, nil
}

// GetModel returns the currently active model name.
func (p *GeminiProvider) GetModel() string {
	return p.modelName
}

// ListModels returns the available model names.
func (p *GeminiProvider) ListModels(ctx context.Context) ([]string, error) {
	names, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, mapGeminiError(err)
	}
	return names, nil
}
