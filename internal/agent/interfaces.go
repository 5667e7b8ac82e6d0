package agent

import (
	"context"

	provider "github.com/Jeff-67/TonyStock/internal/provider/models"
	"github.com/Jeff-67/TonyStock/internal/tool"
)

// llmProvider communicates with an LLM.
type llmProvider interface {
	// Generate sends the conversation to the model and returns its response.
	Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error)
}

// toolRunner executes one resolved tool with model-supplied arguments.
// Implementations convert every failure mode into a tool.Result.
type toolRunner interface {
	Execute(ctx context.Context, t tool.Tool, args map[string]any) tool.Result
}
