package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Jeff-67/TonyStock/internal/agent/models"
	"github.com/Jeff-67/TonyStock/internal/config"
	provider "github.com/Jeff-67/TonyStock/internal/provider/models"
	"github.com/Jeff-67/TonyStock/internal/tool"
)

// State identifies where the loop is in its lifecycle. Exposed mainly for
// logging; DONE and FAILED are terminal.
type State string

const (
	StateAwaitingModel  State = "awaiting_model"
	StateExecutingTools State = "executing_tools"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Loop drives one conversation: it submits the history to the model,
// executes any requested tools, appends the results, and resubmits until the
// model produces a final answer or a bound trips. A Loop is stateless across
// runs and safe to share between conversations; each Run owns its
// Conversation exclusively.
type Loop struct {
	provider     llmProvider
	registry     *tool.Registry
	runner       toolRunner
	systemPrompt string
	cfg          config.AgentConfig
	logger       *slog.Logger
}

// NewLoop wires a Loop from its collaborators.
func NewLoop(p llmProvider, registry *tool.Registry, runner toolRunner, systemPrompt string, cfg config.AgentConfig, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		provider:     p,
		registry:     registry,
		runner:       runner,
		systemPrompt: systemPrompt,
		cfg:          cfg,
		logger:       logger,
	}
}

// Run executes the orchestration loop on conv, which must already end with
// the user's turn. It returns the model's final answer, or a *LoopError
// carrying the terminal FailureReason.
//
// Each iteration is one model round-trip. The loop performs at most
// cfg.MaxIterations round-trips; requesting tools on the last permitted
// round-trip still executes them, but the run then fails with
// IterationLimitExceeded rather than continuing silently.
func (l *Loop) Run(ctx context.Context, conv *Conversation) (string, error) {
	verifyRetryUsed := false

	for round := 0; round < l.cfg.MaxIterations; round++ {
		if err := ctx.Err(); err != nil {
			return "", &LoopError{Reason: ReasonCancelled, Err: err}
		}

		l.logger.Debug("loop state", "state", StateAwaitingModel, "round", round, "turns", conv.Len())
		resp, err := l.generateWithRetry(ctx, conv)
		if err != nil {
			l.logger.Error("model call failed", "state", StateFailed, "round", round, "error", err)
			return "", err
		}

		switch resp.Content.Type {
		case provider.ResponseTypeText:
			text := strings.TrimSpace(resp.Content.Text)
			if text == "" {
				return "", &LoopError{Reason: ReasonMalformedModelResponse, Err: fmt.Errorf("model returned an empty answer")}
			}
			conv.Append(models.Turn{Role: models.RoleAssistant, Content: resp.Content.Text})
			l.logger.Info("final answer", "state", StateDone, "rounds", round+1, "tokens", resp.Metadata.TotalTokens)
			return text, nil

		case provider.ResponseTypeToolCall:
			requests := resp.Content.ToolRequests
			if len(requests) == 0 {
				return "", &LoopError{Reason: ReasonMalformedModelResponse, Err: fmt.Errorf("tool call response without tool requests")}
			}

			l.logger.Debug("loop state", "state", StateExecutingTools, "round", round, "requests", len(requests))
			results := l.executeRound(ctx, requests)

			// A cancelled round is never half-appended: either the assistant
			// turn and every result turn land together, or none do.
			if err := ctx.Err(); err != nil {
				return "", &LoopError{Reason: ReasonCancelled, Err: err}
			}

			report := Verify(requests, results)
			if !report.Clean() {
				l.logger.Warn("tool verification flagged round", "round", round, "report", report.String())
			}

			turns := make([]models.Turn, 0, 1+len(requests))
			turns = append(turns, models.Turn{
				Role:         models.RoleAssistant,
				Content:      resp.Content.Text,
				ToolRequests: requests,
			})
			for i, req := range requests {
				turns = append(turns, models.ToolResultTurn(req, results[i]))
			}
			if l.cfg.VerifyRetry && report.Suspicious() && !verifyRetryUsed {
				verifyRetryUsed = true
				turns = append(turns, models.Turn{
					Role:    models.RoleUser,
					Content: "Note: a tool reported success but returned no data. Retry it once with adjusted arguments, or answer without it.",
				})
			}
			conv.Append(turns...)

		case provider.ResponseTypeRefusal:
			return "", &LoopError{Reason: ReasonContentRefused, Err: fmt.Errorf("model refused: %s", resp.Content.RefusalReason)}

		default:
			return "", &LoopError{Reason: ReasonMalformedModelResponse, Err: fmt.Errorf("unknown response type %q", resp.Content.Type)}
		}
	}

	l.logger.Error("iteration limit exceeded", "state", StateFailed, "limit", l.cfg.MaxIterations)
	return "", &LoopError{Reason: ReasonIterationLimitExceeded, Err: fmt.Errorf("no final answer after %d model round-trips", l.cfg.MaxIterations)}
}

// generateWithRetry calls the model, retrying retryable provider failures up
// to the configured budget. Non-retryable failures surface immediately.
func (l *Loop) generateWithRetry(ctx context.Context, conv *Conversation) (*provider.GenerateResponse, error) {
	req := &provider.GenerateRequest{
		SystemPrompt: l.systemPrompt,
		History:      conv.History(),
		Tools:        l.registry.Declarations(),
	}

	var lastErr error
	for attempt := 0; attempt <= l.cfg.ModelRetries; attempt++ {
		if attempt > 0 {
			wait := 500 * time.Millisecond
			if after := provider.GetRetryAfter(lastErr); after != nil {
				wait = *after
			}
			l.logger.Warn("retrying model call", "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, &LoopError{Reason: ReasonCancelled, Err: ctx.Err()}
			}
		}

		resp, err := l.provider.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !provider.IsRetryable(err) {
			break
		}
	}

	return nil, &LoopError{Reason: ReasonModelUnavailable, Err: lastErr}
}

// executeRound runs every tool request of one round. Requests are mutually
// independent and run concurrently; results come back indexed by request so
// the caller can append them in the original request order.
func (l *Loop) executeRound(ctx context.Context, requests []models.ToolRequest) []tool.Result {
	results := make([]tool.Result, len(requests))

	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req models.ToolRequest) {
			defer wg.Done()
			results[i] = l.executeOne(ctx, req)
		}(i, req)
	}
	wg.Wait()

	return results
}

// executeOne resolves and runs a single tool request. An unregistered name
// becomes a failed result naming the available tools, so the model can
// correct itself on the next round.
func (l *Loop) executeOne(ctx context.Context, req models.ToolRequest) tool.Result {
	t, err := l.registry.Resolve(req.Name)
	if err != nil {
		l.logger.Warn("unknown tool requested", "tool", req.Name)
		return tool.Result{
			Name:        req.Name,
			Status:      tool.StatusFailed,
			ErrorDetail: fmt.Sprintf("unknown tool %q; available tools: %s", req.Name, strings.Join(l.registry.Names(), ", ")),
		}
	}
	return l.runner.Execute(ctx, t, req.Args)
}
