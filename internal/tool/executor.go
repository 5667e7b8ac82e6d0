package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Executor runs tools with validated arguments and converts every failure
// mode into a Result. It never propagates an error or panic to its caller;
// the orchestration loop depends on that to keep sibling tool calls in one
// round independent.
type Executor struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecutor creates an Executor. timeout bounds a single tool invocation.
func NewExecutor(timeout time.Duration, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{timeout: timeout, logger: logger}
}

// Execute validates args against t's declared schema and invokes the tool
// with a bounded execution time.
func (e *Executor) Execute(ctx context.Context, t Tool, args map[string]any) Result {
	name := t.Name()

	if err := ValidateArgs(args, t.Declaration().Parameters); err != nil {
		e.logger.Warn("tool arguments rejected", "tool", name, "error", err)
		return Result{Name: name, Status: StatusFailed, ErrorDetail: fmt.Sprintf("invalid arguments: %v", err)}
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	content, err := e.invoke(execCtx, t, args)
	elapsed := time.Since(start)

	switch {
	case err != nil && errors.Is(execCtx.Err(), context.DeadlineExceeded):
		e.logger.Warn("tool timed out", "tool", name, "elapsed", elapsed)
		return Result{Name: name, Status: StatusFailed, ErrorDetail: "timeout"}
	case err != nil:
		e.logger.Warn("tool failed", "tool", name, "elapsed", elapsed, "error", err)
		return Result{Name: name, Status: StatusFailed, ErrorDetail: err.Error()}
	case strings.TrimSpace(content) == "":
		e.logger.Info("tool returned no data", "tool", name, "elapsed", elapsed)
		return Result{Name: name, Status: StatusEmpty}
	default:
		e.logger.Debug("tool ok", "tool", name, "elapsed", elapsed, "bytes", len(content))
		return Result{Name: name, Status: StatusOK, Payload: content}
	}
}

type invokeOutcome struct {
	content string
	err     error
}

// invoke calls the tool and absorbs panics from the underlying capability.
func (e *Executor) invoke(ctx context.Context, t Tool, args map[string]any) (string, error) {
	ch := make(chan invokeOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- invokeOutcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		content, err := t.Execute(ctx, args)
		ch <- invokeOutcome{content: content, err: err}
	}()

	select {
	case o := <-ch:
		return o.content, o.err
	case <-ctx.Done():
		// The tool goroutine keeps running until it notices ctx; its result
		// is discarded. Tools are required to honor ctx so this is bounded.
		return "", ctx.Err()
	}
}
