package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Jeff-67/TonyStock/internal/agent/models"
	"github.com/Jeff-67/TonyStock/internal/config"
	provider "github.com/Jeff-67/TonyStock/internal/provider/models"
	"github.com/Jeff-67/TonyStock/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider implements llmProvider with a scripted sequence of responses.
type MockProvider struct {
	mu        sync.Mutex
	Script    []func(req *provider.GenerateRequest) (*provider.GenerateResponse, error)
	CallCount int
	Requests  []*provider.GenerateRequest
}

func (m *MockProvider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	idx := m.CallCount
	m.CallCount++
	if idx >= len(m.Script) {
		// Repeat the last scripted step for loops longer than the script.
		idx = len(m.Script) - 1
	}
	return m.Script[idx](req)
}

// MockRunner implements toolRunner with overridable behavior.
type MockRunner struct {
	ExecuteFunc func(ctx context.Context, t tool.Tool, args map[string]any) tool.Result
}

func (m *MockRunner) Execute(ctx context.Context, t tool.Tool, args map[string]any) tool.Result {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, t, args)
	}
	return tool.Result{Name: t.Name(), Status: tool.StatusOK, Payload: "data"}
}

// stubTool is a registry entry for loop tests.
type stubTool struct {
	name     string
	execFunc func(ctx context.Context, args map[string]any) (string, error)
}

func (s *stubTool) Name() string { return s.name }
func (s *stubTool) Declaration() tool.Declaration {
	return tool.Declaration{Name: s.name, Description: "stub"}
}
func (s *stubTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if s.execFunc != nil {
		return s.execFunc(ctx, args)
	}
	return "stub output", nil
}

func textStep(text string) func(*provider.GenerateRequest) (*provider.GenerateResponse, error) {
	return func(*provider.GenerateRequest) (*provider.GenerateResponse, error) {
		return &provider.GenerateResponse{
			Content: provider.ResponseContent{Type: provider.ResponseTypeText, Text: text},
		}, nil
	}
}

func toolCallStep(requests ...models.ToolRequest) func(*provider.GenerateRequest) (*provider.GenerateResponse, error) {
	return func(*provider.GenerateRequest) (*provider.GenerateResponse, error) {
		return &provider.GenerateResponse{
			Content: provider.ResponseContent{Type: provider.ResponseTypeToolCall, ToolRequests: requests},
		}, nil
	}
}

func newTestLoop(t *testing.T, p llmProvider, runner toolRunner, cfg config.AgentConfig, tools ...tool.Tool) *Loop {
	t.Helper()
	if len(tools) == 0 {
		tools = []tool.Tool{&stubTool{name: "market_data"}, &stubTool{name: "search_engine"}}
	}
	registry, err := tool.NewRegistry(tools...)
	require.NoError(t, err)
	if runner == nil {
		runner = &MockRunner{}
	}
	return NewLoop(p, registry, runner, "You are a financial research assistant.", cfg, nil)
}

func defaultAgentConfig() config.AgentConfig {
	return config.AgentConfig{MaxIterations: 8, ModelRetries: 0}
}

func userConv(text string) *Conversation {
	conv := NewConversation()
	conv.Append(models.Turn{Role: models.RoleUser, Content: text})
	return conv
}

func TestRun_DirectAnswer(t *testing.T) {
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		textStep("Hello! I analyze stocks."),
	}}
	loop := newTestLoop(t, p, nil, defaultAgentConfig())

	answer, err := loop.Run(context.Background(), userConv("who are you?"))

	require.NoError(t, err)
	assert.Equal(t, "Hello! I analyze stocks.", answer)
	assert.Equal(t, 1, p.CallCount)
}

func TestRun_SingleToolRound_AAPLScenario(t *testing.T) {
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		toolCallStep(models.ToolRequest{ID: "r1", Name: "market_data", Args: map[string]any{"symbol": "AAPL"}}),
		textStep("AAPL last closed at 231.50."),
	}}
	runner := &MockRunner{
		ExecuteFunc: func(ctx context.Context, tl tool.Tool, args map[string]any) tool.Result {
			return tool.Result{Name: tl.Name(), Status: tool.StatusOK, Payload: "2024-05-01 close=231.50"}
		},
	}
	loop := newTestLoop(t, p, runner, defaultAgentConfig())
	conv := userConv("What is the latest price of AAPL?")

	answer, err := loop.Run(context.Background(), conv)

	require.NoError(t, err)
	assert.Contains(t, answer, "231.50")

	// user, assistant-with-request, tool_result, then the final answer.
	history := conv.History()
	require.Len(t, history, 4)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	require.Len(t, history[1].ToolRequests, 1)
	assert.Equal(t, models.RoleToolResult, history[2].Role)
	assert.Equal(t, "market_data", history[2].ToolName)
	assert.Contains(t, history[2].Content, "231.50")
	assert.Equal(t, models.RoleAssistant, history[3].Role)

	// The second model call saw the tool result.
	require.Equal(t, 2, p.CallCount)
	assert.Len(t, p.Requests[1].History, 3)
}

func TestRun_OneResultPerRequest_InRequestOrder(t *testing.T) {
	requests := []models.ToolRequest{
		{ID: "a", Name: "market_data", Args: map[string]any{}},
		{ID: "b", Name: "search_engine", Args: map[string]any{}},
		{ID: "c", Name: "market_data", Args: map[string]any{}},
	}
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		toolCallStep(requests...),
		textStep("done"),
	}}
	// Finish tools in reverse order to prove reassembly is by request order.
	started := make(chan struct{}, 3)
	runner := &MockRunner{
		ExecuteFunc: func(ctx context.Context, tl tool.Tool, args map[string]any) tool.Result {
			started <- struct{}{}
			if len(started) < 3 {
				time.Sleep(20 * time.Millisecond)
			}
			return tool.Result{Name: tl.Name(), Status: tool.StatusOK, Payload: "out-" + tl.Name()}
		},
	}
	loop := newTestLoop(t, p, runner, defaultAgentConfig())
	conv := userConv("analyze")

	_, err := loop.Run(context.Background(), conv)
	require.NoError(t, err)

	history := conv.History()
	// user, assistant, 3 tool results, assistant answer
	require.Len(t, history, 6)
	assert.Equal(t, "market_data", history[2].ToolName)
	assert.Equal(t, "a", history[2].RequestID)
	assert.Equal(t, "search_engine", history[3].ToolName)
	assert.Equal(t, "b", history[3].RequestID)
	assert.Equal(t, "market_data", history[4].ToolName)
	assert.Equal(t, "c", history[4].RequestID)
}

func TestRun_FailedToolRecordedAndLoopContinues(t *testing.T) {
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		toolCallStep(models.ToolRequest{ID: "r1", Name: "search_engine", Args: map[string]any{}}),
		textStep("answered without search"),
	}}
	runner := &MockRunner{
		ExecuteFunc: func(ctx context.Context, tl tool.Tool, args map[string]any) tool.Result {
			return tool.Result{Name: tl.Name(), Status: tool.StatusFailed, ErrorDetail: "connection refused"}
		},
	}
	loop := newTestLoop(t, p, runner, defaultAgentConfig())
	conv := userConv("search something")

	answer, err := loop.Run(context.Background(), conv)

	require.NoError(t, err)
	assert.Equal(t, "answered without search", answer)
	history := conv.History()
	require.Len(t, history, 4)
	assert.Equal(t, tool.StatusFailed, history[2].ToolStatus)
	assert.Contains(t, history[2].Content, "connection refused")
}

func TestRun_UnknownTool_FailedResultDistinctFromNetworkFailure(t *testing.T) {
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		toolCallStep(models.ToolRequest{ID: "r1", Name: "nonexistent_tool", Args: map[string]any{}}),
		textStep("ok, proceeding without it"),
	}}
	loop := newTestLoop(t, p, nil, defaultAgentConfig())
	conv := userConv("do something")

	answer, err := loop.Run(context.Background(), conv)

	require.NoError(t, err)
	assert.Equal(t, "ok, proceeding without it", answer)

	history := conv.History()
	require.Len(t, history, 4)
	assert.Equal(t, tool.StatusFailed, history[2].ToolStatus)
	assert.Contains(t, history[2].Content, `unknown tool "nonexistent_tool"`)
	assert.Contains(t, history[2].Content, "market_data") // names the available tools
	// And the loop resubmitted rather than aborting.
	assert.Equal(t, 2, p.CallCount)
}

func TestRun_IterationLimit_FailsAfterExactlyNRounds(t *testing.T) {
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		toolCallStep(models.ToolRequest{ID: "r", Name: "market_data", Args: map[string]any{}}),
	}}
	cfg := defaultAgentConfig()
	cfg.MaxIterations = 3
	loop := newTestLoop(t, p, nil, cfg)

	_, err := loop.Run(context.Background(), userConv("loop forever"))

	require.Error(t, err)
	var loopErr *LoopError
	require.ErrorAs(t, err, &loopErr)
	assert.Equal(t, ReasonIterationLimitExceeded, loopErr.Reason)
	assert.Equal(t, 3, p.CallCount) // exactly 3 round-trips, not 4
}

func TestRun_EmptyToolCallList_Malformed(t *testing.T) {
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		func(*provider.GenerateRequest) (*provider.GenerateResponse, error) {
			return &provider.GenerateResponse{
				Content: provider.ResponseContent{Type: provider.ResponseTypeToolCall},
			}, nil
		},
	}}
	loop := newTestLoop(t, p, nil, defaultAgentConfig())

	_, err := loop.Run(context.Background(), userConv("hi"))

	var loopErr *LoopError
	require.ErrorAs(t, err, &loopErr)
	assert.Equal(t, ReasonMalformedModelResponse, loopErr.Reason)
}

func TestRun_EmptyTextAnswer_Malformed(t *testing.T) {
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		textStep("   "),
	}}
	loop := newTestLoop(t, p, nil, defaultAgentConfig())

	_, err := loop.Run(context.Background(), userConv("hi"))

	var loopErr *LoopError
	require.ErrorAs(t, err, &loopErr)
	assert.Equal(t, ReasonMalformedModelResponse, loopErr.Reason)
}

func TestRun_Refusal_FailsPermanently(t *testing.T) {
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		func(*provider.GenerateRequest) (*provider.GenerateResponse, error) {
			return &provider.GenerateResponse{
				Content: provider.ResponseContent{Type: provider.ResponseTypeRefusal, RefusalReason: "safety"},
			}, nil
		},
	}}
	loop := newTestLoop(t, p, nil, defaultAgentConfig())

	_, err := loop.Run(context.Background(), userConv("hi"))

	var loopErr *LoopError
	require.ErrorAs(t, err, &loopErr)
	assert.Equal(t, ReasonContentRefused, loopErr.Reason)
	assert.False(t, loopErr.Reason.Transient())
}

func TestRun_RetryableProviderError_RetriedWithinBudget(t *testing.T) {
	calls := 0
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		func(req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
			calls++
			if calls == 1 {
				return nil, &provider.ProviderError{Code: provider.ErrorCodeUnavailable, Retryable: true}
			}
			return textStep("recovered")(req)
		},
	}}
	cfg := defaultAgentConfig()
	cfg.ModelRetries = 2
	loop := newTestLoop(t, p, nil, cfg)

	answer, err := loop.Run(context.Background(), userConv("hi"))

	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)
	assert.Equal(t, 2, calls)
}

func TestRun_NonRetryableProviderError_FailsImmediately(t *testing.T) {
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		func(*provider.GenerateRequest) (*provider.GenerateResponse, error) {
			return nil, &provider.ProviderError{Code: provider.ErrorCodeAuth, Retryable: false}
		},
	}}
	cfg := defaultAgentConfig()
	cfg.ModelRetries = 3
	loop := newTestLoop(t, p, nil, cfg)

	_, err := loop.Run(context.Background(), userConv("hi"))

	var loopErr *LoopError
	require.ErrorAs(t, err, &loopErr)
	assert.Equal(t, ReasonModelUnavailable, loopErr.Reason)
	assert.Equal(t, 1, p.CallCount)
}

func TestRun_ExhaustedRetries_Fails(t *testing.T) {
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		func(*provider.GenerateRequest) (*provider.GenerateResponse, error) {
			return nil, &provider.ProviderError{Code: provider.ErrorCodeUnavailable, Retryable: true}
		},
	}}
	cfg := defaultAgentConfig()
	cfg.ModelRetries = 1
	loop := newTestLoop(t, p, nil, cfg)

	_, err := loop.Run(context.Background(), userConv("hi"))

	var loopErr *LoopError
	require.ErrorAs(t, err, &loopErr)
	assert.Equal(t, ReasonModelUnavailable, loopErr.Reason)
	assert.True(t, loopErr.Reason.Transient())
	assert.Equal(t, 2, p.CallCount) // initial attempt + one retry
}

func TestRun_CancelledBeforeAppend_NoHalfAppendedRound(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		toolCallStep(models.ToolRequest{ID: "r1", Name: "market_data", Args: map[string]any{}}),
	}}
	runner := &MockRunner{
		ExecuteFunc: func(c context.Context, tl tool.Tool, args map[string]any) tool.Result {
			cancel() // caller gives up while the tool is running
			return tool.Result{Name: tl.Name(), Status: tool.StatusOK, Payload: "late"}
		},
	}
	loop := newTestLoop(t, p, runner, defaultAgentConfig())
	conv := userConv("hi")

	_, err := loop.Run(ctx, conv)

	var loopErr *LoopError
	require.ErrorAs(t, err, &loopErr)
	assert.Equal(t, ReasonCancelled, loopErr.Reason)
	// Only the user's turn: the interrupted round was not half-appended.
	assert.Equal(t, 1, conv.Len())
}

func TestRun_ToolPanicBehavesLikeFailedResult(t *testing.T) {
	panicTool := &stubTool{
		name: "market_data",
		execFunc: func(ctx context.Context, args map[string]any) (string, error) {
			panic("boom")
		},
	}
	errorTool := &stubTool{
		name: "market_data",
		execFunc: func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("boom")
		},
	}

	run := func(tl tool.Tool) []models.Turn {
		p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
			toolCallStep(models.ToolRequest{ID: "r1", Name: "market_data", Args: map[string]any{}}),
			textStep("done"),
		}}
		executor := tool.NewExecutor(time.Second, nil)
		loop := newTestLoop(t, p, executor, defaultAgentConfig(), tl)
		conv := userConv("hi")
		_, err := loop.Run(context.Background(), conv)
		require.NoError(t, err)
		return conv.History()
	}

	panicHistory := run(panicTool)
	errorHistory := run(errorTool)

	require.Len(t, panicHistory, 4)
	require.Len(t, errorHistory, 4)
	assert.Equal(t, tool.StatusFailed, panicHistory[2].ToolStatus)
	assert.Equal(t, errorHistory[2].ToolStatus, panicHistory[2].ToolStatus)
}

func TestRun_VerifyRetry_AppendsNudgeOnce(t *testing.T) {
	suspicious := func(ctx context.Context, tl tool.Tool, args map[string]any) tool.Result {
		return tool.Result{Name: tl.Name(), Status: tool.StatusOK, Payload: "   "}
	}
	p := &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
		toolCallStep(models.ToolRequest{ID: "r1", Name: "search_engine", Args: map[string]any{}}),
		toolCallStep(models.ToolRequest{ID: "r2", Name: "search_engine", Args: map[string]any{}}),
		textStep("final"),
	}}
	cfg := defaultAgentConfig()
	cfg.VerifyRetry = true
	loop := newTestLoop(t, p, &MockRunner{ExecuteFunc: suspicious}, cfg)
	conv := userConv("hi")

	_, err := loop.Run(context.Background(), conv)
	require.NoError(t, err)

	nudges := 0
	for _, turn := range conv.History() {
		if turn.Role == models.RoleUser && turn.Content != "hi" {
			nudges++
		}
	}
	assert.Equal(t, 1, nudges)
}

func TestRun_Idempotent_SameScriptSameAnswer(t *testing.T) {
	script := func() *MockProvider {
		return &MockProvider{Script: []func(*provider.GenerateRequest) (*provider.GenerateResponse, error){
			toolCallStep(models.ToolRequest{ID: "r1", Name: "market_data", Args: map[string]any{"symbol": "AAPL"}}),
			textStep("AAPL closed at 231.50"),
		}}
	}
	runner := &MockRunner{
		ExecuteFunc: func(ctx context.Context, tl tool.Tool, args map[string]any) tool.Result {
			return tool.Result{Name: tl.Name(), Status: tool.StatusOK, Payload: fmt.Sprintf("%v close=231.50", args["symbol"])}
		},
	}

	loop1 := newTestLoop(t, script(), runner, defaultAgentConfig())
	loop2 := newTestLoop(t, script(), runner, defaultAgentConfig())

	a1, err1 := loop1.Run(context.Background(), userConv("price of AAPL?"))
	a2, err2 := loop2.Run(context.Background(), userConv("price of AAPL?"))

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, a1, a2)
}
