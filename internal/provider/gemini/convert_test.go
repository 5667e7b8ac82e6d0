package gemini

import (
	"testing"

	agentmodels "github.com/Jeff-67/TonyStock/internal/agent/models"
	provider "github.com/Jeff-67/TonyStock/internal/provider/models"
	"github.com/Jeff-67/TonyStock/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToGeminiContents_UserTurn(t *testing.T) {
	contents := toGeminiContents([]agentmodels.Turn{
		{Role: agentmodels.RoleUser, Content: "What is the latest price of AAPL?"},
	})

	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
	require.Len(t, contents[0].Parts, 1)
	assert.Equal(t, "What is the latest price of AAPL?", contents[0].Parts[0].Text)
}

func TestToGeminiContents_AssistantToolRequestTurn(t *testing.T) {
	contents := toGeminiContents([]agentmodels.Turn{
		{
			Role: agentmodels.RoleAssistant,
			ToolRequests: []agentmodels.ToolRequest{
				{ID: "r1", Name: "market_data", Args: map[string]any{"symbol": "AAPL"}},
			},
		},
	})

	require.Len(t, contents, 1)
	assert.Equal(t, "model", contents[0].Role)
	require.Len(t, contents[0].Parts, 1)
	require.NotNil(t, contents[0].Parts[0].FunctionCall)
	assert.Equal(t, "market_data", contents[0].Parts[0].FunctionCall.Name)
	assert.Equal(t, "AAPL", contents[0].Parts[0].FunctionCall.Args["symbol"])
}

func TestToGeminiContents_ToolResultTurn(t *testing.T) {
	contents := toGeminiContents([]agentmodels.Turn{
		{
			Role:     agentmodels.RoleToolResult,
			ToolName: "market_data",
			Content:  "close: 231.5",
		},
	})

	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
	require.NotNil(t, contents[0].Parts[0].FunctionResponse)
	assert.Equal(t, "market_data", contents[0].Parts[0].FunctionResponse.Name)
	assert.Equal(t, "close: 231.5", contents[0].Parts[0].FunctionResponse.Response["content"])
}

func TestToGeminiContents_SkipsEmptyTurns(t *testing.T) {
	contents := toGeminiContents([]agentmodels.Turn{
		{Role: agentmodels.RoleUser, Content: ""},
		{Role: agentmodels.RoleAssistant},
	})

	assert.Empty(t, contents)
}

func TestToGeminiConfig_SystemPromptAndTools(t *testing.T) {
	req := &provider.GenerateRequest{
		SystemPrompt: "You are a stock analyst.",
		Tools: []tool.Declaration{
			{
				Name:        "search_engine",
				Description: "Search the web",
				Parameters: &tool.Schema{
					Type: tool.TypeObject,
					Properties: map[string]*tool.Schema{
						"query":       {Type: tool.TypeString},
						"max_results": {Type: tool.TypeInteger},
						"sites":       {Type: tool.TypeArray, Items: &tool.Schema{Type: tool.TypeString}},
					},
					Required: []string{"query"},
				},
			},
		},
	}

	config := toGeminiConfig(req)

	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "You are a stock analyst.", config.SystemInstruction.Parts[0].Text)

	require.Len(t, config.Tools, 1)
	require.Len(t, config.Tools[0].FunctionDeclarations, 1)
	fd := config.Tools[0].FunctionDeclarations[0]
	assert.Equal(t, "search_engine", fd.Name)
	require.NotNil(t, fd.Parameters)
	assert.Equal(t, genai.TypeObject, fd.Parameters.Type)
	assert.Equal(t, genai.TypeString, fd.Parameters.Properties["query"].Type)
	assert.Equal(t, genai.TypeInteger, fd.Parameters.Properties["max_results"].Type)
	assert.Equal(t, genai.TypeArray, fd.Parameters.Properties["sites"].Type)
	assert.Equal(t, genai.TypeString, fd.Parameters.Properties["sites"].Items.Type)
	assert.Equal(t, []string{"query"}, fd.Parameters.Required)
}

func TestFromGeminiResponse_Text(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{genai.NewPartFromText("AAPL closed at 231.5.")},
			},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 7,
			TotalTokenCount:      17,
		},
	}

	out, err := fromGeminiResponse(resp, "gemini-2.0-flash")

	require.NoError(t, err)
	assert.Equal(t, provider.ResponseTypeText, out.Content.Type)
	assert.Equal(t, "AAPL closed at 231.5.", out.Content.Text)
	assert.Equal(t, 17, out.Metadata.TotalTokens)
	assert.Equal(t, "gemini-2.0-flash", out.Metadata.ModelUsed)
}

func TestFromGeminiResponse_ToolCallsPreserveOrderAndGetIDs(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{Name: "market_data", Args: map[string]any{"symbol": "AAPL"}}},
					{FunctionCall: &genai.FunctionCall{Name: "search_engine", Args: map[string]any{"query": "AAPL news"}}},
				},
			},
		}},
	}

	out, err := fromGeminiResponse(resp, "gemini-2.0-flash")

	require.NoError(t, err)
	assert.Equal(t, provider.ResponseTypeToolCall, out.Content.Type)
	require.Len(t, out.Content.ToolRequests, 2)
	assert.Equal(t, "market_data", out.Content.ToolRequests[0].Name)
	assert.Equal(t, "search_engine", out.Content.ToolRequests[1].Name)
	assert.NotEmpty(t, out.Content.ToolRequests[0].ID)
	assert.NotEmpty(t, out.Content.ToolRequests[1].ID)
	assert.NotEqual(t, out.Content.ToolRequests[0].ID, out.Content.ToolRequests[1].ID)
}

func TestFromGeminiResponse_SafetyBlock_IsRefusal(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonSafety,
		}},
	}

	out, err := fromGeminiResponse(resp, "gemini-2.0-flash")

	require.NoError(t, err)
	assert.Equal(t, provider.ResponseTypeRefusal, out.Content.Type)
	assert.NotEmpty(t, out.Content.RefusalReason)
}

func TestFromGeminiResponse_NoCandidates_Error(t *testing.T) {
	_, err := fromGeminiResponse(&genai.GenerateContentResponse{}, "gemini-2.0-flash")

	require.Error(t, err)
	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrorCodeInvalidRequest, perr.Code)
}

func TestMapGeminiError_RateLimitIsRetryable(t *testing.T) {
	err := mapGeminiError(&genai.APIError{Code: 429, Message: "quota"})

	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrorCodeRateLimit, perr.Code)
	assert.True(t, perr.Retryable)
}

func TestMapGeminiError_AuthNotRetryable(t *testing.T) {
	err := mapGeminiError(&genai.APIError{Code: 403, Message: "forbidden"})

	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.ErrorCodeAuth, perr.Code)
	assert.False(t, perr.Retryable)
}
