package gemini

import (
	"fmt"

	agentmodels "github.com/Jeff-67/TonyStock/internal/agent/models"
	provider "github.com/Jeff-67/TonyStock/internal/provider/models"
	"github.com/Jeff-67/TonyStock/internal/tool"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// toGeminiContents converts conversation turns to Gemini Content format.
func toGeminiContents(history []agentmodels.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		if content := turnToGeminiContent(turn); content != nil {
			contents = append(contents, content)
		}
	}
	return contents
}

// turnToGeminiContent converts a single turn to Gemini Content format.
func turnToGeminiContent(turn agentmodels.Turn) *genai.Content {
	switch turn.Role {
	case agentmodels.RoleAssistant:
		parts := make([]*genai.Part, 0, 1+len(turn.ToolRequests))
		if turn.Content != "" {
			parts = append(parts, genai.NewPartFromText(turn.Content))
		}
		for _, req := range turn.ToolRequests {
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					Name: req.Name,
					Args: req.Args,
				},
			})
		}
		if len(parts) == 0 {
			return nil
		}
		return &genai.Content{Role: "model", Parts: parts}

	case agentmodels.RoleToolResult:
		return &genai.Content{
			Role: "user",
			Parts: []*genai.Part{{
				FunctionResponse: &genai.FunctionResponse{
					Name: turn.ToolName,
					Response: map[string]any{
						"content": turn.Content,
					},
				},
			}},
		}

	default: // user
		if turn.Content == "" {
			return nil
		}
		return &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(turn.Content)},
		}
	}
}

// toGeminiConfig builds the generation config, wiring the system prompt and
// tool declarations in.
func toGeminiConfig(req *provider.GenerateRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.SystemPrompt)},
		}
	}
	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}
	if req.Config != nil {
		if req.Config.Temperature != nil {
			config.Temperature = req.Config.Temperature
		}
		if req.Config.TopP != nil {
			config.TopP = req.Config.TopP
		}
		if len(req.Config.StopSequences) > 0 {
			config.StopSequences = req.Config.StopSequences
		}
	}

	return config
}

// toGeminiTools converts tool declarations to Gemini tools.
func toGeminiTools(decls []tool.Declaration) []*genai.Tool {
	functionDeclarations := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, decl := range decls {
		fd := &genai.FunctionDeclaration{
			Name:        decl.Name,
			Description: decl.Description,
		}
		if decl.Parameters != nil {
			fd.Parameters = toGeminiSchema(decl.Parameters)
		}
		functionDeclarations = append(functionDeclarations, fd)
	}
	return []*genai.Tool{
		{FunctionDeclarations: functionDeclarations},
	}
}

// toGeminiSchema converts a tool schema to a Gemini Schema.
func toGeminiSchema(s *tool.Schema) *genai.Schema {
	schema := &genai.Schema{
		Type:        toGeminiType(s.Type),
		Description: s.Description,
	}
	if len(s.Properties) > 0 {
		schema.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			schema.Properties[name] = toGeminiSchema(prop)
		}
	}
	if s.Items != nil {
		schema.Items = toGeminiSchema(s.Items)
	}
	if len(s.Required) > 0 {
		schema.Required = s.Required
	}
	if len(s.Enum) > 0 {
		schema.Enum = s.Enum
	}
	return schema
}

// toGeminiType converts a schema type to a Gemini Type.
func toGeminiType(t tool.Type) genai.Type {
	switch t {
	case tool.TypeString:
		return genai.TypeString
	case tool.TypeNumber:
		return genai.TypeNumber
	case tool.TypeInteger:
		return genai.TypeInteger
	case tool.TypeBoolean:
		return genai.TypeBoolean
	case tool.TypeArray:
		return genai.TypeArray
	case tool.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts a Gemini response to the internal format.
func fromGeminiResponse(resp *genai.GenerateContentResponse, modelUsed string) (*provider.GenerateResponse, error) {
	if len(resp.Candidates) == 0 {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeInvalidRequest,
			Message: "no candidates in response",
		}
	}

	candidate := resp.Candidates[0]

	if candidate.FinishReason == genai.FinishReasonSafety {
		return &provider.GenerateResponse{
			Content: provider.ResponseContent{
				Type:          provider.ResponseTypeRefusal,
				RefusalReason: "content blocked by safety filters",
			},
			Metadata: buildMetadata(resp.UsageMetadata, modelUsed),
		}, nil
	}

	if candidate.Content == nil {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeInvalidRequest,
			Message: "candidate has no content",
		}
	}

	// Function calls take precedence over any interleaved text.
	var requests []agentmodels.ToolRequest
	var text string
	for _, part := range candidate.Content.Parts {
		if part.FunctionCall != nil {
			requests = append(requests, agentmodels.ToolRequest{
				ID:   uuid.NewString(), // Gemini doesn't provide call IDs
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
		if part.Text != "" {
			text += part.Text
		}
	}

	if len(requests) > 0 {
		return &provider.GenerateResponse{
			Content: provider.ResponseContent{
				Type:         provider.ResponseTypeToolCall,
				Text:         text,
				ToolRequests: requests,
			},
			Metadata: buildMetadata(resp.UsageMetadata, modelUsed),
		}, nil
	}

	return &provider.GenerateResponse{
		Content: provider.ResponseContent{
			Type: provider.ResponseTypeText,
			Text: text,
		},
		Metadata: buildMetadata(resp.UsageMetadata, modelUsed),
	}, nil
}

// buildMetadata builds response metadata from usage data.
func buildMetadata(usage *genai.GenerateContentResponseUsageMetadata, modelUsed string) provider.ResponseMetadata {
	metadata := provider.ResponseMetadata{ModelUsed: modelUsed}
	if usage != nil {
		metadata.PromptTokens = int(usage.PromptTokenCount)
		metadata.CompletionTokens = int(usage.CandidatesTokenCount)
		metadata.TotalTokens = int(usage.TotalTokenCount)
	}
	return metadata
}

// mapGeminiError maps Gemini API errors to provider errors.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 401, 403:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeAuth,
				Message:    "authentication failed",
				Underlying: err,
				Retryable:  false,
			}
		case 429:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeRateLimit,
				Message:    "rate limit exceeded",
				Underlying: err,
				Retryable:  true,
			}
		case 400:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeInvalidRequest,
				Message:    fmt.Sprintf("invalid request: %s", apiErr.Message),
				Underlying: err,
				Retryable:  false,
			}
		case 500, 502, 503, 504:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeUnavailable,
				Message:    "service unavailable",
				Underlying: err,
				Retryable:  true,
			}
		default:
			return &provider.ProviderError{
				Code:       provider.ErrorCodeNetwork,
				Message:    fmt.Sprintf("API error: %s", apiErr.Message),
				Underlying: err,
				Retryable:  true,
			}
		}
	}

	return &provider.ProviderError{
		Code:       provider.ErrorCodeNetwork,
		Message:    "network error",
		Underlying: err,
		Retryable:  true,
	}
}
