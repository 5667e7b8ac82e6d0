package models

import (
	"github.com/Jeff-67/TonyStock/internal/agent/models"
	"github.com/Jeff-67/TonyStock/internal/tool"
)

// GenerateRequest encapsulates all parameters for a generation request.
type GenerateRequest struct {
	// SystemPrompt is prepended as the model's standing instruction.
	SystemPrompt string

	// History contains the conversation turns, oldest first.
	History []models.Turn

	// Tools contains tool declarations for native tool calling.
	Tools []tool.Declaration

	// Config contains optional generation parameters.
	Config *GenerateConfig
}

// GenerateConfig contains optional generation parameters.
// All fields are pointers to distinguish between "not set" and "zero value".
type GenerateConfig struct {
	Temperature   *float32
	TopP          *float32
	StopSequences []string
}

// ResponseType indicates what the model produced.
type ResponseType string

const (
	ResponseTypeText     ResponseType = "text"
	ResponseTypeToolCall ResponseType = "tool_call"
	ResponseTypeRefusal  ResponseType = "refusal"
)

// GenerateResponse contains the model's response and metadata.
type GenerateResponse struct {
	Content  ResponseContent
	Metadata ResponseMetadata
}

// ResponseContent is a union type representing the different response shapes.
type ResponseContent struct {
	Type ResponseType

	// For Type = ResponseTypeText
	Text string

	// For Type = ResponseTypeToolCall
	ToolRequests []models.ToolRequest

	// For Type = ResponseTypeRefusal (safety block, policy violation)
	RefusalReason string
}

// ResponseMetadata carries usage information about one generation.
type ResponseMetadata struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	ModelUsed        string
	LatencyMs        int64
}
