// Package models holds the conversation types shared by the agent core and
// the model providers.
package models

import (
	"github.com/Jeff-67/TonyStock/internal/tool"
)

// Role identifies who produced a Turn.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// Turn is one message in a conversation. Turns are immutable once appended;
// their order defines the context the model sees.
type Turn struct {
	Role    Role
	Content string

	// ToolRequests is set on assistant turns that ask for tool executions.
	ToolRequests []ToolRequest

	// Fields below are set on tool_result turns only.
	ToolName   string
	RequestID  string      // matches the originating ToolRequest.ID
	ToolStatus tool.Status // ok, failed or empty
}

// ToolRequest is a model-issued instruction to run a tool.
type ToolRequest struct {
	// ID correlates the request with its result turn. Providers that do not
	// supply call IDs get one generated during conversion.
	ID   string
	Name string
	Args map[string]any
}

// ToolResultTurn builds the tool_result Turn for one executed request.
func ToolResultTurn(req ToolRequest, res tool.Result) Turn {
	return Turn{
		Role:       RoleToolResult,
		Content:    res.LLMContent(),
		ToolName:   req.Name,
		RequestID:  req.ID,
		ToolStatus: res.Status,
	}
}
