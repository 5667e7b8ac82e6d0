package tool

import "context"

// Type represents JSON Schema types.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema represents a JSON Schema for tool parameters.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Declaration declares a tool's function signature for the LLM.
type Declaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Tool is a named capability the model can invoke.
// Implementations must be stateless and safe for concurrent use; all I/O they
// perform must honor ctx.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Declaration returns the tool's schema for the LLM.
	Declaration() Declaration

	// Execute runs the tool with arguments as produced by the model.
	// It returns the content to feed back to the model. A nil error with empty
	// content is a valid outcome (the executor classifies it as empty).
	Execute(ctx context.Context, args map[string]any) (string, error)
}
