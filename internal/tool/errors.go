package tool

import "errors"

// Sentinel errors for registry and argument handling.
var (
	// ErrDuplicateToolName is returned when registering a name twice.
	ErrDuplicateToolName = errors.New("tool name already registered")

	// ErrToolNotFound is returned when resolving an unregistered name.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments is returned when arguments fail schema validation.
	ErrInvalidArguments = errors.New("invalid arguments")
)
