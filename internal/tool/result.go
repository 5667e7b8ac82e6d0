package tool

import "fmt"

// Status classifies the outcome of one tool execution.
type Status string

const (
	// StatusOK means the tool ran and produced usable output.
	StatusOK Status = "ok"
	// StatusFailed means the tool could not run or errored.
	StatusFailed Status = "failed"
	// StatusEmpty means the tool ran but returned no usable data
	// (zero search hits, blank page body). Valid, but uninformative.
	StatusEmpty Status = "empty"
)

// Result is the outcome of executing one tool request. Failures are values,
// never errors propagated out of the executor: the model sees them as tool
// output and can react.
type Result struct {
	// Name of the tool that produced this result.
	Name string
	// Status classifies the outcome.
	Status Status
	// Payload holds the tool output when Status is StatusOK.
	Payload string
	// ErrorDetail explains the failure when Status is StatusFailed.
	ErrorDetail string
}

// LLMContent renders the result as the content of a tool_result turn.
func (r Result) LLMContent() string {
	switch r.Status {
	case StatusOK:
		return r.Payload
	case StatusEmpty:
		return fmt.Sprintf("Tool %q completed but returned no data.", r.Name)
	default:
		return fmt.Sprintf("Error: tool %q failed: %s", r.Name, r.ErrorDetail)
	}
}
