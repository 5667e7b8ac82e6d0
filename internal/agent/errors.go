package agent

import "fmt"

// FailureReason classifies terminal loop failures.
type FailureReason string

const (
	// ReasonIterationLimitExceeded means the model kept requesting tools past
	// the configured round-trip bound. The safety fuse against runaway loops.
	ReasonIterationLimitExceeded FailureReason = "iteration_limit_exceeded"

	// ReasonMalformedModelResponse means the model output could not be parsed
	// into a final answer or a well-formed set of tool requests.
	ReasonMalformedModelResponse FailureReason = "malformed_model_response"

	// ReasonModelUnavailable means the provider failed past its retry budget.
	ReasonModelUnavailable FailureReason = "model_unavailable"

	// ReasonContentRefused means the model refused to generate (safety block).
	ReasonContentRefused FailureReason = "content_refused"

	// ReasonCancelled means the caller cancelled the conversation.
	ReasonCancelled FailureReason = "cancelled"
)

// Transient reports whether the failure is worth the user retrying as-is.
func (r FailureReason) Transient() bool {
	switch r {
	case ReasonModelUnavailable, ReasonCancelled:
		return true
	}
	return false
}

// LoopError is the terminal failure of one orchestration run.
type LoopError struct {
	Reason FailureReason
	Err    error
}

func (e *LoopError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *LoopError) Unwrap() error {
	return e.Err
}
