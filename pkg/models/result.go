package models

// Outcome classifies a phase execution result. The set is closed: the
// supervisor never sees raw errors, only one of these three variants.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeTransientFailure Outcome = "transient_failure"
	OutcomeFatalFailure     Outcome = "fatal_failure"
)

// PhaseResult is the tagged outcome of a single phase execution.
type PhaseResult struct {
	Phase    Phase    `json:"phase"`
	Outcome  Outcome  `json:"outcome"`
	Artifact Artifact `json:"artifact,omitempty"`
	Cause    string   `json:"cause,omitempty"`
}

// SuccessResult builds a successful result carrying the phase artifact.
func SuccessResult(phase Phase, artifact Artifact) PhaseResult {
	return PhaseResult{Phase: phase, Outcome: OutcomeSuccess, Artifact: artifact}
}

// TransientFailureResult builds a retryable failure result.
func TransientFailureResult(phase Phase, cause string) PhaseResult {
	return PhaseResult{Phase: phase, Outcome: OutcomeTransientFailure, Cause: cause}
}

// FatalFailureResult builds a non-retryable failure result.
func FatalFailureResult(phase Phase, cause string) PhaseResult {
	return PhaseResult{Phase: phase, Outcome: OutcomeFatalFailure, Cause: cause}
}
