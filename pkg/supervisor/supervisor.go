// Package supervisor implements the routing policy of the orchestration
// engine: a pure decision function from WorkflowState to the next directive.
package supervisor

import (
	"github.com/scriptflow/scriptflow/pkg/models"
)

// DirectiveKind discriminates the supervisor's decision output.
type DirectiveKind string

const (
	DirectiveRunPhase    DirectiveKind = "run_phase"
	DirectiveCollaborate DirectiveKind = "collaborate"
	DirectiveTerminate   DirectiveKind = "terminate"
)

// Verdict is the terminal outcome carried by a terminate directive.
type Verdict string

const (
	VerdictSuccess Verdict = "success"
	VerdictFailure Verdict = "failure"
)

// Directive is the single-valued decision for a given state: run a phase,
// run a collaboration round, or terminate.
type Directive struct {
	Kind      DirectiveKind
	Phase     models.Phase
	Direction models.CollaborationDirection
	Verdict   Verdict
}

func runPhase(phase models.Phase) Directive {
	return Directive{Kind: DirectiveRunPhase, Phase: phase}
}

func collaborate(direction models.CollaborationDirection) Directive {
	return Directive{Kind: DirectiveCollaborate, Direction: direction}
}

func terminate(verdict Verdict) Directive {
	return Directive{Kind: DirectiveTerminate, Verdict: verdict}
}

// DefaultMaxRetries is the total repair round budget per task. It bounds
// all collaboration rounds over the task's lifetime, not rounds per test
// failure.
const DefaultMaxRetries = 3

// Supervisor holds the one policy parameter, the collaboration round cap.
type Supervisor struct {
	maxRetries int
}

// New creates a supervisor with the given total collaboration round cap.
func New(maxRetries int) *Supervisor {
	return &Supervisor{maxRetries: maxRetries}
}

// MaxRetries returns the configured round cap.
func (s *Supervisor) MaxRetries() int {
	return s.maxRetries
}

// Decide evaluates the decision table in order and returns exactly one
// directive. It is a pure function of the state: no I/O, no suspension
// points, safe to re-evaluate after recovery with identical output.
func (s *Supervisor) Decide(state *models.WorkflowState) Directive {
	// Terminal states decide themselves; re-deciding them is a no-op.
	if state.Status.Terminal() {
		if state.Status == models.TaskStatusSucceeded {
			return terminate(VerdictSuccess)
		}

		return terminate(VerdictFailure)
	}

	// A recorded fatal failure routes through reporting once, then
	// terminates. Reporting failures have no retry path.
	if state.Failure != nil {
		if state.Failure.Phase == models.PhaseReporting || state.FinalReport != nil {
			return terminate(VerdictFailure)
		}

		return runPhase(models.PhaseReporting)
	}

	if state.FinalReport != nil {
		if state.TestResult != nil && state.TestResult.Success {
			return terminate(VerdictSuccess)
		}

		return terminate(VerdictFailure)
	}

	if state.Blueprint == nil {
		return runPhase(models.PhaseBlueprint)
	}

	if state.GeneratedCode == nil {
		return runPhase(models.PhaseCodeGeneration)
	}

	if state.TestResult == nil {
		return runPhase(models.PhaseTesting)
	}

	if state.TestResult.Success {
		return runPhase(models.PhaseReporting)
	}

	// Strict alternation of the repair loop: a freshly applied fix is
	// always re-tested, even when it consumed the last round. The round
	// cap only gates opening new rounds.
	if state.CurrentPhase == models.PhaseCodeGeneration {
		return runPhase(models.PhaseTesting)
	}

	if state.RetryCount < s.maxRetries {
		return collaborate(models.DirectionToCodeGeneration)
	}

	// Rounds exhausted: reporting still runs to preserve traceability.
	return runPhase(models.PhaseReporting)
}
