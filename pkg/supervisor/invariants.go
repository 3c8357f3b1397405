package supervisor

import (
	"errors"
	"fmt"

	"github.com/scriptflow/scriptflow/pkg/models"
)

// Invariant violations surfaced when a recovered snapshot is inconsistent.
// Resume aborts on these rather than guessing.
var (
	ErrMissingTaskID        = errors.New("state has no task id")
	ErrInvalidStatus        = errors.New("state has an unknown status")
	ErrRetryCountExceeded   = errors.New("retry count exceeds the configured maximum")
	ErrRetryCountNegative   = errors.New("retry count is negative")
	ErrHistoryOutOfOrder    = errors.New("collaboration history round indexes are not sequential")
	ErrArtifactOrder        = errors.New("artifact set without its predecessor phase artifact")
	ErrDanglingPendingRound = errors.New("non-latest collaboration round is still pending")
)

var validStatuses = map[models.TaskStatus]bool{
	models.TaskStatusInitiated:     true,
	models.TaskStatusRunning:       true,
	models.TaskStatusCollaborating: true,
	models.TaskStatusSucceeded:     true,
	models.TaskStatusFailed:        true,
	models.TaskStatusAborted:       true,
}

// CheckInvariants verifies a recovered state against the structural
// invariants the engine maintains while writing checkpoints.
func (s *Supervisor) CheckInvariants(state *models.WorkflowState) error {
	if state.TaskID == "" {
		return ErrMissingTaskID
	}

	if !validStatuses[state.Status] {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, state.Status)
	}

	if state.RetryCount < 0 {
		return ErrRetryCountNegative
	}

	if state.RetryCount > s.maxRetries {
		return fmt.Errorf("%w: %d > %d", ErrRetryCountExceeded, state.RetryCount, s.maxRetries)
	}

	// Artifacts are produced strictly in phase order.
	if state.GeneratedCode != nil && state.Blueprint == nil {
		return fmt.Errorf("%w: generated_code without blueprint", ErrArtifactOrder)
	}

	if state.TestResult != nil && state.GeneratedCode == nil {
		return fmt.Errorf("%w: test_result without generated_code", ErrArtifactOrder)
	}

	for i, round := range state.CollaborationHistory {
		if round.RoundIndex != i+1 {
			return fmt.Errorf("%w: round %d has index %d", ErrHistoryOutOfOrder, i+1, round.RoundIndex)
		}

		if round.Outcome == models.RoundOutcomePending && i != len(state.CollaborationHistory)-1 {
			return fmt.Errorf("%w: round %d", ErrDanglingPendingRound, round.RoundIndex)
		}
	}

	return nil
}
