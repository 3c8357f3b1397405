package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptflow/scriptflow/pkg/models"
)

func TestCheckInvariants_ValidState(t *testing.T) {
	sup := New(DefaultMaxRetries)

	state := withTestResult(withCode(withBlueprint(baseState())), false)
	state.RetryCount = 1
	state.CollaborationHistory = []models.CollaborationRound{
		{RoundIndex: 1, Outcome: models.RoundOutcomePending},
	}

	assert.NoError(t, sup.CheckInvariants(state))
}

func TestCheckInvariants_Violations(t *testing.T) {
	sup := New(DefaultMaxRetries)

	tests := []struct {
		name    string
		mutate  func(state *models.WorkflowState)
		wantErr error
	}{
		{
			name:    "missing task id",
			mutate:  func(s *models.WorkflowState) { s.TaskID = "" },
			wantErr: ErrMissingTaskID,
		},
		{
			name:    "unknown status",
			mutate:  func(s *models.WorkflowState) { s.Status = "paused" },
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "negative retry count",
			mutate:  func(s *models.WorkflowState) { s.RetryCount = -1 },
			wantErr: ErrRetryCountNegative,
		},
		{
			name:    "retry count over budget",
			mutate:  func(s *models.WorkflowState) { s.RetryCount = DefaultMaxRetries + 1 },
			wantErr: ErrRetryCountExceeded,
		},
		{
			name: "code without blueprint",
			mutate: func(s *models.WorkflowState) {
				s.Blueprint = nil
			},
			wantErr: ErrArtifactOrder,
		},
		{
			name: "test result without code",
			mutate: func(s *models.WorkflowState) {
				s.GeneratedCode = nil
			},
			wantErr: ErrArtifactOrder,
		},
		{
			name: "round indexes out of order",
			mutate: func(s *models.WorkflowState) {
				s.CollaborationHistory = []models.CollaborationRound{
					{RoundIndex: 2, Outcome: models.RoundOutcomeRepaired},
				}
			},
			wantErr: ErrHistoryOutOfOrder,
		},
		{
			name: "pending round buried in history",
			mutate: func(s *models.WorkflowState) {
				s.CollaborationHistory = []models.CollaborationRound{
					{RoundIndex: 1, Outcome: models.RoundOutcomePending},
					{RoundIndex: 2, Outcome: models.RoundOutcomeRepaired},
				}
				s.RetryCount = 2
			},
			wantErr: ErrDanglingPendingRound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := withTestResult(withCode(withBlueprint(baseState())), false)
			tt.mutate(state)

			err := sup.CheckInvariants(state)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
