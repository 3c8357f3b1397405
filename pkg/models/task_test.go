package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatus_Terminal(t *testing.T) {
	assert.True(t, TaskStatusSucceeded.Terminal())
	assert.True(t, TaskStatusFailed.Terminal())
	assert.True(t, TaskStatusAborted.Terminal())

	assert.False(t, TaskStatusInitiated.Terminal())
	assert.False(t, TaskStatusRunning.Terminal())
	assert.False(t, TaskStatusCollaborating.Terminal())
}

func TestNewWorkflowState(t *testing.T) {
	state := NewWorkflowState("task-1", PlatformAuto, "order a pizza", []byte("doc"), map[string]any{"env": "test"})

	assert.Equal(t, "task-1", state.TaskID)
	assert.Equal(t, PlatformAuto, state.Platform)
	assert.Equal(t, TaskStatusInitiated, state.Status)
	assert.Equal(t, 0, state.RetryCount)
	assert.False(t, state.CreatedAt.IsZero())
	assert.Equal(t, state.CreatedAt, state.UpdatedAt)
}

func TestWorkflowState_PendingRound(t *testing.T) {
	state := NewWorkflowState("task-1", PlatformWeb, "order a pizza", nil, nil)

	assert.Nil(t, state.PendingRound())

	state.CollaborationHistory = []CollaborationRound{
		{RoundIndex: 1, Outcome: RoundOutcomeUnresolved},
		{RoundIndex: 2, Outcome: RoundOutcomePending},
	}

	round := state.PendingRound()
	require.NotNil(t, round)
	assert.Equal(t, 2, round.RoundIndex)

	// Mutating through the pointer updates the history in place.
	round.Outcome = RoundOutcomeRepaired
	assert.Equal(t, RoundOutcomeRepaired, state.CollaborationHistory[1].Outcome)
	assert.Nil(t, state.PendingRound())
}

func TestTestResult_FailingSteps(t *testing.T) {
	result := TestResult{
		Steps: []TestStep{
			{Number: 1, Success: true},
			{Number: 2, Success: false, Error: "element not found"},
			{Number: 3, Success: false, Error: "timeout"},
		},
	}

	failing := result.FailingSteps()
	require.Len(t, failing, 2)
	assert.Equal(t, 2, failing[0].Number)
	assert.Equal(t, 3, failing[1].Number)
}

func TestWorkflowState_View_OmitsDocument(t *testing.T) {
	state := NewWorkflowState("task-1", PlatformWeb, "order a pizza", []byte("big document"), nil)
	state.CheckpointSeq = 4

	view := state.View()

	assert.Equal(t, "task-1", view.TaskID)
	assert.Equal(t, uint64(4), view.CheckpointSeq)
}
