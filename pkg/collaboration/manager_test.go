package collaboration

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scriptflow/scriptflow/pkg/mocks"
	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
)

func failingState() *models.WorkflowState {
	state := models.NewWorkflowState("task-1", models.PlatformWeb, "order a pizza", nil, nil)
	state.Blueprint = &models.Blueprint{
		Title:    "Order a pizza",
		Platform: models.PlatformWeb,
		Steps:    []models.BlueprintStep{{Number: 1, Action: "open"}},
	}
	state.GeneratedCode = &models.GeneratedCode{Language: "python", Source: "pass", Version: 1}
	state.TestResult = &models.TestResult{
		Success: false,
		Steps: []models.TestStep{
			{Number: 1, Action: "open", Success: true},
			{Number: 2, Action: "click", Success: false, Error: "element not found"},
		},
		Logs: []string{"session started"},
	}
	state.CurrentPhase = models.PhaseTesting
	state.Status = models.TaskStatusRunning

	return state
}

func TestManager_RequestFix(t *testing.T) {
	generator := &mocks.MockCodeGenerator{}
	manager := NewManager(generator, time.Minute, slog.Default())

	state := failingState()

	repaired := &models.GeneratedCode{Language: "python", Source: "fixed", Confidence: 0.8}
	generator.On("GenerateCode", mock.Anything, mock.MatchedBy(func(input protocol.GenerateInput) bool {
		return input.FixRequest != nil &&
			len(input.FixRequest.FailingSteps) == 1 &&
			input.FixRequest.FailingSteps[0].Number == 2
	})).Return(repaired, nil)

	err := manager.RequestFix(t.Context(), state)
	require.NoError(t, err)

	// Code replaced with a bumped version.
	assert.Equal(t, "fixed", state.GeneratedCode.Source)
	assert.Equal(t, 2, state.GeneratedCode.Version)

	// Round appended, pending resolution by the next testing run.
	require.Len(t, state.CollaborationHistory, 1)
	round := state.CollaborationHistory[0]
	assert.Equal(t, 1, round.RoundIndex)
	assert.Equal(t, models.RoundOutcomePending, round.Outcome)
	assert.Contains(t, round.Request.Diagnostics, "element not found")
	assert.Equal(t, []string{"session started"}, round.Request.Logs)

	assert.Equal(t, 1, state.RetryCount)
	assert.Equal(t, models.TaskStatusCollaborating, state.Status)
	assert.Equal(t, models.PhaseCodeGeneration, state.CurrentPhase)

	generator.AssertExpectations(t)
}

func TestManager_RequestFix_GeneratorError(t *testing.T) {
	generator := &mocks.MockCodeGenerator{}
	manager := NewManager(generator, time.Minute, slog.Default())

	state := failingState()

	generator.On("GenerateCode", mock.Anything, mock.Anything).
		Return(nil, errors.New("model unavailable"))

	err := manager.RequestFix(t.Context(), state)
	require.Error(t, err)

	// State untouched on failure.
	assert.Equal(t, "pass", state.GeneratedCode.Source)
	assert.Empty(t, state.CollaborationHistory)
	assert.Equal(t, 0, state.RetryCount)
}

func TestManager_RequestFix_RequiresFailingResult(t *testing.T) {
	manager := NewManager(&mocks.MockCodeGenerator{}, time.Minute, slog.Default())

	state := failingState()
	state.TestResult.Success = true

	err := manager.RequestFix(t.Context(), state)
	assert.ErrorIs(t, err, ErrNoFailingTestResult)

	state.TestResult = nil

	err = manager.RequestFix(t.Context(), state)
	assert.ErrorIs(t, err, ErrNoFailingTestResult)
}

func TestManager_ResolveRound(t *testing.T) {
	manager := NewManager(&mocks.MockCodeGenerator{}, time.Minute, slog.Default())

	t.Run("repaired", func(t *testing.T) {
		state := failingState()
		state.CollaborationHistory = []models.CollaborationRound{
			{RoundIndex: 1, Outcome: models.RoundOutcomePending},
		}

		manager.ResolveRound(state, true)

		round := state.CollaborationHistory[0]
		assert.Equal(t, models.RoundOutcomeRepaired, round.Outcome)
		require.NotNil(t, round.ResolvedAt)
	})

	t.Run("unresolved", func(t *testing.T) {
		state := failingState()
		state.CollaborationHistory = []models.CollaborationRound{
			{RoundIndex: 1, Outcome: models.RoundOutcomePending},
		}

		manager.ResolveRound(state, false)

		assert.Equal(t, models.RoundOutcomeUnresolved, state.CollaborationHistory[0].Outcome)
	})

	t.Run("no pending round is a no-op", func(t *testing.T) {
		state := failingState()

		manager.ResolveRound(state, true)

		assert.Empty(t, state.CollaborationHistory)
	})
}
