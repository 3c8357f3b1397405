package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptflow/scriptflow/pkg/models"
)

func baseState() *models.WorkflowState {
	return models.NewWorkflowState("task-1", models.PlatformWeb, "order a pizza", nil, nil)
}

func withBlueprint(state *models.WorkflowState) *models.WorkflowState {
	state.Blueprint = &models.Blueprint{
		Title:    "Order a pizza",
		Platform: models.PlatformWeb,
		Steps:    []models.BlueprintStep{{Number: 1, Action: "open"}},
	}
	state.CurrentPhase = models.PhaseBlueprint

	return state
}

func withCode(state *models.WorkflowState) *models.WorkflowState {
	state.GeneratedCode = &models.GeneratedCode{Language: "python", Source: "pass", Version: 1}
	state.CurrentPhase = models.PhaseCodeGeneration

	return state
}

func withTestResult(state *models.WorkflowState, success bool) *models.WorkflowState {
	state.TestResult = &models.TestResult{Success: success}
	state.CurrentPhase = models.PhaseTesting

	return state
}

func TestDecide_PhaseOrder(t *testing.T) {
	sup := New(DefaultMaxRetries)

	tests := []struct {
		name  string
		state *models.WorkflowState
		want  models.Phase
	}{
		{
			name:  "fresh task runs blueprint",
			state: baseState(),
			want:  models.PhaseBlueprint,
		},
		{
			name:  "blueprint present runs code generation",
			state: withBlueprint(baseState()),
			want:  models.PhaseCodeGeneration,
		},
		{
			name:  "code present runs testing",
			state: withCode(withBlueprint(baseState())),
			want:  models.PhaseTesting,
		},
		{
			name:  "passing tests run reporting",
			state: withTestResult(withCode(withBlueprint(baseState())), true),
			want:  models.PhaseReporting,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directive := sup.Decide(tt.state)

			require.Equal(t, DirectiveRunPhase, directive.Kind)
			assert.Equal(t, tt.want, directive.Phase)
		})
	}
}

func TestDecide_FailingTestsRequestCollaboration(t *testing.T) {
	sup := New(DefaultMaxRetries)

	state := withTestResult(withCode(withBlueprint(baseState())), false)

	directive := sup.Decide(state)

	require.Equal(t, DirectiveCollaborate, directive.Kind)
	assert.Equal(t, models.DirectionToCodeGeneration, directive.Direction)
}

func TestDecide_RepairedCodeIsRetested(t *testing.T) {
	sup := New(DefaultMaxRetries)

	state := withTestResult(withCode(withBlueprint(baseState())), false)
	// A collaboration round just replaced the code: the repair loop
	// alternates back to testing instead of requesting another fix.
	state.RetryCount = 1
	state.CurrentPhase = models.PhaseCodeGeneration
	state.Status = models.TaskStatusCollaborating

	directive := sup.Decide(state)

	require.Equal(t, DirectiveRunPhase, directive.Kind)
	assert.Equal(t, models.PhaseTesting, directive.Phase)
}

func TestDecide_FinalRoundFixIsRetested(t *testing.T) {
	sup := New(DefaultMaxRetries)

	// The last permitted round just replaced the code. Its fix must still
	// be re-tested before the task is given up on.
	state := withTestResult(withCode(withBlueprint(baseState())), false)
	state.RetryCount = DefaultMaxRetries
	state.CurrentPhase = models.PhaseCodeGeneration
	state.Status = models.TaskStatusCollaborating

	directive := sup.Decide(state)

	require.Equal(t, DirectiveRunPhase, directive.Kind)
	assert.Equal(t, models.PhaseTesting, directive.Phase)
}

func TestDecide_ExhaustedBudgetRunsReporting(t *testing.T) {
	sup := New(DefaultMaxRetries)

	state := withTestResult(withCode(withBlueprint(baseState())), false)
	state.RetryCount = DefaultMaxRetries

	directive := sup.Decide(state)

	require.Equal(t, DirectiveRunPhase, directive.Kind)
	assert.Equal(t, models.PhaseReporting, directive.Phase)
}

func TestDecide_FatalFailureRoutesThroughReporting(t *testing.T) {
	sup := New(DefaultMaxRetries)

	state := withBlueprint(baseState())
	state.Failure = &models.FailureRecord{Phase: models.PhaseCodeGeneration, Cause: "unsupported construct"}

	directive := sup.Decide(state)

	require.Equal(t, DirectiveRunPhase, directive.Kind)
	assert.Equal(t, models.PhaseReporting, directive.Phase)
}

func TestDecide_ReportingFailureTerminates(t *testing.T) {
	sup := New(DefaultMaxRetries)

	state := withTestResult(withCode(withBlueprint(baseState())), true)
	state.Failure = &models.FailureRecord{Phase: models.PhaseReporting, Cause: "render failed"}

	directive := sup.Decide(state)

	require.Equal(t, DirectiveTerminate, directive.Kind)
	assert.Equal(t, VerdictFailure, directive.Verdict)
}

func TestDecide_ReportPresentTerminates(t *testing.T) {
	sup := New(DefaultMaxRetries)

	t.Run("successful run", func(t *testing.T) {
		state := withTestResult(withCode(withBlueprint(baseState())), true)
		state.FinalReport = &models.FinalReport{Success: true}

		directive := sup.Decide(state)

		require.Equal(t, DirectiveTerminate, directive.Kind)
		assert.Equal(t, VerdictSuccess, directive.Verdict)
	})

	t.Run("failed run still terminates after reporting", func(t *testing.T) {
		state := withTestResult(withCode(withBlueprint(baseState())), false)
		state.RetryCount = DefaultMaxRetries
		state.FinalReport = &models.FinalReport{Success: false}

		directive := sup.Decide(state)

		require.Equal(t, DirectiveTerminate, directive.Kind)
		assert.Equal(t, VerdictFailure, directive.Verdict)
	})
}

func TestDecide_TerminalStatusesAreStable(t *testing.T) {
	sup := New(DefaultMaxRetries)

	tests := []struct {
		status models.TaskStatus
		want   Verdict
	}{
		{models.TaskStatusSucceeded, VerdictSuccess},
		{models.TaskStatusFailed, VerdictFailure},
		{models.TaskStatusAborted, VerdictFailure},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			state := baseState()
			state.Status = tt.status

			directive := sup.Decide(state)

			require.Equal(t, DirectiveTerminate, directive.Kind)
			assert.Equal(t, tt.want, directive.Verdict)
		})
	}
}

// Decide must return the same directive when re-evaluated on the same
// state, since recovery re-runs the decision on a restored snapshot.
func TestDecide_Deterministic(t *testing.T) {
	sup := New(DefaultMaxRetries)

	states := []*models.WorkflowState{
		baseState(),
		withBlueprint(baseState()),
		withCode(withBlueprint(baseState())),
		withTestResult(withCode(withBlueprint(baseState())), false),
	}

	for _, state := range states {
		first := sup.Decide(state)
		second := sup.Decide(state)

		assert.Equal(t, first, second)
	}
}
