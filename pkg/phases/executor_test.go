package phases

import (
	"context"
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

func testConfig() Config {
	return Config{
		Timeout:     time.Second,
		MaxAttempts: 2,
		RetryDelay:  time.Millisecond,
	}
}

func stateWithInputs() *models.WorkflowState {
	state := models.NewWorkflowState("task-1", models.PlatformWeb, "order a pizza", nil, nil)
	state.Blueprint = &models.Blueprint{
		Title:    "Order a pizza",
		Platform: models.PlatformWeb,
		Steps:    []models.BlueprintStep{{Number: 1, Action: "open"}},
	}
	state.GeneratedCode = &models.GeneratedCode{Language: "python", Source: "pass", Version: 1}

	return state
}

func TestCall_RetriesTransientErrors(t *testing.T) {
	calls := 0

	result, err := call(t.Context(), testConfig(), slog.Default(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", protocol.Transient(errors.New("connection reset"))
		}

		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}

func TestCall_FatalErrorIsNotRetried(t *testing.T) {
	calls := 0

	_, err := call(t.Context(), testConfig(), slog.Default(), func(ctx context.Context) (string, error) {
		calls++

		return "", errors.New("unsupported construct")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCall_TimeoutBecomesTransient(t *testing.T) {
	cfg := Config{Timeout: 10 * time.Millisecond, MaxAttempts: 1}

	_, err := call(t.Context(), cfg, slog.Default(), func(ctx context.Context) (string, error) {
		<-ctx.Done()

		return "", ctx.Err()
	})

	require.Error(t, err)
	assert.True(t, protocol.IsTransient(err))
}

func TestBlueprintExecutor_Success(t *testing.T) {
	analyzer := &mocks.MockDocumentAnalyzer{}
	blueprint := &models.Blueprint{
		Title:    "Order a pizza",
		Platform: models.PlatformWeb,
		Steps:    []models.BlueprintStep{{Number: 1, Action: "open"}},
	}
	analyzer.On("AnalyzeDocument", mock.Anything, mock.Anything).Return(blueprint, nil)

	executors, err := NewSet(analyzer, &mocks.MockCodeGenerator{}, &mocks.MockTestRunner{}, &mocks.MockReportGenerator{}, testConfig(), slog.Default())
	require.NoError(t, err)

	result := executors[models.PhaseBlueprint].Execute(t.Context(), stateWithInputs())

	require.Equal(t, models.OutcomeSuccess, result.Outcome)
	artifact, ok := result.Artifact.(models.Blueprint)
	require.True(t, ok)
	assert.Equal(t, "Order a pizza", artifact.Title)
}

func TestBlueprintExecutor_SchemaViolationIsFatal(t *testing.T) {
	analyzer := &mocks.MockDocumentAnalyzer{}
	// No steps: violates the blueprint schema.
	analyzer.On("AnalyzeDocument", mock.Anything, mock.Anything).
		Return(&models.Blueprint{Title: "Empty", Platform: models.PlatformWeb}, nil)

	executors, err := NewSet(analyzer, &mocks.MockCodeGenerator{}, &mocks.MockTestRunner{}, &mocks.MockReportGenerator{}, testConfig(), slog.Default())
	require.NoError(t, err)

	result := executors[models.PhaseBlueprint].Execute(t.Context(), stateWithInputs())

	assert.Equal(t, models.OutcomeFatalFailure, result.Outcome)
	assert.NotEmpty(t, result.Cause)
}

func TestTestingExecutor_TransientFailureStaysTransient(t *testing.T) {
	runner := &mocks.MockTestRunner{}
	runner.On("RunTests", mock.Anything, mock.Anything).
		Return(nil, protocol.Transient(errors.New("device session dropped")))

	executor := NewTestingExecutor(runner, testConfig(), slog.Default())

	result := executor.Execute(t.Context(), stateWithInputs())

	assert.Equal(t, models.OutcomeTransientFailure, result.Outcome)
	assert.Equal(t, models.PhaseTesting, result.Phase)
}

func TestCodeGenExecutor_TransientExhaustionIsFatal(t *testing.T) {
	generator := &mocks.MockCodeGenerator{}
	generator.On("GenerateCode", mock.Anything, mock.Anything).
		Return(nil, protocol.Transient(errors.New("model overloaded")))

	executor := NewCodeGenExecutor(generator, testConfig(), slog.Default())

	result := executor.Execute(t.Context(), stateWithInputs())

	// Only testing keeps transient classification after local retries.
	assert.Equal(t, models.OutcomeFatalFailure, result.Outcome)
	generator.AssertNumberOfCalls(t, "GenerateCode", 2)
}

func TestTestingExecutor_FailingRunIsStillSuccess(t *testing.T) {
	runner := &mocks.MockTestRunner{}
	runner.On("RunTests", mock.Anything, mock.Anything).Return(&models.TestResult{
		Success: false,
		Steps:   []models.TestStep{{Number: 1, Action: "open", Success: false, Error: "timeout"}},
	}, nil)

	executor := NewTestingExecutor(runner, testConfig(), slog.Default())

	result := executor.Execute(t.Context(), stateWithInputs())

	// A completed run with failing steps is a successful invocation; the
	// supervisor reads Success from the artifact, not the outcome.
	require.Equal(t, models.OutcomeSuccess, result.Outcome)
	artifact, ok := result.Artifact.(models.TestResult)
	require.True(t, ok)
	assert.False(t, artifact.Success)
}

func TestReportingExecutor_ErrorIsFatal(t *testing.T) {
	reporter := &mocks.MockReportGenerator{}
	reporter.On("GenerateReport", mock.Anything, mock.Anything).
		Return(nil, errors.New("render failed"))

	executor := NewReportingExecutor(reporter, testConfig(), slog.Default())

	result := executor.Execute(t.Context(), stateWithInputs())

	assert.Equal(t, models.OutcomeFatalFailure, result.Outcome)
	assert.Equal(t, models.PhaseReporting, result.Phase)
}
