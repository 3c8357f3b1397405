package phases

import (
	"context"
	"log/slog"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
)

// TestingExecutor runs the generated script through the external test
// runner. Testing is inherently retryable: a timed-out run that cannot be
// confirmed as rolled back still yields a transient result so the decision
// table stays total.
type TestingExecutor struct {
	runner protocol.TestRunner
	cfg    Config
	logger *slog.Logger
}

func NewTestingExecutor(runner protocol.TestRunner, cfg Config, logger *slog.Logger) *TestingExecutor {
	return &TestingExecutor{
		runner: runner,
		cfg:    cfg,
		logger: logger.With("module", "testing_executor"),
	}
}

func (e *TestingExecutor) Phase() models.Phase {
	return models.PhaseTesting
}

func (e *TestingExecutor) Execute(ctx context.Context, state *models.WorkflowState) models.PhaseResult {
	input := protocol.TestInput{
		Code:     state.GeneratedCode,
		Platform: state.Blueprint.Platform,
	}

	result, err := call(ctx, e.cfg, e.logger, func(ctx context.Context) (*models.TestResult, error) {
		return e.runner.RunTests(ctx, input)
	})
	if err != nil {
		return classify(models.PhaseTesting, err, true)
	}

	return models.SuccessResult(models.PhaseTesting, *result)
}
