package phases

import (
	"context"
	"log/slog"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
)

// ReportingExecutor renders the final report from the full task state. It
// runs for failed tasks too, so the failure trail is preserved; reporting
// failures themselves have no retry path.
type ReportingExecutor struct {
	reporter protocol.ReportGenerator
	cfg      Config
	logger   *slog.Logger
}

func NewReportingExecutor(reporter protocol.ReportGenerator, cfg Config, logger *slog.Logger) *ReportingExecutor {
	return &ReportingExecutor{
		reporter: reporter,
		cfg:      cfg,
		logger:   logger.With("module", "reporting_executor"),
	}
}

func (e *ReportingExecutor) Phase() models.Phase {
	return models.PhaseReporting
}

func (e *ReportingExecutor) Execute(ctx context.Context, state *models.WorkflowState) models.PhaseResult {
	report, err := call(ctx, e.cfg, e.logger, func(ctx context.Context) (*models.FinalReport, error) {
		return e.reporter.GenerateReport(ctx, state)
	})
	if err != nil {
		return models.FatalFailureResult(models.PhaseReporting, err.Error())
	}

	return models.SuccessResult(models.PhaseReporting, *report)
}
