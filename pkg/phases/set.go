package phases

import (
	"log/slog"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
	"github.com/scriptflow/scriptflow/pkg/schema"
)

// Set is the closed executor set keyed by phase. No open-ended plugin
// discovery exists: the four variants are the whole pipeline.
type Set map[models.Phase]Executor

// NewSet wires the four collaborators into their phase executors.
func NewSet(
	analyzer protocol.DocumentAnalyzer,
	generator protocol.CodeGenerator,
	runner protocol.TestRunner,
	reporter protocol.ReportGenerator,
	cfg Config,
	logger *slog.Logger,
) (Set, error) {
	validator, err := schema.NewBlueprintValidator()
	if err != nil {
		return nil, err
	}

	return Set{
		models.PhaseBlueprint:      NewBlueprintExecutor(analyzer, validator, cfg, logger),
		models.PhaseCodeGeneration: NewCodeGenExecutor(generator, cfg, logger),
		models.PhaseTesting:        NewTestingExecutor(runner, cfg, logger),
		models.PhaseReporting:      NewReportingExecutor(reporter, cfg, logger),
	}, nil
}
