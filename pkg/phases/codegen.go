package phases

import (
	"context"
	"log/slog"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
)

// CodeGenExecutor runs the first-pass code generation phase. Repair passes
// are driven by the collaboration manager, not by this executor.
type CodeGenExecutor struct {
	generator protocol.CodeGenerator
	cfg       Config
	logger    *slog.Logger
}

func NewCodeGenExecutor(generator protocol.CodeGenerator, cfg Config, logger *slog.Logger) *CodeGenExecutor {
	return &CodeGenExecutor{
		generator: generator,
		cfg:       cfg,
		logger:    logger.With("module", "codegen_executor"),
	}
}

func (e *CodeGenExecutor) Phase() models.Phase {
	return models.PhaseCodeGeneration
}

func (e *CodeGenExecutor) Execute(ctx context.Context, state *models.WorkflowState) models.PhaseResult {
	input := protocol.GenerateInput{
		Blueprint: state.Blueprint,
		Platform:  state.Blueprint.Platform,
	}

	code, err := call(ctx, e.cfg, e.logger, func(ctx context.Context) (*models.GeneratedCode, error) {
		return e.generator.GenerateCode(ctx, input)
	})
	if err != nil {
		return classify(models.PhaseCodeGeneration, err, false)
	}

	if code.Version == 0 {
		code.Version = 1
	}

	return models.SuccessResult(models.PhaseCodeGeneration, *code)
}
