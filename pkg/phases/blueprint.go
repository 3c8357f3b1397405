package phases

import (
	"context"
	"log/slog"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
	"github.com/scriptflow/scriptflow/pkg/schema"
)

// BlueprintExecutor runs the document analysis phase. Analyzer output is
// schema-checked before it enters the state, and an "auto" platform hint is
// resolved to the platform the blueprint detected.
type BlueprintExecutor struct {
	analyzer  protocol.DocumentAnalyzer
	validator *schema.BlueprintValidator
	cfg       Config
	logger    *slog.Logger
}

func NewBlueprintExecutor(analyzer protocol.DocumentAnalyzer, validator *schema.BlueprintValidator, cfg Config, logger *slog.Logger) *BlueprintExecutor {
	return &BlueprintExecutor{
		analyzer:  analyzer,
		validator: validator,
		cfg:       cfg,
		logger:    logger.With("module", "blueprint_executor"),
	}
}

func (e *BlueprintExecutor) Phase() models.Phase {
	return models.PhaseBlueprint
}

func (e *BlueprintExecutor) Execute(ctx context.Context, state *models.WorkflowState) models.PhaseResult {
	input := protocol.AnalyzeInput{
		Document:     state.Document,
		Instruction:  state.Instruction,
		PlatformHint: state.Platform,
		Parameters:   state.Parameters,
	}

	blueprint, err := call(ctx, e.cfg, e.logger, func(ctx context.Context) (*models.Blueprint, error) {
		return e.analyzer.AnalyzeDocument(ctx, input)
	})
	if err != nil {
		return classify(models.PhaseBlueprint, err, false)
	}

	if err := e.validator.Validate(blueprint); err != nil {
		return models.FatalFailureResult(models.PhaseBlueprint, err.Error())
	}

	return models.SuccessResult(models.PhaseBlueprint, *blueprint)
}
