// Package collaboration owns the bounded repair negotiation between the
// testing and code generation phases. A round is opened from the latest
// failing test result, the code generator returns a replacement script, and
// the round stays pending until the next testing run resolves it.
package collaboration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/protocol"
)

// ErrNoFailingTestResult indicates a fix was requested without a failing
// test result on the state; the supervisor never routes here in that case.
var ErrNoFailingTestResult = errors.New("collaboration requested without a failing test result")

// Manager drives one fix-request/fix-response cycle per invocation.
type Manager struct {
	generator protocol.CodeGenerator
	timeout   time.Duration
	logger    *slog.Logger
}

func NewManager(generator protocol.CodeGenerator, timeout time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		generator: generator,
		timeout:   timeout,
		logger:    logger.With("module", "collaboration_manager"),
	}
}

// RequestFix runs one to_code_generation round: it builds the fix request
// from the failing steps, invokes the code generator, replaces the
// generated code, appends the round record, and increments the retry count.
// Replacing generated_code here is the only permitted artifact overwrite.
func (m *Manager) RequestFix(ctx context.Context, state *models.WorkflowState) error {
	if state.TestResult == nil || state.TestResult.Success {
		return ErrNoFailingTestResult
	}

	request := buildFixRequest(state.TestResult)

	logger := m.logger.With(
		"task_id", state.TaskID,
		"round_index", len(state.CollaborationHistory)+1,
		"failing_steps", len(request.FailingSteps),
	)
	logger.InfoContext(ctx, "Requesting code fix from generator")

	callCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc

		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	code, err := m.generator.GenerateCode(callCtx, protocol.GenerateInput{
		Blueprint:  state.Blueprint,
		Platform:   state.Blueprint.Platform,
		FixRequest: &request,
	})
	if err != nil {
		return fmt.Errorf("fix request for task %s failed: %w", state.TaskID, err)
	}

	code.Version = state.GeneratedCode.Version + 1

	round := models.CollaborationRound{
		RoundIndex: len(state.CollaborationHistory) + 1,
		Request:    request,
		Response: &models.FixResponse{
			Code:       *code,
			Confidence: code.Confidence,
		},
		Outcome:   models.RoundOutcomePending,
		StartedAt: time.Now().UTC(),
	}

	state.GeneratedCode = code
	state.CollaborationHistory = append(state.CollaborationHistory, round)
	state.RetryCount++
	state.Status = models.TaskStatusCollaborating
	state.CurrentPhase = models.PhaseCodeGeneration

	logger.InfoContext(ctx, "Fix applied, awaiting re-test",
		"retry_count", state.RetryCount,
		"code_version", code.Version,
		"confidence", code.Confidence)

	return nil
}

// ResolveRound closes the newest pending round after a testing run.
func (m *Manager) ResolveRound(state *models.WorkflowState, repaired bool) {
	round := state.PendingRound()
	if round == nil {
		return
	}

	now := time.Now().UTC()
	round.ResolvedAt = &now

	if repaired {
		round.Outcome = models.RoundOutcomeRepaired
	} else {
		round.Outcome = models.RoundOutcomeUnresolved
	}
}

func buildFixRequest(result *models.TestResult) models.FixRequest {
	failing := result.FailingSteps()

	diagnostics := make([]string, 0, len(failing))
	for _, step := range failing {
		diagnostics = append(diagnostics, fmt.Sprintf("step %d (%s): %s", step.Number, step.Action, step.Error))
	}

	return models.FixRequest{
		FailingSteps: failing,
		Diagnostics:  strings.Join(diagnostics, "; "),
		Logs:         result.Logs,
	}
}
