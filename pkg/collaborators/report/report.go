// Package report implements the reporting collaborator locally: the final
// report is a pure projection of the workflow state, so no remote service
// is involved.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/scriptflow/scriptflow/pkg/models"
)

// Generator builds the final report from the complete task state. It
// produces a report for failed tasks too, naming the phase that failed.
type Generator struct{}

// NewGenerator creates a report generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateReport implements protocol.ReportGenerator.
func (g *Generator) GenerateReport(_ context.Context, state *models.WorkflowState) (*models.FinalReport, error) {
	if state == nil {
		return nil, fmt.Errorf("nil workflow state")
	}

	report := &models.FinalReport{
		Success:     state.Failure == nil && state.TestResult != nil && state.TestResult.Success,
		PhaseTrail:  phaseTrail(state),
		RetryCount:  state.RetryCount,
		Details:     details(state),
		GeneratedAt: time.Now().UTC(),
	}

	switch {
	case state.Failure != nil:
		report.FailedPhase = state.Failure.Phase
		report.Summary = fmt.Sprintf("Task %s failed during %s: %s", state.TaskID, state.Failure.Phase, state.Failure.Cause)
	case report.Success:
		report.Summary = fmt.Sprintf("Task %s completed: %d steps passed after %d repair round(s)",
			state.TaskID, len(state.TestResult.Steps), state.RetryCount)
	default:
		report.FailedPhase = models.PhaseTesting
		report.Summary = fmt.Sprintf("Task %s exhausted its repair budget with %d failing step(s)",
			state.TaskID, failingCount(state))
	}

	return report, nil
}

func phaseTrail(state *models.WorkflowState) []models.Phase {
	trail := make([]models.Phase, 0, 4)

	if state.Blueprint != nil {
		trail = append(trail, models.PhaseBlueprint)
	}

	if state.GeneratedCode != nil {
		trail = append(trail, models.PhaseCodeGeneration)
	}

	if state.TestResult != nil {
		trail = append(trail, models.PhaseTesting)
	}

	trail = append(trail, models.PhaseReporting)

	return trail
}

func details(state *models.WorkflowState) map[string]any {
	d := map[string]any{
		"platform":             state.Platform,
		"collaboration_rounds": len(state.CollaborationHistory),
	}

	if state.Blueprint != nil {
		d["blueprint_title"] = state.Blueprint.Title
		d["blueprint_steps"] = len(state.Blueprint.Steps)
	}

	if state.GeneratedCode != nil {
		d["code_language"] = state.GeneratedCode.Language
		d["code_version"] = state.GeneratedCode.Version
	}

	if state.TestResult != nil {
		d["tests_passed"] = len(state.TestResult.Steps) - failingCount(state)
		d["tests_failed"] = failingCount(state)
	}

	return d
}

func failingCount(state *models.WorkflowState) int {
	if state.TestResult == nil {
		return 0
	}

	return len(state.TestResult.FailingSteps())
}
