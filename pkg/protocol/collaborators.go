// Package protocol defines the contracts between the orchestration engine
// and its external collaborators. The engine never depends on collaborator
// implementations, only on these interfaces.
package protocol

import (
	"context"

	"github.com/scriptflow/scriptflow/pkg/models"
)

// AnalyzeInput is the document analysis request: raw document bytes or a
// textual instruction, plus a platform hint that may be "auto".
type AnalyzeInput struct {
	Document     []byte
	Instruction  string
	PlatformHint models.Platform
	Parameters   map[string]any
}

// DocumentAnalyzer converts a document/instruction input into a blueprint.
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, input AnalyzeInput) (*models.Blueprint, error)
}

// GenerateInput is the code generation request. FixRequest is nil on the
// first pass and set when a collaboration round requests a repair.
type GenerateInput struct {
	Blueprint  *models.Blueprint
	Platform   models.Platform
	FixRequest *models.FixRequest
}

// CodeGenerator produces an automation script from a blueprint, or a
// repaired script when given a fix request.
type CodeGenerator interface {
	GenerateCode(ctx context.Context, input GenerateInput) (*models.GeneratedCode, error)
}

// TestInput is the test execution request.
type TestInput struct {
	Code     *models.GeneratedCode
	Platform models.Platform
}

// TestRunner executes the generated script in an isolated environment and
// reports per-step outcomes. A failed test run is a successful invocation
// carrying Success=false; errors mean the runner itself could not execute.
type TestRunner interface {
	RunTests(ctx context.Context, input TestInput) (*models.TestResult, error)
}

// ReportGenerator renders the final report from the complete task state.
// Reporting has no retry path: any error is terminal for the task.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, state *models.WorkflowState) (*models.FinalReport, error)
}
