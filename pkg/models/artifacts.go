package models

import "time"

// ArtifactKind discriminates the artifact carried by a PhaseResult.
type ArtifactKind string

const (
	ArtifactBlueprint     ArtifactKind = "blueprint"
	ArtifactGeneratedCode ArtifactKind = "generated_code"
	ArtifactTestResult    ArtifactKind = "test_result"
	ArtifactFinalReport   ArtifactKind = "final_report"
)

// Artifact is implemented by every phase output type.
type Artifact interface {
	Kind() ArtifactKind
}

// BlueprintStep is one ordered step of the automation blueprint.
type BlueprintStep struct {
	Number   int            `json:"number"           validate:"gte=1"`
	Action   string         `json:"action"           validate:"required"`
	Target   map[string]any `json:"target,omitempty"`
	Input    string         `json:"input,omitempty"`
	Expected string         `json:"expected,omitempty"`
}

// Blueprint is the structured automation plan extracted from the input document.
type Blueprint struct {
	Title    string          `json:"title"    validate:"required"`
	Platform Platform        `json:"platform" validate:"required,oneof=mobile web"`
	Steps    []BlueprintStep `json:"steps"    validate:"required,min=1,dive"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

func (b Blueprint) Kind() ArtifactKind { return ArtifactBlueprint }

// GeneratedCode is the automation script produced by the code generation
// phase, or by a collaboration fix replacing an earlier version.
type GeneratedCode struct {
	Language   string  `json:"language" validate:"required"`
	Source     string  `json:"source"   validate:"required"`
	Version    int     `json:"version"  validate:"gte=1"`
	Confidence float64 `json:"confidence,omitempty"`
}

func (g GeneratedCode) Kind() ArtifactKind { return ArtifactGeneratedCode }

// TestStep is the outcome of executing one blueprint step during testing.
type TestStep struct {
	Number   int           `json:"number"`
	Action   string        `json:"action"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// TestResult is the testing phase output: per-step results plus logs.
type TestResult struct {
	Success bool       `json:"success"`
	Steps   []TestStep `json:"steps,omitempty"`
	Logs    []string   `json:"logs,omitempty"`
}

func (t TestResult) Kind() ArtifactKind { return ArtifactTestResult }

// FailingSteps returns the steps that did not succeed.
func (t TestResult) FailingSteps() []TestStep {
	failing := make([]TestStep, 0)

	for _, step := range t.Steps {
		if !step.Success {
			failing = append(failing, step)
		}
	}

	return failing
}

// FinalReport is the reporting phase output summarizing the task run. It is
// produced even for failed tasks to preserve traceability.
type FinalReport struct {
	Success     bool           `json:"success"`
	Summary     string         `json:"summary"`
	FailedPhase Phase          `json:"failed_phase,omitempty"`
	PhaseTrail  []Phase        `json:"phase_trail,omitempty"`
	RetryCount  int            `json:"retry_count"`
	Details     map[string]any `json:"details,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

func (f FinalReport) Kind() ArtifactKind { return ArtifactFinalReport }
