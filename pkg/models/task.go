// Package models defines the core domain models for document-to-automation task orchestration.
package models

import "time"

// Platform identifies the automation target resolved for a task.
type Platform string

const (
	PlatformMobile Platform = "mobile"
	PlatformWeb    Platform = "web"
	PlatformAuto   Platform = "auto" // Resolved to mobile or web by the blueprint phase
)

// Phase is one of the four ordered processing stages of a task.
type Phase string

const (
	PhaseBlueprint      Phase = "blueprint"
	PhaseCodeGeneration Phase = "code_generation"
	PhaseTesting        Phase = "testing"
	PhaseReporting      Phase = "reporting"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusInitiated     TaskStatus = "initiated"
	TaskStatusRunning       TaskStatus = "running"
	TaskStatusCollaborating TaskStatus = "collaborating"
	TaskStatusSucceeded     TaskStatus = "succeeded"
	TaskStatusFailed        TaskStatus = "failed"
	TaskStatusAborted       TaskStatus = "aborted"
)

// Terminal reports whether no further phases may run for this status.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusSucceeded || s == TaskStatusFailed || s == TaskStatusAborted
}

// FailureRecord captures a fatal (or retry-exhausted transient) phase failure
// so the supervisor can route the task to reporting before terminating.
type FailureRecord struct {
	Phase      Phase     `json:"phase"`
	Cause      string    `json:"cause"`
	Transient  bool      `json:"transient"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WorkflowState is the durable record of one task's progress. It is owned
// exclusively by the engine instance driving the task (single writer) and is
// the only coordination point between phases.
type WorkflowState struct {
	TaskID   string   `json:"task_id"  validate:"required"`
	Platform Platform `json:"platform" validate:"required,oneof=mobile web auto"`

	// Task inputs, immutable after admission.
	Instruction string         `json:"instruction,omitempty"`
	Document    []byte         `json:"document,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`

	// Phase artifacts. Each is set once by its phase's successful completion;
	// GeneratedCode may additionally be replaced by a collaboration fix, and
	// TestResult is replaced on every testing run of the repair loop.
	Blueprint     *Blueprint     `json:"blueprint,omitempty"`
	GeneratedCode *GeneratedCode `json:"generated_code,omitempty"`
	TestResult    *TestResult    `json:"test_result,omitempty"`
	FinalReport   *FinalReport   `json:"final_report,omitempty"`

	CollaborationHistory []CollaborationRound `json:"collaboration_history,omitempty"`
	RetryCount           int                  `json:"retry_count"   validate:"gte=0"`
	CurrentPhase         Phase                `json:"current_phase,omitempty"`
	Status               TaskStatus           `json:"status"        validate:"required"`
	CheckpointSeq        uint64               `json:"checkpoint_seq"`
	Failure              *FailureRecord       `json:"failure,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWorkflowState creates the state record for a newly admitted task.
func NewWorkflowState(taskID string, platform Platform, instruction string, document []byte, parameters map[string]any) *WorkflowState {
	now := time.Now().UTC()

	return &WorkflowState{
		TaskID:      taskID,
		Platform:    platform,
		Instruction: instruction,
		Document:    document,
		Parameters:  parameters,
		Status:      TaskStatusInitiated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// PendingRound returns the newest collaboration round if its outcome has not
// been resolved by a subsequent testing run, or nil.
func (s *WorkflowState) PendingRound() *CollaborationRound {
	if len(s.CollaborationHistory) == 0 {
		return nil
	}

	last := &s.CollaborationHistory[len(s.CollaborationHistory)-1]
	if last.Outcome != RoundOutcomePending {
		return nil
	}

	return last
}
