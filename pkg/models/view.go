package models

import "time"

// TaskView is the read-only projection of a WorkflowState returned to
// callers of the status operation. Raw document bytes are omitted.
type TaskView struct {
	TaskID        string               `json:"task_id"`
	Platform      Platform             `json:"platform"`
	Status        TaskStatus           `json:"status"`
	CurrentPhase  Phase                `json:"current_phase,omitempty"`
	RetryCount    int                  `json:"retry_count"`
	CheckpointSeq uint64               `json:"checkpoint_seq"`
	Blueprint     *Blueprint           `json:"blueprint,omitempty"`
	GeneratedCode *GeneratedCode       `json:"generated_code,omitempty"`
	TestResult    *TestResult          `json:"test_result,omitempty"`
	FinalReport   *FinalReport         `json:"final_report,omitempty"`
	Rounds        []CollaborationRound `json:"collaboration_history,omitempty"`
	Failure       *FailureRecord       `json:"failure,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// View builds the caller-facing projection of the state.
func (s *WorkflowState) View() *TaskView {
	return &TaskView{
		TaskID:        s.TaskID,
		Platform:      s.Platform,
		Status:        s.Status,
		CurrentPhase:  s.CurrentPhase,
		RetryCount:    s.RetryCount,
		CheckpointSeq: s.CheckpointSeq,
		Blueprint:     s.Blueprint,
		GeneratedCode: s.GeneratedCode,
		TestResult:    s.TestResult,
		FinalReport:   s.FinalReport,
		Rounds:        s.CollaborationHistory,
		Failure:       s.Failure,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}
