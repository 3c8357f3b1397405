// Package web provides HTTP handlers and request types for the task API.
package web

// SubmitTaskRequest is the request body for admitting a new task. Either an
// instruction or a document (base64 in JSON) must be present.
type SubmitTaskRequest struct {
	TaskID      string         `json:"task_id,omitempty"`
	Platform    string         `json:"platform"              validate:"required,oneof=mobile web auto"`
	Instruction string         `json:"instruction,omitempty" validate:"required_without=Document"`
	Document    []byte         `json:"document,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// CancelTaskRequest is the optional request body for cancelling a task.
type CancelTaskRequest struct {
	Reason string `json:"reason,omitempty"`
}
