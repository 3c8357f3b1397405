// Package events defines event types for task lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/scriptflow/scriptflow/pkg/models"
)

type EventType string

// Kafka topic carrying all task lifecycle events.
const Topic = "scriptflow.tasks"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Caller-originated requests.
	TaskSubmittedEvent       EventType = "task.submitted"
	TaskResumeRequestedEvent EventType = "task.resume.requested"
	TaskCancelRequestedEvent EventType = "task.cancel.requested"

	// Engine-originated progress notifications.
	PhaseCompletedEvent             EventType = "task.phase.completed"
	CollaborationRoundRecordedEvent EventType = "task.collaboration.recorded"
	TaskFinishedEvent               EventType = "task.finished"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	TaskID    string         `json:"task_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, taskID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		TaskID:    taskID,
	}
}

type TaskSubmitted struct {
	BaseEvent

	Platform models.Platform `json:"platform"`
}

func (t TaskSubmitted) GetType() EventType {
	return TaskSubmittedEvent
}

type TaskResumeRequested struct {
	BaseEvent
}

func (t TaskResumeRequested) GetType() EventType {
	return TaskResumeRequestedEvent
}

type TaskCancelRequested struct {
	BaseEvent

	Reason string `json:"reason,omitempty"`
}

func (t TaskCancelRequested) GetType() EventType {
	return TaskCancelRequestedEvent
}

type PhaseCompleted struct {
	BaseEvent

	Phase   models.Phase   `json:"phase"`
	Outcome models.Outcome `json:"outcome"`
	Cause   string         `json:"cause,omitempty"`
	Seq     uint64         `json:"checkpoint_seq"`
}

func (p PhaseCompleted) GetType() EventType {
	return PhaseCompletedEvent
}

type CollaborationRoundRecorded struct {
	BaseEvent

	RoundIndex int     `json:"round_index"`
	RetryCount int     `json:"retry_count"`
	Confidence float64 `json:"confidence"`
}

func (c CollaborationRoundRecorded) GetType() EventType {
	return CollaborationRoundRecordedEvent
}

type TaskFinished struct {
	BaseEvent

	Status     models.TaskStatus `json:"status"`
	RetryCount int               `json:"retry_count"`
	Duration   time.Duration     `json:"duration"`
}

func (t TaskFinished) GetType() EventType {
	return TaskFinishedEvent
}
