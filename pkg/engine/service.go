package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/scriptflow/scriptflow/pkg/checkpoint"
	"github.com/scriptflow/scriptflow/pkg/eventbus"
	"github.com/scriptflow/scriptflow/pkg/events"
	"github.com/scriptflow/scriptflow/pkg/models"
	"github.com/scriptflow/scriptflow/pkg/supervisor"
)

// SubmitRequest admits a new task. Either an instruction or a document is
// required; the platform may be "auto" and is resolved by the blueprint
// phase.
type SubmitRequest struct {
	TaskID      string          `json:"task_id,omitempty"`
	Platform    models.Platform `json:"platform"    validate:"required,oneof=mobile web auto"`
	Instruction string          `json:"instruction" validate:"required_without=Document"`
	Document    []byte          `json:"document,omitempty"`
	Parameters  map[string]any  `json:"parameters,omitempty"`
}

// Service is the caller-facing surface of the engine: submit, resume,
// cancel, and status. It also keeps the per-process registry of in-flight
// tasks so each task has exactly one driving engine and a cancel handle.
type Service struct {
	store      checkpoint.Store
	bus        eventbus.EventBus
	engine     *Engine
	supervisor *supervisor.Supervisor
	validate   *validator.Validate
	logger     *slog.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// NewService creates an engine service. The engine may be nil for
// submit/status-only surfaces (the API server); Resume then returns
// ErrEngineUnavailable and execution happens in a worker process instead.
func NewService(
	store checkpoint.Store,
	bus eventbus.EventBus,
	eng *Engine,
	sup *supervisor.Supervisor,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:      store,
		bus:        bus,
		engine:     eng,
		supervisor: sup,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger.With("module", "engine_service"),
		running:    make(map[string]context.CancelFunc),
	}
}

// Submit admits a task: it validates the request, writes the initial
// checkpoint, and announces the task on the bus for a worker to pick up.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.TaskView, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid submit request: %w", err)
	}

	taskID := req.TaskID
	if taskID == "" {
		taskID = "task-" + uuid.New().String()[:8]
	}

	if _, err := s.store.GetLatest(ctx, taskID); err == nil {
		return nil, NewTaskError("Submit", taskID, ErrTaskAlreadyExists)
	} else if !checkpoint.IsSnapshotNotFound(err) {
		return nil, NewTaskError("Submit", taskID, err)
	}

	state := models.NewWorkflowState(taskID, req.Platform, req.Instruction, req.Document, req.Parameters)
	state.CheckpointSeq = 1

	if err := s.store.Put(ctx, taskID, state.CheckpointSeq, state); err != nil {
		return nil, NewTaskError("Submit", taskID, err)
	}

	submitted := events.TaskSubmitted{
		BaseEvent: events.NewBaseEvent(events.TaskSubmittedEvent, taskID),
		Platform:  req.Platform,
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, taskID, submitted); err != nil {
			return nil, NewTaskError("Submit", taskID, err)
		}
	}

	s.logger.InfoContext(ctx, "Task admitted", "task_id", taskID, "platform", req.Platform)

	return state.View(), nil
}

// Resume loads the latest checkpoint and drives the task to a terminal
// status. Resuming a terminal task is a no-op returning the stored state
// without invoking any phase. A snapshot failing the invariant check aborts
// the resume for manual intervention rather than guessing.
func (s *Service) Resume(ctx context.Context, taskID string) (*models.TaskView, error) {
	if s.engine == nil {
		return nil, NewTaskError("Resume", taskID, ErrEngineUnavailable)
	}

	snapshot, err := s.loadSnapshot(ctx, taskID, "Resume")
	if err != nil {
		return nil, err
	}

	state := snapshot.State

	if err := s.supervisor.CheckInvariants(state); err != nil {
		return nil, NewTaskError("Resume", taskID, fmt.Errorf("%w: %w", ErrRecoveryMismatch, err))
	}

	if state.Status.Terminal() {
		return state.View(), nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.track(taskID, cancel); err != nil {
		return nil, err
	}
	defer s.untrack(taskID)

	state, err = s.engine.Run(runCtx, state)
	if err != nil {
		return state.View(), err
	}

	return state.View(), nil
}

// Cancel aborts an in-flight task (best effort) or, for a task not running
// in this process, marks it aborted directly. Prior checkpoints are never
// deleted. Cancelling a terminal task is a no-op.
func (s *Service) Cancel(ctx context.Context, taskID string) (*models.TaskView, error) {
	s.mu.Lock()
	cancel, inFlight := s.running[taskID]
	s.mu.Unlock()

	if inFlight {
		cancel()

		s.logger.InfoContext(ctx, "Cancellation signalled to running task", "task_id", taskID)

		return s.Status(ctx, taskID)
	}

	snapshot, err := s.loadSnapshot(ctx, taskID, "Cancel")
	if err != nil {
		return nil, err
	}

	state := snapshot.State
	if state.Status.Terminal() {
		return state.View(), nil
	}

	state.Status = models.TaskStatusAborted
	state.CheckpointSeq++

	if err := s.store.Put(ctx, taskID, state.CheckpointSeq, state); err != nil {
		return nil, NewTaskError("Cancel", taskID, err)
	}

	finished := events.TaskFinished{
		BaseEvent:  events.NewBaseEvent(events.TaskFinishedEvent, taskID),
		Status:     state.Status,
		RetryCount: state.RetryCount,
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, taskID, finished); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish task finished event", "task_id", taskID, "error", err)
		}
	}

	return state.View(), nil
}

// Status returns the caller-facing view of the latest checkpoint.
func (s *Service) Status(ctx context.Context, taskID string) (*models.TaskView, error) {
	snapshot, err := s.loadSnapshot(ctx, taskID, "Status")
	if err != nil {
		return nil, err
	}

	return snapshot.State.View(), nil
}

// RequestResume publishes a resume request for a worker to execute.
func (s *Service) RequestResume(ctx context.Context, taskID string) error {
	if _, err := s.loadSnapshot(ctx, taskID, "RequestResume"); err != nil {
		return err
	}

	event := events.TaskResumeRequested{
		BaseEvent: events.NewBaseEvent(events.TaskResumeRequestedEvent, taskID),
	}

	return s.bus.Publish(ctx, taskID, event)
}

// RequestCancel publishes a cancel request for a worker to execute.
func (s *Service) RequestCancel(ctx context.Context, taskID, reason string) error {
	if _, err := s.loadSnapshot(ctx, taskID, "RequestCancel"); err != nil {
		return err
	}

	event := events.TaskCancelRequested{
		BaseEvent: events.NewBaseEvent(events.TaskCancelRequestedEvent, taskID),
		Reason:    reason,
	}

	return s.bus.Publish(ctx, taskID, event)
}

// Running reports whether this process is currently driving the task.
func (s *Service) Running(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.running[taskID]

	return ok
}

// HealthCheck verifies the checkpoint store is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

func (s *Service) loadSnapshot(ctx context.Context, taskID, op string) (*checkpoint.Snapshot, error) {
	snapshot, err := s.store.GetLatest(ctx, taskID)
	if err != nil {
		if checkpoint.IsSnapshotNotFound(err) {
			return nil, NewTaskError(op, taskID, ErrTaskNotFound)
		}

		return nil, NewTaskError(op, taskID, err)
	}

	return snapshot, nil
}

func (s *Service) track(taskID string, cancel context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.running[taskID]; ok {
		return NewTaskError("Resume", taskID, ErrTaskAlreadyRunning)
	}

	s.running[taskID] = cancel

	return nil
}

func (s *Service) untrack(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.running, taskID)
}
