package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/scriptflow/scriptflow/pkg/engine"
	"github.com/scriptflow/scriptflow/pkg/eventbus"
	"github.com/scriptflow/scriptflow/pkg/events"
)

// WorkerManager subscribes to task lifecycle requests and drives each
// claimed task through the engine. Submit and resume requests start an
// engine run; cancel requests signal the running task or mark a dormant
// one aborted.
type WorkerManager struct {
	id       string
	service  *engine.Service
	eventBus eventbus.EventBus
	logger   *slog.Logger
}

func NewWorkerManager(
	id string,
	service *engine.Service,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:       id,
		service:  service,
		eventBus: eventBus,
		logger:   logger.With("module", "scriptflow-worker", "worker_id", id),
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	if err := w.eventBus.Handle(events.TaskSubmittedEvent, w.handleTaskSubmitted); err != nil {
		return err
	}

	if err := w.eventBus.Handle(events.TaskResumeRequestedEvent, w.handleResumeRequested); err != nil {
		return err
	}

	if err := w.eventBus.Handle(events.TaskCancelRequestedEvent, w.handleCancelRequested); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleTaskSubmitted(ctx context.Context, event any) error {
	submitted, ok := event.(*events.TaskSubmitted)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for TaskSubmitted")

		return nil
	}

	return w.drive(ctx, submitted.TaskID, submitted.ID)
}

func (w *WorkerManager) handleResumeRequested(ctx context.Context, event any) error {
	resume, ok := event.(*events.TaskResumeRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for TaskResumeRequested")

		return nil
	}

	return w.drive(ctx, resume.TaskID, resume.ID)
}

func (w *WorkerManager) handleCancelRequested(ctx context.Context, event any) error {
	cancel, ok := event.(*events.TaskCancelRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for TaskCancelRequested")

		return nil
	}

	logger := w.logger.With("task_id", cancel.TaskID, "event_id", cancel.ID)
	logger.InfoContext(ctx, "Processing cancel request", "reason", cancel.Reason)

	if _, err := w.service.Cancel(ctx, cancel.TaskID); err != nil {
		if engine.IsTaskNotFound(err) {
			logger.WarnContext(ctx, "Cancel requested for unknown task")

			return nil
		}

		logger.ErrorContext(ctx, "Failed to cancel task", "error", err)

		return err
	}

	return nil
}

// drive resumes the task and runs it to a terminal status. A task already
// claimed by this process is skipped without error: duplicate delivery of
// lifecycle events is expected.
func (w *WorkerManager) drive(ctx context.Context, taskID, eventID string) error {
	logger := w.logger.With("task_id", taskID, "event_id", eventID)
	logger.InfoContext(ctx, "Claiming task")

	view, err := w.service.Resume(ctx, taskID)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrTaskAlreadyRunning):
			logger.InfoContext(ctx, "Task already running in this process, skipping")

			return nil
		case engine.IsRecoveryMismatch(err):
			logger.ErrorContext(ctx, "Recovered snapshot failed invariant check, leaving for manual intervention", "error", err)

			return nil
		case engine.IsTaskSuspended(err):
			logger.WarnContext(ctx, "Task suspended, the recovery sweep will retry it", "error", err)

			return err
		default:
			logger.ErrorContext(ctx, "Task execution failed", "error", err)

			return err
		}
	}

	logger.InfoContext(ctx, "Task reached terminal status",
		"status", view.Status,
		"retry_count", view.RetryCount,
	)

	return nil
}
