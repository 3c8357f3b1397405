// Package engine drives tasks through the four-phase pipeline: it asks the
// supervisor what to do, invokes the selected phase executor or the
// collaboration manager, folds the result into the workflow state, and
// persists a checkpoint after every transition.
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound indicates no checkpoint exists for the task.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskAlreadyExists indicates a submit reused an existing task id.
	ErrTaskAlreadyExists = errors.New("task already exists")

	// ErrTaskAlreadyRunning indicates the task is being driven by this
	// process already; a task has exactly one engine instance.
	ErrTaskAlreadyRunning = errors.New("task already running")

	// ErrTaskSuspended indicates the run stopped on a retryable fault —
	// persistent checkpoint write failures or a transiently failing
	// collaborator — leaving the task resumable rather than failed.
	ErrTaskSuspended = errors.New("task suspended awaiting retry")

	// ErrRecoveryMismatch indicates a recovered snapshot failed an
	// invariant check; resume aborts for manual intervention.
	ErrRecoveryMismatch = errors.New("recovered state failed invariant check")

	// ErrNoExecutor indicates the supervisor selected a phase with no
	// registered executor; the executor set must cover all four phases.
	ErrNoExecutor = errors.New("no executor registered for phase")

	// ErrEngineUnavailable indicates a resume was requested on a service
	// wired without an execution engine (submit/status only).
	ErrEngineUnavailable = errors.New("execution engine not configured")
)

// TaskError wraps engine errors with the task they concern.
type TaskError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s failed for task %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

func (e *TaskError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewTaskError creates a task error with context.
func NewTaskError(op, taskID string, err error) *TaskError {
	return &TaskError{Op: op, TaskID: taskID, Err: err}
}

// IsTaskNotFound checks if an error indicates an unknown task.
func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

// IsRecoveryMismatch checks if an error indicates a failed invariant check
// on a recovered snapshot.
func IsRecoveryMismatch(err error) bool {
	return errors.Is(err, ErrRecoveryMismatch)
}

// IsTaskSuspended checks if an error indicates a suspension caused by a
// persistently failing checkpoint store.
func IsTaskSuspended(err error) bool {
	return errors.Is(err, ErrTaskSuspended)
}
