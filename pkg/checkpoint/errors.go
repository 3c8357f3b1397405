// Package checkpoint provides standardized error types for snapshot storage.
package checkpoint

import (
	"errors"
	"fmt"
)

// Standard checkpoint error types that all store implementations should use.
var (
	// ErrSnapshotNotFound indicates no snapshot exists for the given task.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSequenceExists indicates a snapshot with the same (task_id, seq)
	// was already written; sequence numbers are write-once.
	ErrSequenceExists = errors.New("checkpoint sequence already written")

	// ErrCorruptSnapshot indicates a stored snapshot could not be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// CheckpointError wraps checkpoint store errors with operation context.
type CheckpointError struct {
	Op     string // Operation being performed (e.g., "Put", "GetLatest")
	TaskID string
	Seq    uint64
	Err    error
}

func (e *CheckpointError) Error() string {
	if e.Seq > 0 {
		return fmt.Sprintf("%s failed for task %s seq %d: %v", e.Op, e.TaskID, e.Seq, e.Err)
	}

	return fmt.Sprintf("%s failed for task %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}

func (e *CheckpointError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewCheckpointError creates a checkpoint error with context.
func NewCheckpointError(op, taskID string, seq uint64, err error) *CheckpointError {
	return &CheckpointError{Op: op, TaskID: taskID, Seq: seq, Err: err}
}

// IsSnapshotNotFound checks if an error indicates a missing snapshot.
func IsSnapshotNotFound(err error) bool {
	return errors.Is(err, ErrSnapshotNotFound)
}

// IsSequenceConflict checks if an error indicates a write-once violation.
func IsSequenceConflict(err error) bool {
	return errors.Is(err, ErrSequenceExists)
}
