// Package checkpoint provides the durable snapshot storage abstraction used
// to record and recover task progress.
package checkpoint

import (
	"context"
	"time"

	"github.com/scriptflow/scriptflow/pkg/models"
)

// Snapshot is one immutable, durably written copy of a task's WorkflowState,
// tagged with its write-once sequence number.
type Snapshot struct {
	TaskID    string                `json:"task_id"`
	Seq       uint64                `json:"seq"`
	State     *models.WorkflowState `json:"state"`
	WrittenAt time.Time             `json:"written_at"`
}

// Store is the durable key-value contract for WorkflowState snapshots.
//
// Put must persist the snapshot before returning, and must refuse to
// overwrite an existing (task_id, seq) pair. GetLatest returns the
// highest-seq snapshot for the task or ErrSnapshotNotFound. Stores must
// support concurrent calls across distinct task IDs; per-task isolation
// suffices, no global ordering is required.
type Store interface {
	Put(ctx context.Context, taskID string, seq uint64, state *models.WorkflowState) error
	GetLatest(ctx context.Context, taskID string) (*Snapshot, error)
	TaskIDs(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
