// Package file provides a file-based checkpoint store implementation.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/scriptflow/scriptflow/pkg/checkpoint"
	"github.com/scriptflow/scriptflow/pkg/models"
)

const (
	checkpointsDir = "checkpoints"
	dirPerm        = 0o750
)

// Store implements checkpoint.Store on the local file system. Snapshots are
// stored as one JSON file per sequence number under
// <root>/checkpoints/<task_id>/, named so lexical order equals numeric order.
type Store struct {
	root string
}

// NewStore creates a file-backed checkpoint store rooted at the given path.
func NewStore(root string) *Store {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Store{root: cleanRoot}
}

func (s *Store) taskDir(taskID string) string {
	return filepath.Join(s.root, checkpointsDir, taskID)
}

func seqFileName(seq uint64) string {
	return fmt.Sprintf("%020d.json", seq)
}

// Put durably writes one snapshot. The file is written to a temporary name,
// synced, and linked into place; the link fails if the sequence was already
// written, which preserves the write-once contract under concurrent writers.
func (s *Store) Put(ctx context.Context, taskID string, seq uint64, state *models.WorkflowState) error {
	if err := ctx.Err(); err != nil {
		return checkpoint.NewCheckpointError("Put", taskID, seq, err)
	}

	dir := s.taskDir(taskID)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return checkpoint.NewCheckpointError("Put", taskID, seq, err)
	}

	snapshot := checkpoint.Snapshot{
		TaskID:    taskID,
		Seq:       seq,
		State:     state,
		WrittenAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return checkpoint.NewCheckpointError("Put", taskID, seq, err)
	}

	tmp, err := os.CreateTemp(dir, seqFileName(seq)+".tmp-*")
	if err != nil {
		return checkpoint.NewCheckpointError("Put", taskID, seq, err)
	}

	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()

		return checkpoint.NewCheckpointError("Put", taskID, seq, err)
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()

		return checkpoint.NewCheckpointError("Put", taskID, seq, err)
	}

	if err = tmp.Close(); err != nil {
		return checkpoint.NewCheckpointError("Put", taskID, seq, err)
	}

	final := filepath.Join(dir, seqFileName(seq))
	if err = os.Link(tmpName, final); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return checkpoint.NewCheckpointError("Put", taskID, seq, checkpoint.ErrSequenceExists)
		}

		return checkpoint.NewCheckpointError("Put", taskID, seq, err)
	}

	return nil
}

// GetLatest returns the highest-seq snapshot for the task.
func (s *Store) GetLatest(ctx context.Context, taskID string) (*checkpoint.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, checkpoint.NewCheckpointError("GetLatest", taskID, 0, err)
	}

	entries, err := os.ReadDir(s.taskDir(taskID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, checkpoint.NewCheckpointError("GetLatest", taskID, 0, checkpoint.ErrSnapshotNotFound)
		}

		return nil, checkpoint.NewCheckpointError("GetLatest", taskID, 0, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		names = append(names, entry.Name())
	}

	if len(names) == 0 {
		return nil, checkpoint.NewCheckpointError("GetLatest", taskID, 0, checkpoint.ErrSnapshotNotFound)
	}

	sort.Strings(names)
	latest := names[len(names)-1]

	seq, err := strconv.ParseUint(strings.TrimSuffix(latest, ".json"), 10, 64)
	if err != nil {
		return nil, checkpoint.NewCheckpointError("GetLatest", taskID, 0, checkpoint.ErrCorruptSnapshot)
	}

	data, err := os.ReadFile(filepath.Join(s.taskDir(taskID), latest))
	if err != nil {
		return nil, checkpoint.NewCheckpointError("GetLatest", taskID, seq, err)
	}

	var snapshot checkpoint.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, checkpoint.NewCheckpointError("GetLatest", taskID, seq, checkpoint.ErrCorruptSnapshot)
	}

	return &snapshot, nil
}

// TaskIDs lists every task with at least one snapshot.
func (s *Store) TaskIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, checkpoint.NewCheckpointError("TaskIDs", "", 0, err)
	}

	entries, err := os.ReadDir(filepath.Join(s.root, checkpointsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}

		return nil, checkpoint.NewCheckpointError("TaskIDs", "", 0, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}

	return ids, nil
}

// HealthCheck verifies the root directory is usable.
func (s *Store) HealthCheck(_ context.Context) error {
	if err := os.MkdirAll(filepath.Join(s.root, checkpointsDir), dirPerm); err != nil {
		return err
	}

	return nil
}

// Close performs any necessary cleanup. There is nothing to clean up for
// file-based storage.
func (s *Store) Close(_ context.Context) error {
	return nil
}
