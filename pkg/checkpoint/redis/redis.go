// Package redis provides a Redis-backed checkpoint store implementation.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/scriptflow/scriptflow/pkg/checkpoint"
	"github.com/scriptflow/scriptflow/pkg/models"
)

const keyPrefix = "scriptflow:cp"

// Store implements checkpoint.Store on Redis. Each snapshot lives under a
// write-once string key and is indexed in a per-task sorted set scored by
// sequence number, so GetLatest is a single ZREVRANGE.
type Store struct {
	client goredis.UniversalClient
}

// NewStore creates a Redis-backed checkpoint store from a redis:// URL.
func NewStore(url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &Store{client: goredis.NewClient(opts)}, nil
}

// NewStoreWithClient wraps an existing client, used by tests.
func NewStoreWithClient(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

func snapshotKey(taskID string, seq uint64) string {
	return fmt.Sprintf("%s:%s:%d", keyPrefix, taskID, seq)
}

func indexKey(taskID string) string {
	return fmt.Sprintf("%s:%s:seqs", keyPrefix, taskID)
}

func tasksKey() string {
	return keyPrefix + ":tasks"
}

// Put durably writes one snapshot. SETNX enforces the write-once contract.
func (s *Store) Put(ctx context.Context, taskID string, seq uint64, state *models.WorkflowState) error {
	snapshot := checkpoint.Snapshot{
		TaskID:    taskID,
		Seq:       seq,
		State:     state,
		WrittenAt: time.Now().UTC(),
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return checkpoint.NewCheckpointError("Put", taskID, seq, err)
	}

	created, err := s.client.SetNX(ctx, snapshotKey(taskID, seq), data, 0).Result()
	if err != nil {
		return checkpoint.NewCheckpointError("Put", taskID, seq, err)
	}

	if !created {
		return checkpoint.NewCheckpointError("Put", taskID, seq, checkpoint.ErrSequenceExists)
	}

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, indexKey(taskID), goredis.Z{Score: float64(seq), Member: strconv.FormatUint(seq, 10)})
	pipe.SAdd(ctx, tasksKey(), taskID)

	if _, err := pipe.Exec(ctx); err != nil {
		return checkpoint.NewCheckpointError("Put", taskID, seq, err)
	}

	return nil
}

// GetLatest returns the highest-seq snapshot for the task.
func (s *Store) GetLatest(ctx context.Context, taskID string) (*checkpoint.Snapshot, error) {
	members, err := s.client.ZRevRange(ctx, indexKey(taskID), 0, 0).Result()
	if err != nil {
		return nil, checkpoint.NewCheckpointError("GetLatest", taskID, 0, err)
	}

	if len(members) == 0 {
		return nil, checkpoint.NewCheckpointError("GetLatest", taskID, 0, checkpoint.ErrSnapshotNotFound)
	}

	seq, err := strconv.ParseUint(members[0], 10, 64)
	if err != nil {
		return nil, checkpoint.NewCheckpointError("GetLatest", taskID, 0, checkpoint.ErrCorruptSnapshot)
	}

	data, err := s.client.Get(ctx, snapshotKey(taskID, seq)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, checkpoint.NewCheckpointError("GetLatest", taskID, seq, checkpoint.ErrSnapshotNotFound)
		}

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
	ids, err := s.client.SMembers(ctx, tasksKey()).Result()
	if err != nil {
		return nil, checkpoint.NewCheckpointError("TaskIDs", "", 0, err)
	}

	return ids, nil
}

// HealthCheck pings the Redis server.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client connection pool.
func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}
