package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/scriptflow/scriptflow/pkg/checkpoint"
	"github.com/scriptflow/scriptflow/pkg/models"
)

// MockCheckpointStore is a mock implementation of checkpoint.Store.
type MockCheckpointStore struct {
	mock.Mock
}

func (m *MockCheckpointStore) Put(ctx context.Context, taskID string, seq uint64, state *models.WorkflowState) error {
	args := m.Called(ctx, taskID, seq, state)

	return args.Error(0)
}

func (m *MockCheckpointStore) GetLatest(ctx context.Context, taskID string) (*checkpoint.Snapshot, error) {
	args := m.Called(ctx, taskID)

	snapshot, _ := args.Get(0).(*checkpoint.Snapshot)

	return snapshot, args.Error(1)
}

func (m *MockCheckpointStore) TaskIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	ids, _ := args.Get(0).([]string)

	return ids, args.Error(1)
}

func (m *MockCheckpointStore) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockCheckpointStore) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
