package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateRun(ctx context.Context, run Run) (Run, error) {
	args := m.Called(ctx, run)
	return args.Get(0).(Run), args.Error(1)
}

func (m *MockStore) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Run), args.Error(1)
}

func (m *MockStore) ListRuns(ctx context.Context, filename string) ([]Run, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Run), args.Error(1)
}

func (m *MockStore) UpdateRunStatus(ctx context.Context, id uuid.UUID, status RunStatus, reason string) error {
	args := m.Called(ctx, id, status, reason)
	return args.Error(0)
}

func (m *MockStore) SaveChunks(ctx context.Context, runID uuid.UUID, chunks []Chunk) error {
	args := m.Called(ctx, runID, chunks)
	return args.Error(0)
}

func (m *MockStore) ListChunks(ctx context.Context, runID uuid.UUID) ([]Chunk, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Chunk), args.Error(1)
}

func (m *MockStore) CompleteRun(ctx context.Context, id uuid.UUID, res Result) error {
	args := m.Called(ctx, id, res)
	return args.Error(0)
}
