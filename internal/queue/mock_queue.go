package queue

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockQueue is a mock implementation of Queue using testify/mock.
// Worker hands any []Task given as the second return value to the handler
// before returning, so consumers can be driven without a broker.
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, task Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	args := m.Called(ctx, taskType, handler)
	if len(args) > 1 {
		if tasks, ok := args.Get(1).([]Task); ok {
			for _, task := range tasks {
				if err := handler(ctx, task); err != nil {
					return err
				}
			}
		}
	}
	return args.Error(0)
}
