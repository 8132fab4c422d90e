package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client using testify/mock.
// The first return value may be a string or a func(context.Context, string, int) string.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Complete(ctx context.Context, prompt string, contextLength int) (string, error) {
	args := m.Called(ctx, prompt, contextLength)
	if fn, ok := args.Get(0).(func(context.Context, string, int) string); ok {
		return fn(ctx, prompt, contextLength), args.Error(1)
	}
	return args.String(0), args.Error(1)
}
