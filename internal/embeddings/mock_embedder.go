package embeddings

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEmbedder is a mock implementation of Embedder using testify/mock.
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	args := m.Called(ctx, texts)
	vecs, _ := args.Get(0).([]Vector)
	return vecs, args.Error(1)
}
