package summarize

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doc-bench/internal/cache"
	"doc-bench/internal/chunker"
	"doc-bench/internal/llm"
)

var wordCounter = chunker.CounterFunc(func(text string) (int, error) {
	return len(strings.Fields(text)), nil
})

func newTestSummarizer(opts ...Option) *Summarizer {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(wordCounter, log, append([]Option{WithRetries(0, time.Millisecond)}, opts...)...)
}

func baseRequest() Request {
	return Request{
		Model:         "llama3.1:8b",
		ContextLength: 8192,
		Text:          "A. B. C. D.",
		NumTokens:     2,
		Overlap:       0.5,
		ChunkPrompt:   "CHUNK",
		FinalPrompt:   "FINAL",
	}
}

func TestRun(t *testing.T) {
	client := new(llm.MockClient)
	client.On("Complete", mock.Anything, "CHUNK\nA. B.", 8192).Return("s1", nil).Once()
	client.On("Complete", mock.Anything, "CHUNK\nB. C.", 8192).Return("s2", nil).Once()
	client.On("Complete", mock.Anything, "CHUNK\nC. D.", 8192).Return("s3", nil).Once()
	client.On("Complete", mock.Anything, "FINAL\ns1\n s2\n s3\n", 8192).Return("final", nil).Once()

	res, err := newTestSummarizer().Run(context.Background(), client, baseRequest())
	require.NoError(t, err)

	assert.Equal(t, "llama3.1:8b", res.Model)
	assert.Equal(t, "s1\n s2\n s3\n", res.FinalText)
	assert.Equal(t, "final", res.FinalSummary)
	require.Len(t, res.Chunks, 3)
	assert.Equal(t, "B. C.", res.Chunks[1].Chunk.Text)
	assert.Equal(t, "s2", res.Chunks[1].Summary)
	client.AssertExpectations(t)
}

func TestRunConcurrentKeepsOrder(t *testing.T) {
	client := new(llm.MockClient)
	client.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "CHUNK\n")
	}), 8192).Return(func(_ context.Context, p string, _ int) string {
		return "sum(" + strings.TrimPrefix(p, "CHUNK\n") + ")"
	}, nil)
	client.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "FINAL\n")
	}), 8192).Return("final", nil).Once()

	res, err := newTestSummarizer(WithConcurrency(4)).Run(context.Background(), client, baseRequest())
	require.NoError(t, err)
	assert.Equal(t, "sum(A. B.)\n sum(B. C.)\n sum(C. D.)\n", res.FinalText)
}

func TestRunChunkFailureAborts(t *testing.T) {
	client := new(llm.MockClient)
	client.On("Complete", mock.Anything, "CHUNK\nA. B.", 8192).Return("", errors.New("out of memory"))

	req := baseRequest()
	req.Text = "A. B."
	_, err := newTestSummarizer().Run(context.Background(), client, req)
	require.Error(t, err)
	assert.ErrorContains(t, err, "chunk 0")
	assert.ErrorContains(t, err, "out of memory")
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "FINAL")
	}), mock.Anything)
}

func TestRunRetriesTransientFailure(t *testing.T) {
	client := new(llm.MockClient)
	client.On("Complete", mock.Anything, "CHUNK\nA. B.", 8192).Return("", errors.New("busy")).Once()
	client.On("Complete", mock.Anything, "CHUNK\nA. B.", 8192).Return("s1", nil).Once()
	client.On("Complete", mock.Anything, "FINAL\ns1\n", 8192).Return("final", nil).Once()

	req := baseRequest()
	req.Text = "A. B."
	res, err := newTestSummarizer(WithRetries(1, time.Millisecond)).Run(context.Background(), client, req)
	require.NoError(t, err)
	assert.Equal(t, "final", res.FinalSummary)
	client.AssertExpectations(t)
}

func TestRunFinalFailure(t *testing.T) {
	client := new(llm.MockClient)
	client.On("Complete", mock.Anything, "CHUNK\nA. B.", 8192).Return("s1", nil).Once()
	client.On("Complete", mock.Anything, "FINAL\ns1\n", 8192).Return("", llm.ErrEmptyResponse).Once()

	req := baseRequest()
	req.Text = "A. B."
	_, err := newTestSummarizer().Run(context.Background(), client, req)
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
	assert.ErrorContains(t, err, "final summary")
}

func TestRunEmptyText(t *testing.T) {
	client := new(llm.MockClient)
	req := baseRequest()
	req.Text = "  \n "
	_, err := newTestSummarizer().Run(context.Background(), client, req)
	assert.ErrorIs(t, err, ErrNoText)
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunInvalidBudget(t *testing.T) {
	req := baseRequest()
	req.NumTokens = 0
	_, err := newTestSummarizer().Run(context.Background(), new(llm.MockClient), req)
	assert.ErrorIs(t, err, chunker.ErrInvalidBudget)
}

func TestRunUsesCache(t *testing.T) {
	req := baseRequest()
	req.Text = "A. B."
	hitKey := cache.Key(req.Model, req.ContextLength, req.ChunkPrompt, "A. B.")

	c := new(cache.MockCache)
	c.On("GetSummary", mock.Anything, hitKey).Return("cached", true, nil).Once()

	client := new(llm.MockClient)
	client.On("Complete", mock.Anything, "FINAL\ncached\n", 8192).Return("final", nil).Once()

	res, err := newTestSummarizer(WithCache(c, time.Hour)).Run(context.Background(), client, req)
	require.NoError(t, err)
	assert.True(t, res.Chunks[0].Cached)
	c.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestRunStoresInCache(t *testing.T) {
	req := baseRequest()
	req.Text = "A. B."
	key := cache.Key(req.Model, req.ContextLength, req.ChunkPrompt, "A. B.")

	c := new(cache.MockCache)
	c.On("GetSummary", mock.Anything, key).Return("", false, errors.New("redis down")).Once()
	c.On("SetSummary", mock.Anything, key, "s1", time.Hour).Return(nil).Once()

	client := new(llm.MockClient)
	client.On("Complete", mock.Anything, "CHUNK\nA. B.", 8192).Return("s1", nil).Once()
	client.On("Complete", mock.Anything, "FINAL\ns1\n", 8192).Return("final", nil).Once()

	res, err := newTestSummarizer(WithCache(c, time.Hour)).Run(context.Background(), client, req)
	require.NoError(t, err)
	assert.False(t, res.Chunks[0].Cached)
	c.AssertExpectations(t)
}

func TestPrompt(t *testing.T) {
	assert.Equal(t, "Summarize\nbody", Prompt("Summarize", "body"))
}
