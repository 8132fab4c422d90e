// Package summarize runs the chunk-then-synthesize summarization pipeline.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"doc-bench/internal/cache"
	"doc-bench/internal/chunker"
	"doc-bench/internal/llm"
	"doc-bench/internal/retry"
)

// ErrNoText is returned when the input has nothing to summarize.
var ErrNoText = errors.New("summarize: no text")

// Request describes one summarization run.
type Request struct {
	Model         string
	ContextLength int
	Text          string
	NumTokens     int
	Overlap       float64
	ChunkPrompt   string
	FinalPrompt   string
}

// ChunkSummary pairs a chunk with the model's summary of it.
type ChunkSummary struct {
	Chunk   chunker.Chunk
	Summary string
	Cached  bool
}

// Result is the outcome of a run.
type Result struct {
	Model        string
	Chunks       []ChunkSummary
	FinalText    string
	FinalSummary string
	Duration     time.Duration
}

// Summarizer chunks text and summarizes it with a completion client.
type Summarizer struct {
	counter     chunker.Counter
	cache       cache.Cache
	cacheTTL    time.Duration
	log         *slog.Logger
	concurrency int
	retries     int
	retryBase   time.Duration
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithCache caches chunk summaries for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Summarizer) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithConcurrency sets how many chunks are summarized at once.
func WithConcurrency(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRetries sets how many times a failed completion is retried.
func WithRetries(n int, base time.Duration) Option {
	return func(s *Summarizer) {
		if n >= 0 {
			s.retries = n
		}
		s.retryBase = base
	}
}

// New builds a Summarizer that measures chunks with counter.
func New(counter chunker.Counter, log *slog.Logger, opts ...Option) *Summarizer {
	s := &Summarizer{
		counter:     counter,
		cache:       cache.NewNoOpCache(),
		log:         log,
		concurrency: 1,
		retryBase:   time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run chunks req.Text, summarizes every chunk with req.ChunkPrompt, joins the
// chunk summaries and summarizes them again with req.FinalPrompt. Any failed
// completion aborts the run.
func (s *Summarizer) Run(ctx context.Context, client llm.Client, req Request) (Result, error) {
	start := time.Now()
	log := s.log.With("model", req.Model)

	chunks, err := chunker.ChunkText(req.Text, s.counter, chunker.Options{MaxTokens: req.NumTokens, Overlap: req.Overlap})
	if err != nil {
		return Result{}, fmt.Errorf("failed to chunk text: %w", err)
	}
	if len(chunks) == 0 {
		return Result{}, ErrNoText
	}
	log.Info("text chunked", "chunks", len(chunks), "num_tokens", req.NumTokens, "overlap", req.Overlap)
	s.checkWindow(log, req, chunks)

	summaries := make([]ChunkSummary, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range chunks {
		g.Go(func() error {
			summary, cached, err := s.summarizeChunk(gctx, client, req, c)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", c.Index, err)
			}
			log.Info("chunk summarized", "chunk", c.Index, "tokens", c.TokenCount, "cached", cached)
			summaries[i] = ChunkSummary{Chunk: c, Summary: summary, Cached: cached}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	// each summary keeps a trailing newline so the final prompt shows one per line
	parts := make([]string, len(summaries))
	for i, cs := range summaries {
		parts[i] = cs.Summary + "\n"
	}
	finalText := strings.Join(parts, " ")

	final, err := s.complete(ctx, client, Prompt(req.FinalPrompt, finalText), req.ContextLength)
	if err != nil {
		return Result{}, fmt.Errorf("final summary: %w", err)
	}
	log.Info("final summary done", "duration_ms", time.Since(start).Milliseconds())

	return Result{
		Model:        req.Model,
		Chunks:       summaries,
		FinalText:    finalText,
		FinalSummary: final,
		Duration:     time.Since(start),
	}, nil
}

func (s *Summarizer) summarizeChunk(ctx context.Context, client llm.Client, req Request, c chunker.Chunk) (string, bool, error) {
	key := cache.Key(req.Model, req.ContextLength, req.ChunkPrompt, c.Text)
	if summary, ok, err := s.cache.GetSummary(ctx, key); err != nil {
		s.log.Warn("cache lookup failed", "err", err)
	} else if ok {
		return summary, true, nil
	}

	summary, err := s.complete(ctx, client, Prompt(req.ChunkPrompt, c.Text), req.ContextLength)
	if err != nil {
		return "", false, err
	}
	if err := s.cache.SetSummary(ctx, key, summary, s.cacheTTL); err != nil {
		s.log.Warn("cache store failed", "err", err)
	}
	return summary, false, nil
}

func (s *Summarizer) complete(ctx context.Context, client llm.Client, prompt string, contextLength int) (string, error) {
	var out string
	err := retry.Do(ctx, s.retries+1, s.retryBase, func(ctx context.Context) error {
		var err error
		out, err = client.Complete(ctx, prompt, contextLength)
		return err
	})
	return out, err
}

// checkWindow warns about chunks that will not fit the model's context window
// together with the chunk prompt.
func (s *Summarizer) checkWindow(log *slog.Logger, req Request, chunks []chunker.Chunk) {
	if req.ContextLength <= 0 {
		return
	}
	promptTokens, err := s.counter.Count(req.ChunkPrompt)
	if err != nil {
		return
	}
	for _, c := range chunks {
		if promptTokens+c.TokenCount > req.ContextLength {
			log.Warn("chunk exceeds context window", "chunk", c.Index, "tokens", promptTokens+c.TokenCount, "context_length", req.ContextLength)
		}
	}
}

// Prompt places text on the line after the instruction.
func Prompt(instruction, text string) string {
	return instruction + "\n" + text
}
