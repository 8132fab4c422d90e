package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"doc-bench/internal/chunker"
	"doc-bench/internal/llm"
	"doc-bench/internal/report"
	"doc-bench/internal/store"
	"doc-bench/internal/summarize"
)

// Job is one summarization run to execute. It is also the payload of
// summarize tasks on the queue.
type Job struct {
	// RunID is the stored run to update; uuid.Nil creates a new run when a store is configured.
	RunID       uuid.UUID `json:"run_id"`
	Filename    string    `json:"filename"`
	Model       string    `json:"model"`
	NumTokens   int       `json:"num_tokens"`
	Overlap     float64   `json:"overlap"`
	Text        string    `json:"text"`
	ChunkPrompt string    `json:"chunk_prompt,omitempty"`
	FinalPrompt string    `json:"final_prompt,omitempty"`
}

// Outcome is what a finished job produced.
type Outcome struct {
	RunID      uuid.UUID
	Result     summarize.Result
	ReportPath string
}

// RunJob summarizes the job's text with its model, writes the report and
// records the run when a store is configured. A failed run is marked failed.
func RunJob(ctx context.Context, deps Deps, job Job) (Outcome, error) {
	model, ok := deps.Catalog.Lookup(job.Model)
	if !ok {
		return Outcome{}, fmt.Errorf("unknown model %q", job.Model)
	}
	client, err := deps.Models.Client(job.Model)
	if err != nil {
		return Outcome{}, err
	}
	if job.ChunkPrompt == "" {
		job.ChunkPrompt = summarize.DefaultChunkPrompt
	}
	if job.FinalPrompt == "" {
		job.FinalPrompt = summarize.DefaultFinalPrompt
	}

	runID := job.RunID
	if deps.Store != nil {
		if runID == uuid.Nil {
			run, err := deps.Store.CreateRun(ctx, store.Run{
				Filename:      job.Filename,
				Model:         job.Model,
				NumTokens:     job.NumTokens,
				Overlap:       job.Overlap,
				ContextLength: model.ContextLength,
			})
			if err != nil {
				return Outcome{}, fmt.Errorf("failed to create run: %w", err)
			}
			runID = run.ID
		}
		if err := deps.Store.UpdateRunStatus(ctx, runID, store.StatusRunning, ""); err != nil {
			return Outcome{}, fmt.Errorf("failed to mark run running: %w", err)
		}
	}
	log := deps.Log.With("run_id", runID, "model", job.Model)

	out, err := execute(ctx, deps, client, job, model.ContextLength)
	out.RunID = runID
	if err != nil {
		if deps.Store != nil {
			if upErr := deps.Store.UpdateRunStatus(ctx, runID, store.StatusFailed, err.Error()); upErr != nil {
				log.Error("failed to mark run failed", "err", upErr)
			}
		}
		return out, err
	}

	if deps.Store != nil {
		chunks := make([]store.Chunk, len(out.Result.Chunks))
		for i, cs := range out.Result.Chunks {
			chunks[i] = store.Chunk{
				RunID:      runID,
				Index:      cs.Chunk.Index,
				Text:       cs.Chunk.Text,
				TokenCount: cs.Chunk.TokenCount,
				Retained:   cs.Chunk.Retained,
				Summary:    cs.Summary,
			}
		}
		if err := deps.Store.SaveChunks(ctx, runID, chunks); err != nil {
			return out, fmt.Errorf("failed to save chunks: %w", err)
		}
		if err := deps.Store.CompleteRun(ctx, runID, store.Result{
			FinalText:    out.Result.FinalText,
			FinalSummary: out.Result.FinalSummary,
			ReportPath:   out.ReportPath,
		}); err != nil {
			return out, fmt.Errorf("failed to complete run: %w", err)
		}
	}
	log.Info("run completed", "chunks", len(out.Result.Chunks), "report", out.ReportPath)
	return out, nil
}

func execute(ctx context.Context, deps Deps, client llm.Client, job Job, contextLength int) (Outcome, error) {
	res, err := deps.Summarizer.Run(ctx, client, summarize.Request{
		Model:         job.Model,
		ContextLength: contextLength,
		Text:          job.Text,
		NumTokens:     job.NumTokens,
		Overlap:       job.Overlap,
		ChunkPrompt:   job.ChunkPrompt,
		FinalPrompt:   job.FinalPrompt,
	})
	if err != nil {
		return Outcome{}, err
	}

	finalTokens, err := countFinalTokens(deps.Counter, job.FinalPrompt, res.FinalText)
	if err != nil {
		return Outcome{}, err
	}
	path, err := deps.Reports.Write(report.Record{
		Model:         job.Model,
		ContextLength: contextLength,
		NumTokens:     job.NumTokens,
		Overlap:       job.Overlap,
		ChunkPrompt:   job.ChunkPrompt,
		FinalPrompt:   job.FinalPrompt,
		FinalTokens:   finalTokens,
		Result:        res,
	})
	if err != nil {
		return Outcome{Result: res}, err
	}
	return Outcome{Result: res, ReportPath: path}, nil
}

// countFinalTokens counts the final text and the final prompt separately and
// sums them.
func countFinalTokens(counter chunker.Counter, prompt, text string) (int, error) {
	textTokens, err := counter.Count(text)
	if err != nil {
		return 0, fmt.Errorf("count final tokens: %w", err)
	}
	promptTokens, err := counter.Count(prompt)
	if err != nil {
		return 0, fmt.Errorf("count final prompt tokens: %w", err)
	}
	return textTokens + promptTokens, nil
}
