package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"doc-bench/internal/app"
	"doc-bench/internal/httputil"
	"doc-bench/internal/queue"
)

func main() {
	deps, err := app.BuildService()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("summarize worker starting", "models", deps.Catalog.Names())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consume(ctx, deps)
	})

	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Log, deps.Config.Port, "worker")
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("worker stopped", "err", err)
	}
}

// consume runs summarize tasks from the queue until ctx is done.
func consume(ctx context.Context, deps app.Deps) error {
	return deps.Queue.Worker(ctx, queue.TaskTypeSummarize, func(ctx context.Context, task queue.Task) error {
		return handleTask(ctx, deps, task)
	})
}

func handleTask(ctx context.Context, deps app.Deps, task queue.Task) error {
	var job app.Job
	if err := task.DecodePayload(&job); err != nil {
		return err
	}
	if job.RunID == uuid.Nil {
		return errors.New("summarize task without run id")
	}
	log := deps.Log.With("task_id", task.ID, "run_id", job.RunID, "attempt", task.Attempts+1)
	log.Info("summarize task received", "model", job.Model, "num_tokens", job.NumTokens)

	out, err := app.RunJob(ctx, deps, job)
	if err != nil {
		log.Error("summarize task failed", "err", err)
		return err
	}
	log.Info("summarize task done", "chunks", len(out.Result.Chunks), "duration", out.Result.Duration)
	return nil
}
