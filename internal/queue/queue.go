package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"doc-bench/internal/retry"
)

// TaskType enumerates supported task categories.
type TaskType string

const (
	TaskTypeSummarize TaskType = "summarize"
)

// Task represents a unit of work handed to workers.
type Task struct {
	ID          uuid.UUID
	Type        TaskType
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NotBefore   time.Time
}

// NewTask builds a task of taskType carrying payload encoded as JSON.
func NewTask(taskType TaskType, payload any) (Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("encode %s payload: %w", taskType, err)
	}
	return Task{ID: uuid.New(), Type: taskType, Payload: body}, nil
}

// DecodePayload unmarshals the task payload into v.
func (t Task) DecodePayload(v any) error {
	if err := json.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", t.Type, err)
	}
	return nil
}

type Handler func(context.Context, Task) error

// Queue exposes a minimal contract to enqueue and consume tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Worker(ctx context.Context, taskType TaskType, handler Handler) error
}

// EnqueueWithRetry attempts to enqueue with retries and exponential backoff.
func EnqueueWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) error {
	return retry.Do(ctx, attempts, base, func(ctx context.Context) error {
		return q.Enqueue(ctx, task)
	})
}
