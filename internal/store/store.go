package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	StatusQueued    RunStatus = "queued"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one summarization of one document by one model.
type Run struct {
	ID            uuid.UUID
	Filename      string
	Model         string
	NumTokens     int
	Overlap       float64
	ContextLength int
	Status        RunStatus
	Error         string
	FinalText     string
	FinalSummary  string
	ReportPath    string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

type Chunk struct {
	RunID      uuid.UUID
	Index      int
	Text       string
	TokenCount int
	Retained   int
	Summary    string
}

// Result is the outcome saved when a run completes.
type Result struct {
	FinalText    string
	FinalSummary string
	ReportPath   string
}

// Store defines persistence contract; an external DB implementation can replace this.
type Store interface {
	CreateRun(ctx context.Context, run Run) (Run, error)
	GetRun(ctx context.Context, id uuid.UUID) (Run, error)
	ListRuns(ctx context.Context, filename string) ([]Run, error)
	UpdateRunStatus(ctx context.Context, id uuid.UUID, status RunStatus, reason string) error
	SaveChunks(ctx context.Context, runID uuid.UUID, chunks []Chunk) error
	ListChunks(ctx context.Context, runID uuid.UUID) ([]Chunk, error)
	CompleteRun(ctx context.Context, id uuid.UUID, res Result) error
}
