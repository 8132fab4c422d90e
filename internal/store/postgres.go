package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Advisory lock keeps the gateway and workers from migrating concurrently.
	const lockID = 427001337

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if !acquired {
		// Another service is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}

	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			model TEXT NOT NULL,
			num_tokens INT NOT NULL,
			overlap DOUBLE PRECISION NOT NULL,
			context_length INT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			final_text TEXT NOT NULL DEFAULT '',
			final_summary TEXT NOT NULL DEFAULT '',
			report_path TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT now(),
			completed_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS runs_filename_idx ON runs (filename);`,
		`CREATE TABLE IF NOT EXISTS run_chunks (
			run_id UUID REFERENCES runs(id) ON DELETE CASCADE,
			ord INT,
			text TEXT,
			token_count INT,
			retained INT,
			summary TEXT,
			PRIMARY KEY (run_id, ord)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = StatusQueued
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO runs(id, filename, model, num_tokens, overlap, context_length, status)
		VALUES($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		run.ID, run.Filename, run.Model, run.NumTokens, run.Overlap, run.ContextLength, run.Status,
	).Scan(&run.CreatedAt)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

const runColumns = `id, filename, model, num_tokens, overlap, context_length, status, error,
	final_text, final_summary, report_path, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r           Run
		completedAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.Filename, &r.Model, &r.NumTokens, &r.Overlap, &r.ContextLength, &r.Status,
		&r.Error, &r.FinalText, &r.FinalSummary, &r.ReportPath, &r.CreatedAt, &completedAt)
	if err != nil {
		return Run{}, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return r, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns runs newest first, optionally limited to one filename.
func (s *PostgresStore) ListRuns(ctx context.Context, filename string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE $1 = '' OR filename = $1
		ORDER BY created_at DESC`, filename)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, id uuid.UUID, status RunStatus, reason string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status=$1, error=$2 WHERE id=$3`, status, reason, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// SaveChunks replaces the chunks of a run in one statement.
func (s *PostgresStore) SaveChunks(ctx context.Context, runID uuid.UUID, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_chunks WHERE run_id=$1`, runID); err != nil {
		return err
	}
	var (
		ords      = make([]int64, len(chunks))
		texts     = make([]string, len(chunks))
		tokens    = make([]int64, len(chunks))
		retained  = make([]int64, len(chunks))
		summaries = make([]string, len(chunks))
	)
	for i, c := range chunks {
		ords[i] = int64(c.Index)
		texts[i] = c.Text
		tokens[i] = int64(c.TokenCount)
		retained[i] = int64(c.Retained)
		summaries[i] = c.Summary
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO run_chunks(run_id, ord, text, token_count, retained, summary)
		SELECT $1, u.ord, u.text, u.token_count, u.retained, u.summary
		FROM unnest($2::int[], $3::text[], $4::int[], $5::int[], $6::text[])
			AS u(ord, text, token_count, retained, summary)`,
		runID, pq.Array(ords), pq.Array(texts), pq.Array(tokens), pq.Array(retained), pq.Array(summaries))
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) ListChunks(ctx context.Context, runID uuid.UUID) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ord, text, token_count, retained, summary
		FROM run_chunks WHERE run_id=$1 ORDER BY ord`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Chunk
	for rows.Next() {
		c := Chunk{RunID: runID}
		if err := rows.Scan(&c.Index, &c.Text, &c.TokenCount, &c.Retained, &c.Summary); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CompleteRun(ctx context.Context, id uuid.UUID, res Result) error {
	r, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status=$1, error='', final_text=$2, final_summary=$3, report_path=$4, completed_at=now()
		WHERE id=$5`,
		StatusCompleted, res.FinalText, res.FinalSummary, res.ReportPath, id)
	if err != nil {
		return err
	}
	if n, _ := r.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}
