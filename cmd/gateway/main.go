package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"doc-bench/internal/app"
	"doc-bench/internal/embeddings"
	"doc-bench/internal/httputil"
	"doc-bench/internal/pdftext"
	"doc-bench/internal/queue"
	"doc-bench/internal/store"
)

type runForm struct {
	Model     string  `validate:"required"`
	NumTokens int     `validate:"required,min=1"`
	Overlap   float64 `validate:"min=0,lt=1"`
}

type compareRequest struct {
	Left  string `json:"left" validate:"required,uuid"`
	Right string `json:"right" validate:"required,uuid"`
}

type runResponse struct {
	ID            uuid.UUID  `json:"id"`
	Filename      string     `json:"filename"`
	Model         string     `json:"model"`
	NumTokens     int        `json:"num_tokens"`
	Overlap       float64    `json:"overlap"`
	ContextLength int        `json:"context_length"`
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
	FinalSummary  string     `json:"final_summary,omitempty"`
	ReportPath    string     `json:"report_path,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

type chunkResponse struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
	Retained   int    `json:"retained"`
	Summary    string `json:"summary"`
}

func main() {
	deps, err := app.BuildService()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, newRouter(deps)); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/runs", createRunHandler(deps))
	r.Get("/api/runs", listRunsHandler(deps))
	r.Get("/api/runs/{id}", getRunHandler(deps))
	r.Get("/api/runs/{id}/chunks", chunksHandler(deps))
	r.Post("/api/compare", compareHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	return r
}

func createRunHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		form, err := parseRunForm(r, deps.Config.Overlap)
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}
		model, ok := deps.Catalog.Lookup(form.Model)
		if !ok {
			httputil.Fail(deps.Log, w, fmt.Sprintf("unknown model %q", form.Model), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text, err := extractText(deps.Log, header.Filename, header.Header.Get("Content-Type"), content)
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(text) == "" {
			httputil.Fail(deps.Log, w, "document contains no text", nil, http.StatusUnprocessableEntity)
			return
		}

		run, err := deps.Store.CreateRun(ctx, store.Run{
			Filename:      header.Filename,
			Model:         form.Model,
			NumTokens:     form.NumTokens,
			Overlap:       form.Overlap,
			ContextLength: model.ContextLength,
		})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist run", err, http.StatusInternalServerError)
			return
		}

		task, err := queue.NewTask(queue.TaskTypeSummarize, app.Job{
			RunID:     run.ID,
			Filename:  header.Filename,
			Model:     form.Model,
			NumTokens: form.NumTokens,
			Overlap:   form.Overlap,
			Text:      text,
		})
		if err != nil {
			fail(ctx, deps, w, "marshal payload failed", err, run.ID, http.StatusInternalServerError, true)
			return
		}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			fail(ctx, deps, w, "failed to enqueue run; please retry", err, run.ID, http.StatusInternalServerError, true)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"run_id": run.ID.String(),
			"status": run.Status,
		})
	}
}

func parseRunForm(r *http.Request, defaultOverlap float64) (runForm, error) {
	form := runForm{Model: r.FormValue("model"), Overlap: defaultOverlap}
	if v := r.FormValue("num_tokens"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return runForm{}, fmt.Errorf("num_tokens must be an integer")
		}
		form.NumTokens = n
	}
	if v := r.FormValue("overlap"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return runForm{}, fmt.Errorf("overlap must be a number")
		}
		form.Overlap = f
	}
	if err := httputil.Validate(&form); err != nil {
		return runForm{}, err
	}
	return form, nil
}

// extractText returns the text of an uploaded PDF or plain text file.
func extractText(log *slog.Logger, filename, contentType string, content []byte) (string, error) {
	if contentType == "" || contentType == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".pdf":
			contentType = "application/pdf"
		case ".txt":
			contentType = "text/plain"
		}
	}

	switch contentType {
	case "application/pdf":
		doc, err := pdftext.ExtractBytes(content)
		if err != nil {
			if errors.Is(err, pdftext.ErrCorrupt) {
				return "", fmt.Errorf("invalid PDF file")
			}
			return "", err
		}
		if failures := doc.Failures(); failures != nil {
			log.Warn("some pages could not be extracted", "filename", filename,
				"failed", doc.Count(pdftext.PageFailed), "err", failures)
		}
		return doc.Text(), nil
	case "text/plain":
		return strings.ToValidUTF8(string(content), "�"), nil
	default:
		return "", fmt.Errorf("unsupported file type (only PDF and TXT allowed)")
	}
}

// fail is gateway-specific error handler that can mark runs as failed
func fail(ctx context.Context, deps app.Deps, w http.ResponseWriter, message string, err error, runID uuid.UUID, status int, markFailed bool) {
	log := deps.Log.With("run_id", runID)
	if markFailed && runID != uuid.Nil {
		if upErr := deps.Store.UpdateRunStatus(ctx, runID, store.StatusFailed, message); upErr != nil {
			log.Error("failed to mark run failed", "err", upErr)
		}
	}

	httputil.Fail(log, w, message, err, status)
}

func getRunHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := parseRunID(deps, w, r)
		if !ok {
			return
		}
		run, err := deps.Store.GetRun(r.Context(), runID)
		if err != nil {
			storeFail(deps, w, "failed to load run", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toRunResponse(run))
	}
}

func listRunsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := deps.Store.ListRuns(r.Context(), r.URL.Query().Get("filename"))
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list runs", err, http.StatusInternalServerError)
			return
		}
		out := make([]runResponse, len(runs))
		for i, run := range runs {
			out[i] = toRunResponse(run)
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"runs": out})
	}
}

func chunksHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := parseRunID(deps, w, r)
		if !ok {
			return
		}
		if _, err := deps.Store.GetRun(r.Context(), runID); err != nil {
			storeFail(deps, w, "failed to load run", err)
			return
		}
		chunks, err := deps.Store.ListChunks(r.Context(), runID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list chunks", err, http.StatusInternalServerError)
			return
		}
		out := make([]chunkResponse, len(chunks))
		for i, c := range chunks {
			out[i] = chunkResponse{
				Index:      c.Index,
				Text:       c.Text,
				TokenCount: c.TokenCount,
				Retained:   c.Retained,
				Summary:    c.Summary,
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"run_id": runID,
			"chunks": out,
		})
	}
}

func compareHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if deps.Embedder == nil {
			httputil.Fail(deps.Log, w, "comparison requires an embedding provider", nil, http.StatusServiceUnavailable)
			return
		}

		var req compareRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}

		runs := make([]store.Run, 2)
		for i, raw := range []string{req.Left, req.Right} {
			run, err := deps.Store.GetRun(ctx, uuid.MustParse(raw))
			if err != nil {
				storeFail(deps, w, "failed to load run", err)
				return
			}
			if run.Status != store.StatusCompleted {
				httputil.Fail(deps.Log, w, fmt.Sprintf("run %s is %s", run.ID, run.Status), nil, http.StatusConflict)
				return
			}
			runs[i] = run
		}

		vectors, err := deps.Embedder.Embed(ctx, []string{runs[0].FinalSummary, runs[1].FinalSummary})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to embed summaries", err, http.StatusBadGateway)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"left":       toRunResponse(runs[0]),
			"right":      toRunResponse(runs[1]),
			"similarity": embeddings.CosineSimilarity(vectors[0], vectors[1]),
		})
	}
}

func parseRunID(deps app.Deps, w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	runID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(deps.Log, w, "invalid run id", err, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return runID, true
}

func storeFail(deps app.Deps, w http.ResponseWriter, message string, err error) {
	if errors.Is(err, store.ErrRunNotFound) {
		httputil.Fail(deps.Log, w, "run not found", err, http.StatusNotFound)
		return
	}
	httputil.Fail(deps.Log, w, message, err, http.StatusInternalServerError)
}

func toRunResponse(run store.Run) runResponse {
	return runResponse{
		ID:            run.ID,
		Filename:      run.Filename,
		Model:         run.Model,
		NumTokens:     run.NumTokens,
		Overlap:       run.Overlap,
		ContextLength: run.ContextLength,
		Status:        string(run.Status),
		Error:         run.Error,
		FinalSummary:  run.FinalSummary,
		ReportPath:    run.ReportPath,
		CreatedAt:     run.CreatedAt,
		CompletedAt:   run.CompletedAt,
	}
}
