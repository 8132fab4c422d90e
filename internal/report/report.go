// Package report writes run results as .docx documents for side-by-side review.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"doc-bench/internal/summarize"
)

const defaultFallback = "unknown"

// Record is everything a report shows about one run.
type Record struct {
	Model         string
	ContextLength int
	NumTokens     int
	Overlap       float64
	ChunkPrompt   string
	FinalPrompt   string
	// FinalTokens is the token count of the final text plus the final prompt.
	FinalTokens int
	Result      summarize.Result
}

// Writer places reports under Dir in a per-model subdirectory.
type Writer struct {
	Dir string
	// Prefixes maps model names to subdirectories.
	Prefixes map[string]string
	// Fallback is the subdirectory for models missing from Prefixes.
	Fallback string
}

// NewWriter returns a Writer using prefixes from configuration.
func NewWriter(dir string, prefixes map[string]string) *Writer {
	return &Writer{Dir: dir, Prefixes: prefixes, Fallback: defaultFallback}
}

// Path returns where the report for model is written.
func (w *Writer) Path(model string) string {
	prefix, ok := w.Prefixes[model]
	if !ok || prefix == "" {
		prefix = w.Fallback
		if prefix == "" {
			prefix = defaultFallback
		}
	}
	kind := "base"
	if strings.Contains(model, "instruct") {
		kind = "instruct"
	}
	return filepath.Join(w.Dir, prefix, kind+"_modelresponse.docx")
}

// Write renders rec and returns the path of the written file.
func (w *Writer) Write(rec Record) (string, error) {
	path := w.Path(rec.Model)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	if _, err := Render(rec).WriteTo(f); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close report: %w", err)
	}
	return path, nil
}

// Render builds the document for rec.
func Render(rec Record) *docx.Docx {
	doc := docx.New().WithDefaultTheme()

	heading(doc, rec.Model+" Test", "44")

	heading(doc, "Model parameters", "32")
	text(doc, "Temperature: 0")
	text(doc, "num_ctx: "+strconv.Itoa(rec.ContextLength))

	heading(doc, "Approach", "32")
	text(doc, fmt.Sprintf("Chunk size: %d tokens, overlap: %s", rec.NumTokens, strconv.FormatFloat(rec.Overlap, 'f', -1, 64)))
	text(doc, fmt.Sprintf("Chunks: %d", len(rec.Result.Chunks)))
	text(doc, fmt.Sprintf("Total size of final text with prompt: %d", rec.FinalTokens))

	heading(doc, "Prompts", "32")
	text(doc, "Final prompt:")
	text(doc, rec.FinalPrompt)
	text(doc, "Chunk prompt:")
	text(doc, rec.ChunkPrompt)

	heading(doc, "Model responses", "32")
	heading(doc, "Chunk responses", "28")
	tbl := doc.AddTable(len(rec.Result.Chunks)+1, 2, 0, nil)
	tbl.TableRows[0].TableCells[0].AddParagraph().AddText("Chunk").Bold()
	tbl.TableRows[0].TableCells[1].AddParagraph().AddText("Summary").Bold()
	for i, cs := range rec.Result.Chunks {
		row := tbl.TableRows[i+1]
		row.TableCells[0].AddParagraph().AddText(cs.Chunk.Text)
		row.TableCells[1].AddParagraph().AddText(cs.Summary)
	}

	doc.AddParagraph().AddPageBreaks()

	heading(doc, "Final model response", "28")
	text(doc, rec.Result.FinalSummary)
	heading(doc, "Final text", "28")
	text(doc, rec.Result.FinalText)

	return doc
}

func heading(doc *docx.Docx, s, size string) {
	doc.AddParagraph().AddText(s).Bold().Size(size)
}

// text adds one paragraph per line of s.
func text(doc *docx.Docx, s string) {
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		doc.AddParagraph().AddText(line)
	}
}
