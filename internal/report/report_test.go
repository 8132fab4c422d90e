package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-bench/internal/chunker"
	"doc-bench/internal/summarize"
)

func TestWriterPath(t *testing.T) {
	w := NewWriter("out", map[string]string{
		"llama3.1:8b":               "llama",
		"llama3.1:8b-instruct-fp16": "llama",
		"phi4:14b":                  "phi4",
	})

	tests := []struct {
		model    string
		expected string
	}{
		{"llama3.1:8b", filepath.Join("out", "llama", "base_modelresponse.docx")},
		{"llama3.1:8b-instruct-fp16", filepath.Join("out", "llama", "instruct_modelresponse.docx")},
		{"phi4:14b", filepath.Join("out", "phi4", "base_modelresponse.docx")},
		{"mystery:7b", filepath.Join("out", "unknown", "base_modelresponse.docx")},
		{"mystery:7b-instruct", filepath.Join("out", "unknown", "instruct_modelresponse.docx")},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.expected, w.Path(tt.model))
		})
	}
}

func TestWriterPathCustomFallback(t *testing.T) {
	w := &Writer{Dir: "out", Fallback: "misc"}
	assert.Equal(t, filepath.Join("out", "misc", "base_modelresponse.docx"), w.Path("any"))
}

func TestWrite(t *testing.T) {
	w := NewWriter(t.TempDir(), map[string]string{"qwen2.5:14b": "qwen"})
	rec := Record{
		Model:         "qwen2.5:14b",
		ContextLength: 8192,
		NumTokens:     512,
		Overlap:       0.3,
		ChunkPrompt:   "Summarize the chunk.",
		FinalPrompt:   "Merge the summaries.",
		FinalTokens:   42,
		Result: summarize.Result{
			Model: "qwen2.5:14b",
			Chunks: []summarize.ChunkSummary{
				{Chunk: chunker.Chunk{Index: 0, Text: "First chunk text."}, Summary: "first summary"},
				{Chunk: chunker.Chunk{Index: 1, Text: "Second chunk text."}, Summary: "second summary"},
			},
			FinalText:    "first summary second summary",
			FinalSummary: "the final answer\nwith two lines",
		},
	}

	path, err := w.Write(rec)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, filepath.Join("qwen", "base_modelresponse.docx")))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	info, err := f.Stat()
	require.NoError(t, err)

	doc, err := docx.Parse(f, info.Size())
	require.NoError(t, err)

	var b strings.Builder
	for _, it := range doc.Document.Body.Items {
		switch v := it.(type) {
		case *docx.Paragraph:
			b.WriteString(v.String())
		case *docx.Table:
			b.WriteString(v.String())
		}
		b.WriteString("\n")
	}
	content := b.String()
	for _, want := range []string{
		"qwen2.5:14b Test",
		"num_ctx: 8192",
		"Chunk size: 512 tokens, overlap: 0.3",
		"Total size of final text with prompt: 42",
		"Merge the summaries.",
		"Second chunk text.",
		"second summary",
		"the final answer",
		"with two lines",
	} {
		assert.Contains(t, content, want)
	}
}
