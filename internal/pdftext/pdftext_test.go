package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestExtractBytesCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("this is plain text, not a PDF")},
		{"truncated header", []byte("%PDF-1.4\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractBytes(tt.content)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorrupt), "expected ErrCorrupt, got %v", err)
		})
	}
}

func TestDocumentText(t *testing.T) {
	doc := Document{Pages: []Page{
		{Number: 1, Text: "first page", Status: PageOK},
		{Number: 2, Status: PageEmpty},
		{Number: 3, Status: PageFailed, Err: errors.New("bad stream")},
		{Number: 4, Text: "fourth page", Status: PageOK},
	}}

	assert.Equal(t, "PAGE 1\nfirst page\nPAGE 4\nfourth page", doc.Text())
	assert.Equal(t, 2, doc.Count(PageOK))
	assert.Equal(t, 1, doc.Count(PageEmpty))
	assert.Equal(t, 1, doc.Count(PageFailed))
	assert.ErrorContains(t, doc.Failures(), "bad stream")
}

func TestDocumentTextEmpty(t *testing.T) {
	doc := Document{Pages: []Page{{Number: 1, Status: PageEmpty}}}
	assert.Equal(t, "", doc.Text())
	assert.NoError(t, doc.Failures())
}

// buildPDF assembles a minimal uncompressed PDF with one text page and one
// page without a content stream.
func buildPDF(text string) []byte {
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 6 0 R >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractBytes(t *testing.T) {
	doc, err := ExtractBytes(buildPDF("Hello there. Second sentence!"))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)

	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Equal(t, PageOK, doc.Pages[0].Status)
	assert.Equal(t, 2, doc.Pages[1].Number)
	assert.Equal(t, PageEmpty, doc.Pages[1].Status)
	assert.Equal(t, "PAGE 1\nHello there. Second sentence!", doc.Text())
	assert.NoError(t, doc.Failures())
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, buildPDF("From disk."), 0o644))

	doc, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Count(PageOK))
	assert.Equal(t, 1, doc.Count(PageEmpty))
	assert.Equal(t, "PAGE 1\nFrom disk.", doc.Text())
}
