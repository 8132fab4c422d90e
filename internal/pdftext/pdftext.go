// Package pdftext extracts plain text from PDF files page by page.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrNotFound = errors.New("pdf file not found")
	ErrCorrupt  = errors.New("pdf file is corrupt")
)

// PageStatus tells why a page does or does not contribute text.
type PageStatus string

const (
	PageOK     PageStatus = "ok"
	PageEmpty  PageStatus = "empty"
	PageFailed PageStatus = "failed"
)

// Page is the extraction result for one page. Number is 1-based.
type Page struct {
	Number int
	Text   string
	Status PageStatus
	Err    error
}

// Document holds the per-page results of one file.
type Document struct {
	Pages []Page
}

// Extract opens the file at path and extracts every page.
func Extract(path string) (Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Document{}, fmt.Errorf("read pdf: %w", err)
	}
	return ExtractBytes(content)
}

// ExtractBytes extracts every page of an in-memory PDF.
func ExtractBytes(content []byte) (Document, error) {
	return ExtractReader(bytes.NewReader(content), int64(len(content)))
}

// ExtractReader extracts every page of a PDF of the given size.
// A file that cannot be opened as a PDF yields ErrCorrupt; failures on single
// pages are reported on the page and do not fail the document.
func ExtractReader(r io.ReaderAt, size int64) (doc Document, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = Document{}, fmt.Errorf("%w: %v", ErrCorrupt, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	numPages := reader.NumPage()
	doc.Pages = make([]Page, 0, numPages)
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		doc.Pages = append(doc.Pages, extractPage(reader, pageNum))
	}
	return doc, nil
}

func extractPage(reader *pdf.Reader, pageNum int) (page Page) {
	page.Number = pageNum
	defer func() {
		if rec := recover(); rec != nil {
			page.Text, page.Status, page.Err = "", PageFailed, fmt.Errorf("page %d: %v", pageNum, rec)
		}
	}()

	p := reader.Page(pageNum)
	if p.V.IsNull() || p.V.Key("Contents").Kind() == pdf.Null {
		page.Status = PageEmpty
		return page
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		page.Status = PageFailed
		page.Err = fmt.Errorf("page %d: %w", pageNum, err)
		return page
	}
	text = strings.ToValidUTF8(text, "�")
	if strings.TrimSpace(text) == "" {
		page.Status = PageEmpty
		return page
	}
	page.Text = text
	page.Status = PageOK
	return page
}

// Text joins the pages that produced text, each introduced by a "PAGE n" line.
func (d Document) Text() string {
	var b strings.Builder
	for _, p := range d.Pages {
		if p.Status != PageOK {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("PAGE ")
		b.WriteString(strconv.Itoa(p.Number))
		b.WriteString("\n")
		b.WriteString(p.Text)
	}
	return b.String()
}

// Count returns how many pages have the given status.
func (d Document) Count(status PageStatus) int {
	n := 0
	for _, p := range d.Pages {
		if p.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the errors of pages that failed to extract.
func (d Document) Failures() error {
	var errs []error
	for _, p := range d.Pages {
		if p.Status == PageFailed && p.Err != nil {
			errs = append(errs, p.Err)
		}
	}
	return errors.Join(errs...)
}
