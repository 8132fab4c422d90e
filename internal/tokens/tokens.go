package tokens

import (
	"fmt"
	"sync"
	"unicode"

	"github.com/clipperhouse/uax29/words"
	"github.com/pkoukk/tiktoken-go"

	"doc-bench/internal/chunker"
)

const (
	KindTiktoken = "tiktoken"
	KindWords    = "words"

	defaultEncoding = "cl100k_base"
)

// New returns the counter selected by kind. For tiktoken, modelOrEncoding is an
// encoding name or a model name.
func New(kind, modelOrEncoding string) (chunker.Counter, error) {
	switch kind {
	case KindTiktoken, "":
		return NewTiktokenCounter(modelOrEncoding)
	case KindWords:
		return WordCounter{}, nil
	default:
		return nil, fmt.Errorf("invalid tokenizer %q (valid options: %s, %s)", kind, KindTiktoken, KindWords)
	}
}

// TiktokenCounter counts tokens with a BPE encoding from tiktoken-go.
type TiktokenCounter struct {
	encoding string
	mu       sync.Mutex
	tke      *tiktoken.Tiktoken
}

// NewTiktokenCounter resolves modelOrEncoding as an encoding name, then as a
// model name, and falls back to cl100k_base.
func NewTiktokenCounter(modelOrEncoding string) (*TiktokenCounter, error) {
	if modelOrEncoding == "" {
		modelOrEncoding = defaultEncoding
	}
	if tke, err := tiktoken.GetEncoding(modelOrEncoding); err == nil {
		return &TiktokenCounter{encoding: modelOrEncoding, tke: tke}, nil
	}
	if tke, err := tiktoken.EncodingForModel(modelOrEncoding); err == nil {
		return &TiktokenCounter{encoding: modelOrEncoding, tke: tke}, nil
	}
	tke, err := tiktoken.GetEncoding(defaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get default encoding %q: %w", defaultEncoding, err)
	}
	return &TiktokenCounter{encoding: defaultEncoding, tke: tke}, nil
}

// Count returns the number of BPE tokens in text.
func (c *TiktokenCounter) Count(text string) (int, error) {
	if c == nil || c.tke == nil {
		return 0, fmt.Errorf("tiktoken encoder not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tke.Encode(text, nil, nil)), nil
}

// Encoding returns the encoding or model name the counter was built with.
func (c *TiktokenCounter) Encoding() string {
	return c.encoding
}

// WordCounter counts Unicode word segments, ignoring whitespace segments.
// It needs no network access and is used for offline runs and tests.
type WordCounter struct{}

func (WordCounter) Count(text string) (int, error) {
	n := 0
	for _, seg := range words.SegmentAll([]byte(text)) {
		if !isSpace(seg) {
			n++
		}
	}
	return n, nil
}

func isSpace(seg []byte) bool {
	for _, r := range string(seg) {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
