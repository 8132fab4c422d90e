package chunker

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultOverlap is the fraction of the budget carried over between adjacent chunks.
const DefaultOverlap = 0.3

// ErrInvalidBudget is returned when MaxTokens is not positive.
var ErrInvalidBudget = errors.New("chunker: max tokens must be positive")

// Options controls how text is chunked.
type Options struct {
	// MaxTokens is the token budget of a chunk, normally the model's context window.
	MaxTokens int
	// Overlap is the fraction of MaxTokens retained from the tail of the previous
	// chunk. Callers supply a value in [0,1); other values are not validated.
	Overlap float64
}

// DefaultOptions returns Options for the given budget with DefaultOverlap.
func DefaultOptions(maxTokens int) Options {
	return Options{MaxTokens: maxTokens, Overlap: DefaultOverlap}
}

// Chunk is a run of sentences packed under the token budget.
type Chunk struct {
	Index      int
	Text       string
	TokenCount int
	Sentences  []string
	// Retained is the number of leading sentences carried over from the previous chunk.
	Retained int
}

// Counter maps text to a token count. Implementations must be deterministic.
type Counter interface {
	Count(text string) (int, error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(text string) (int, error)

func (f CounterFunc) Count(text string) (int, error) { return f(text) }

// ChunkText splits text into sentences and packs them into overlapping chunks.
func ChunkText(text string, counter Counter, opts Options) ([]Chunk, error) {
	if opts.MaxTokens <= 0 {
		return nil, ErrInvalidBudget
	}
	return Split(SplitSentences(text), counter, opts)
}

// Split greedily packs sentences into chunks of at most opts.MaxTokens tokens.
// When a sentence does not fit, the current chunk is closed and the next one is
// seeded with the shortest suffix of the closed chunk whose token count reaches
// floor(Overlap*MaxTokens), or all of it when the chunk is smaller than that.
//
// A sentence is always admitted into an empty accumulator, so a chunk may exceed
// the budget when it holds a single oversized sentence. A new chunk seeded with
// overlap plus an oversized sentence may exceed it as well; that is kept as is.
func Split(sentences []string, counter Counter, opts Options) ([]Chunk, error) {
	if opts.MaxTokens <= 0 {
		return nil, ErrInvalidBudget
	}
	overlapSize := int(math.Floor(opts.Overlap * float64(opts.MaxTokens)))

	var (
		chunks   []Chunk
		current  []string
		lengths  []int
		length   int
		retained int
	)
	closeChunk := func() {
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Text:       strings.Join(current, " "),
			TokenCount: length,
			Sentences:  append([]string(nil), current...),
			Retained:   retained,
		})
	}

	for _, sentence := range sentences {
		n, err := counter.Count(sentence)
		if err != nil {
			return nil, fmt.Errorf("count tokens: %w", err)
		}
		if len(current) == 0 || length+n <= opts.MaxTokens {
			current = append(current, sentence)
			lengths = append(lengths, n)
			length += n
			continue
		}

		closeChunk()

		keep, keepLength := 0, 0
		for keep < len(current) && keepLength < overlapSize {
			keepLength += lengths[len(lengths)-1-keep]
			keep++
		}
		current = append(append([]string(nil), current[len(current)-keep:]...), sentence)
		lengths = append(append([]int(nil), lengths[len(lengths)-keep:]...), n)
		length = keepLength + n
		retained = keep
	}
	if len(current) > 0 {
		closeChunk()
	}
	return chunks, nil
}

// Texts returns the text of each chunk in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// Core returns the sentences of c that were not carried over from the previous chunk.
func Core(c Chunk) []string {
	if c.Retained >= len(c.Sentences) {
		return nil
	}
	return c.Sentences[c.Retained:]
}
