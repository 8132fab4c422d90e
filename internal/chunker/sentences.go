package chunker

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// sentenceBreak matches the whitespace run that follows a sentence terminator.
var sentenceBreak = regexp2.MustCompile(`(?<=[.!?])\s+`, regexp2.None)

// SplitSentences splits text after '.', '!' or '?' when followed by whitespace.
// The whitespace run between sentences is dropped. Abbreviations and decimal
// numbers are not special-cased. Empty or whitespace-only text yields no
// sentences, and empty pieces are never returned.
func SplitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	runes := []rune(text)
	var (
		sentences []string
		start     int
	)
	// Match offsets are rune indices. Errors only come from a match timeout,
	// which sentenceBreak does not set.
	m, _ := sentenceBreak.FindRunesMatch(runes)
	for m != nil {
		if m.Index > start {
			sentences = append(sentences, string(runes[start:m.Index]))
		}
		start = m.Index + m.Length
		m, _ = sentenceBreak.FindNextMatch(m)
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}
