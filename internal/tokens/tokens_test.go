package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordCounter(t *testing.T) {
	tests := []struct {
		text     string
		expected int
	}{
		{"", 0},
		{"   ", 0},
		{"A.", 2},
		{"Hello, world!", 4},
		{"one two  three", 3},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			n, err := WordCounter{}.Count(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}
}

func TestNewWords(t *testing.T) {
	counter, err := New(KindWords, "")
	require.NoError(t, err)
	assert.IsType(t, WordCounter{}, counter)
}

func TestNewInvalidKind(t *testing.T) {
	_, err := New("bpe", "")
	assert.Error(t, err)
}

func TestTiktokenCounterNil(t *testing.T) {
	var c *TiktokenCounter
	_, err := c.Count("text")
	assert.Error(t, err)
}
