package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Cache stores chunk summaries so reruns of the same model, prompt and chunk
// skip the model call.
type Cache interface {
	// GetSummary returns the cached summary and whether it was found.
	GetSummary(ctx context.Context, key string) (string, bool, error)

	// SetSummary stores a summary with TTL
	SetSummary(ctx context.Context, key, summary string, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// Key derives a cache key from everything that determines a completion.
func Key(model string, contextLength int, prompt, text string) string {
	h := sha256.New()
	for _, part := range []string{model, strconv.Itoa(contextLength), prompt, text} {
		h.Write([]byte(strconv.Itoa(len(part))))
		h.Write([]byte{':'})
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
