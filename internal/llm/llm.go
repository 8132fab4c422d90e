package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without content.
var ErrEmptyResponse = errors.New("llm: empty response")

// Client is a completion service. contextLength is the context window the
// model should run with; providers that manage it themselves may ignore it.
type Client interface {
	Complete(ctx context.Context, prompt string, contextLength int) (string, error)
}
