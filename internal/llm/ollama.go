package llm

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaClient runs completions against a local Ollama server.
type OllamaClient struct {
	model      string
	serverURL  string
	httpClient *http.Client

	mu   sync.Mutex
	llms map[int]*ollama.LLM
}

// NewOllamaClient builds a client for model. An empty serverURL uses the
// library default (OLLAMA_HOST or localhost:11434).
func NewOllamaClient(model, serverURL string, httpClient *http.Client) (*OllamaClient, error) {
	if model == "" {
		return nil, fmt.Errorf("model required")
	}
	return &OllamaClient{
		model:      model,
		serverURL:  serverURL,
		httpClient: httpClient,
		llms:       make(map[int]*ollama.LLM),
	}, nil
}

// Complete runs prompt with temperature 0 and num_ctx set to contextLength.
func (c *OllamaClient) Complete(ctx context.Context, prompt string, contextLength int) (string, error) {
	model, err := c.runner(contextLength)
	if err != nil {
		return "", err
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, model, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("ollama completion (%s): %w", c.model, err)
	}
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// runner returns the langchaingo model for a context length; num_ctx is a
// runner option, so one instance is kept per length.
func (c *OllamaClient) runner(contextLength int) (*ollama.LLM, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if model, ok := c.llms[contextLength]; ok {
		return model, nil
	}
	opts := []ollama.Option{ollama.WithModel(c.model)}
	if c.serverURL != "" {
		opts = append(opts, ollama.WithServerURL(c.serverURL))
	}
	if c.httpClient != nil {
		opts = append(opts, ollama.WithHTTPClient(c.httpClient))
	}
	if contextLength > 0 {
		opts = append(opts, ollama.WithRunnerNumCtx(contextLength))
	}
	model, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
	}
	c.llms[contextLength] = model
	return model, nil
}
