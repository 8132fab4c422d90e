package llm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownModel is returned for models missing from the catalog.
var ErrUnknownModel = errors.New("llm: unknown model")

// Factory builds a client for one model of a provider.
type Factory func(model string) (Client, error)

// Registry hands out one client per model, built by the factory of the
// provider the model is configured with.
type Registry struct {
	mu        sync.Mutex
	providers map[string]string
	factories map[string]Factory
	clients   map[string]Client
}

// NewRegistry creates a registry from a model name to provider mapping.
func NewRegistry(providers map[string]string) *Registry {
	p := make(map[string]string, len(providers))
	for model, provider := range providers {
		p[model] = provider
	}
	return &Registry{
		providers: p,
		factories: make(map[string]Factory),
		clients:   make(map[string]Client),
	}
}

// Register sets the factory used for a provider.
func (r *Registry) Register(provider string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[provider] = f
}

// Client returns the client for model, building it on first use.
func (r *Registry) Client(model string) (Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[model]; ok {
		return c, nil
	}
	provider, ok := r.providers[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	factory, ok := r.factories[provider]
	if !ok {
		return nil, fmt.Errorf("no factory registered for provider %q (model %s)", provider, model)
	}
	c, err := factory(model)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s client for %s: %w", provider, model, err)
	}
	r.clients[model] = c
	return c, nil
}

// Models returns the configured model names in sorted order.
func (r *Registry) Models() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.providers))
	for model := range r.providers {
		out = append(out, model)
	}
	sort.Strings(out)
	return out
}
