// Router resolves a provider by key at pipeline registration time and keeps
// the construction error of providers that could not be built.

package llm

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Router maps provider keys ("groq", "ollama") to constructed providers.
type Router struct {
	providers       map[string]LLMProvider
	unavailable     map[string]error
	defaultProvider string
}

// NewRouter creates a Router with an initial set of providers and a default key.
func NewRouter(providers map[string]LLMProvider, defaultProvider string) *Router {
	// copy so the caller cannot mutate the internal map.
	ps := make(map[string]LLMProvider, len(providers))
	for k, v := range providers {
		ps[k] = v
	}
	return &Router{
		providers:       ps,
		unavailable:     make(map[string]error),
		defaultProvider: defaultProvider,
	}
}

// Register adds (or replaces) a provider under the given key.
func (r *Router) Register(key string, p LLMProvider) {
	r.providers[key] = p
	delete(r.unavailable, key)
}

// MarkUnavailable records why the provider under key could not be built.
func (r *Router) MarkUnavailable(key string, err error) {
	delete(r.providers, key)
	r.unavailable[key] = err
}

// Route returns the provider registered under key, or the default provider
// when key is empty.
func (r *Router) Route(_ context.Context, key string) (LLMProvider, error) {
	if key == "" {
		key = r.defaultProvider
	}
	if p, ok := r.providers[key]; ok {
		return p, nil
	}
	if cause, ok := r.unavailable[key]; ok {
		return nil, fmt.Errorf("llm router: provider %q unavailable: %w", key, cause)
	}
	return nil, fmt.Errorf("llm router: provider %q not registered (available: %v)", key, r.Keys())
}

// Keys returns the registered provider names in sorted order.
func (r *Router) Keys() []string {
	keys := lo.Keys(r.providers)
	sort.Strings(keys)
	return keys
}

// Health runs HealthCheck on every registered provider. Unavailable providers
// are reported with their construction error.
func (r *Router) Health(ctx context.Context) map[string]error {
	out := make(map[string]error, len(r.providers)+len(r.unavailable))
	for k, p := range r.providers {
		out[k] = p.HealthCheck(ctx)
	}
	for k, err := range r.unavailable {
		out[k] = err
	}
	return out
}
