// Provider interfaces. The Groq and Ollama adapters implement them.

package llm

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned by constructors of hosted providers when no
// credential was configured.
var ErrMissingAPIKey = errors.New("api key not configured")

// LLMProvider is the model-agnostic interface for chat models.
// Streaming is not part of the contract.
type LLMProvider interface {
	// ChatCompletion performs a non-streaming chat completion.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}

// Completer is implemented by providers that also expose a raw prompt-in,
// text-out completion endpoint.
type Completer interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}
