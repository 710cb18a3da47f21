// Package llm defines the model-agnostic provider abstraction used by pipelines.
// All types here are shared between the provider interfaces and the adapters.
package llm

// Role values accepted in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// ChatRequest is the input for a non-streaming chat completion.
type ChatRequest struct {
	// Model overrides the provider default when non-empty.
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// ChatResponse is the output from a non-streaming chat completion.
type ChatResponse struct {
	ID         string // Provider-assigned completion id, if any.
	Model      string // Model that actually served the request.
	Content    string // The assistant message text.
	StopReason string // "stop" | "length" | "error"
	Tokens     int    // Total tokens consumed (prompt + completion).
}

// GenerateRequest is the input for a raw text completion.
type GenerateRequest struct {
	// Model overrides the provider default when non-empty.
	Model       string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// GenerateResponse is the output from a raw text completion.
type GenerateResponse struct {
	Text       string
	StopReason string
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID        string // e.g. "llama-3.3-70b-versatile", "gemma3:1b"
	Provider  string // e.g. "groq", "ollama"
	Version   string
	MaxTokens int // Maximum context window size.
}
