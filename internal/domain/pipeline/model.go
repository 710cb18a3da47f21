package pipeline

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/matiasleandrokruk/inkwell/internal/infra/llm"
)

// Model is the second stage of a pipeline: it turns formatted messages into
// the value placed under "output" in the invoke envelope.
type Model interface {
	Kind() Kind
	Invoke(ctx context.Context, msgs []llms.ChatMessage) (any, error)
}

// AIMessage is the output of chat models.
type AIMessage struct {
	Content          string           `json:"content"`
	Type             string           `json:"type"`
	ID               string           `json:"id,omitempty"`
	ResponseMetadata ResponseMetadata `json:"response_metadata"`
}

// ResponseMetadata carries what the provider reported about the completion.
type ResponseMetadata struct {
	ModelName    string `json:"model_name,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	TotalTokens  int    `json:"total_tokens,omitempty"`
}

// NewModel binds a provider to a model name. KindLLM requires the provider to
// implement llm.Completer.
func NewModel(kind Kind, provider llm.LLMProvider, model string) (Model, error) {
	switch kind {
	case KindChat:
		return &chatModel{provider: provider, model: model}, nil
	case KindLLM:
		c, ok := provider.(llm.Completer)
		if !ok {
			return nil, fmt.Errorf("provider %s cannot serve raw completions", provider.ModelInfo().Provider)
		}
		return &textModel{completer: c, model: model}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

type chatModel struct {
	provider llm.LLMProvider
	model    string
}

func (m *chatModel) Kind() Kind { return KindChat }

func (m *chatModel) Invoke(ctx context.Context, msgs []llms.ChatMessage) (any, error) {
	resp, err := m.provider.ChatCompletion(ctx, llm.ChatRequest{
		Model:    m.model,
		Messages: toProviderMessages(msgs),
	})
	if err != nil {
		return nil, err
	}
	return AIMessage{
		Content: resp.Content,
		Type:    "ai",
		ID:      resp.ID,
		ResponseMetadata: ResponseMetadata{
			ModelName:    resp.Model,
			FinishReason: resp.StopReason,
			TotalTokens:  resp.Tokens,
		},
	}, nil
}

type textModel struct {
	completer llm.Completer
	model     string
}

func (m *textModel) Kind() Kind { return KindLLM }

// Invoke flattens the messages into a "Human: ..." transcript, which is what a
// completion model receives when a chat prompt is piped into it.
func (m *textModel) Invoke(ctx context.Context, msgs []llms.ChatMessage) (any, error) {
	prompt, err := llms.GetBufferString(msgs, "Human", "AI")
	if err != nil {
		return nil, fmt.Errorf("flatten prompt: %w", err)
	}
	resp, err := m.completer.Generate(ctx, llm.GenerateRequest{
		Model:  m.model,
		Prompt: prompt,
	})
	if err != nil {
		return nil, err
	}
	return resp.Text, nil
}

func toProviderMessages(msgs []llms.ChatMessage) []llm.Message {
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		role := llm.RoleUser
		switch m.GetType() {
		case llms.ChatMessageTypeSystem:
			role = llm.RoleSystem
		case llms.ChatMessageTypeAI:
			role = llm.RoleAssistant
		}
		out[i] = llm.Message{Role: role, Content: m.GetContent()}
	}
	return out
}
