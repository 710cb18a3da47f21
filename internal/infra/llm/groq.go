// Groq adapter. Groq serves an OpenAI-compatible API, so GroqProvider drives
// it with the openai-go client pointed at the Groq base URL.

package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const groqDefaultTimeout = 60 * time.Second

// GroqProvider implements LLMProvider against the Groq chat completions API.
type GroqProvider struct {
	client openai.Client
	model  string
}

// NewGroqProvider builds a provider for the given base URL and model.
// It fails with ErrMissingAPIKey when apiKey is empty, which is what keeps
// Groq-backed pipelines from registering without a credential.
// Extra request options are appended last (tests use them to disable retries).
func NewGroqProvider(baseURL, apiKey, model string, opts ...option.RequestOption) (*GroqProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq: %w", ErrMissingAPIKey)
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(groqDefaultTimeout),
	}
	reqOpts = append(reqOpts, opts...)

	return &GroqProvider{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}, nil
}

// ChatCompletion performs a non-streaming chat via POST /chat/completions.
func (p *GroqProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.Temperature != 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}
	if req.MaxTokens != 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("groq chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("groq chat completion: empty choices")
	}

	choice := completion.Choices[0]
	return &ChatResponse{
		ID:         completion.ID,
		Model:      completion.Model,
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Tokens:     int(completion.Usage.TotalTokens),
	}, nil
}

// toOpenAIMessages maps roles onto the openai-go message constructors.
// Unknown roles are sent as user turns.
func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// ModelInfo returns static metadata for this provider/model.
func (p *GroqProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "groq",
		Version:   "openai/v1",
		MaxTokens: 131072,
	}
}

// HealthCheck lists models; it returns nil if the API accepts the credential.
func (p *GroqProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("groq healthcheck: %w", err)
	}
	return nil
}
