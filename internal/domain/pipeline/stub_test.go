package pipeline

import (
	"context"
	"sync"

	"github.com/matiasleandrokruk/inkwell/internal/infra/llm"
)

// stubProvider records the last request and answers with fixed text.
// It implements both llm.LLMProvider and llm.Completer.
type stubProvider struct {
	name  string
	model string
	reply string
	err   error

	mu       sync.Mutex
	lastChat llm.ChatRequest
	lastGen  llm.GenerateRequest
}

func (s *stubProvider) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.mu.Lock()
	s.lastChat = req
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{ID: "run-1", Model: req.Model, Content: s.reply, StopReason: "stop", Tokens: 42}, nil
}

func (s *stubProvider) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	s.mu.Lock()
	s.lastGen = req
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &llm.GenerateResponse{Text: s.reply, StopReason: "stop"}, nil
}

func (s *stubProvider) ModelInfo() llm.ModelMeta {
	return llm.ModelMeta{ID: s.model, Provider: s.name}
}

func (s *stubProvider) HealthCheck(_ context.Context) error { return nil }

// chatOnlyProvider hides Generate so it cannot back an llm pipeline.
type chatOnlyProvider struct{ llm.LLMProvider }
