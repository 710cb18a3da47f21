package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const essayTemplate = "Write to me an essay about {topic} in less than 100 words."
const poemTemplate = "Write to me a poem about {topic} for a 5-year-old child with 100 words."

func mustPipeline(t *testing.T, def Definition, p *stubProvider) *Pipeline {
	t.Helper()
	model, err := NewModel(def.Kind, p, def.Model)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	pl, err := New(def, model)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return pl
}

func TestPipeline_Essay_ExpandsTemplateAndReturnsAIMessage(t *testing.T) {
	t.Parallel()

	groq := &stubProvider{name: "groq", model: "llama-3.3-70b-versatile", reply: "An essay."}
	pl := mustPipeline(t, Definition{
		Path: "/essay", Provider: "groq", Model: "llama-3.3-70b-versatile", Kind: KindChat,
		Template: essayTemplate, InputVariables: []string{"topic"},
	}, groq)

	out, err := pl.Invoke(context.Background(), json.RawMessage(`{"topic":"climate change"}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	msg, ok := out.(AIMessage)
	if !ok {
		t.Fatalf("expected AIMessage output, got %T", out)
	}
	if msg.Content != "An essay." || msg.Type != "ai" {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.ResponseMetadata.FinishReason != "stop" || msg.ResponseMetadata.TotalTokens != 42 {
		t.Errorf("unexpected metadata %+v", msg.ResponseMetadata)
	}

	if len(groq.lastChat.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(groq.lastChat.Messages))
	}
	sent := groq.lastChat.Messages[0]
	if sent.Role != "user" {
		t.Errorf("expected user role, got %q", sent.Role)
	}
	if sent.Content != "Write to me an essay about climate change in less than 100 words." {
		t.Errorf("unexpected expansion %q", sent.Content)
	}
	if groq.lastChat.Model != "llama-3.3-70b-versatile" {
		t.Errorf("expected model forwarded, got %q", groq.lastChat.Model)
	}
}

func TestPipeline_Poem_FlattensPromptAndReturnsString(t *testing.T) {
	t.Parallel()

	ollama := &stubProvider{name: "ollama", model: "gemma3:1b", reply: "Roses are red."}
	pl := mustPipeline(t, Definition{
		Path: "/poem", Provider: "ollama", Model: "gemma3:1b", Kind: KindLLM,
		Template: poemTemplate, InputVariables: []string{"topic"},
	}, ollama)

	out, err := pl.Invoke(context.Background(), json.RawMessage(`{"topic":"nature"}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	text, ok := out.(string)
	if !ok {
		t.Fatalf("expected string output, got %T", out)
	}
	if text != "Roses are red." {
		t.Errorf("unexpected text %q", text)
	}
	want := "Human: Write to me a poem about nature for a 5-year-old child with 100 words."
	if ollama.lastGen.Prompt != want {
		t.Errorf("prompt = %q, want %q", ollama.lastGen.Prompt, want)
	}
}

func TestPipeline_ChatPassthrough(t *testing.T) {
	t.Parallel()

	groq := &stubProvider{name: "groq", model: "llama", reply: "hi there"}
	pl := mustPipeline(t, Definition{Path: "/chat/groq", Provider: "groq", Kind: KindChat}, groq)

	tests := []struct {
		name      string
		input     string
		wantRoles []string
	}{
		{name: "string", input: `"hello"`, wantRoles: []string{"user"}},
		{name: "typed list", input: `[{"type":"system","content":"be nice"},{"type":"human","content":"hi"}]`, wantRoles: []string{"system", "user"}},
		{name: "role list", input: `[{"role":"user","content":"hi"},{"role":"assistant","content":"yo"},{"role":"user","content":"again"}]`, wantRoles: []string{"user", "assistant", "user"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := pl.Invoke(context.Background(), json.RawMessage(tt.input)); err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			groq.mu.Lock()
			msgs := groq.lastChat.Messages
			groq.mu.Unlock()
			if len(msgs) != len(tt.wantRoles) {
				t.Fatalf("expected %d messages, got %d", len(tt.wantRoles), len(msgs))
			}
			for i, role := range tt.wantRoles {
				if msgs[i].Role != role {
					t.Errorf("message %d role = %q, want %q", i, msgs[i].Role, role)
				}
			}
		})
	}
}

func TestPipeline_InvalidInput(t *testing.T) {
	t.Parallel()

	groq := &stubProvider{name: "groq", model: "llama", reply: "x"}
	essay := mustPipeline(t, Definition{
		Path: "/essay", Provider: "groq", Kind: KindChat,
		Template: essayTemplate, InputVariables: []string{"topic"},
	}, groq)
	chat := mustPipeline(t, Definition{Path: "/chat/groq", Provider: "groq", Kind: KindChat}, groq)

	tests := []struct {
		name      string
		pl        *Pipeline
		input     string
		wantField string
	}{
		{name: "essay missing input", pl: essay, input: ``, wantField: "input"},
		{name: "essay null input", pl: essay, input: `null`, wantField: "input"},
		{name: "essay not object", pl: essay, input: `"climate"`, wantField: "input"},
		{name: "essay missing topic", pl: essay, input: `{"subject":"x"}`, wantField: "input.topic"},
		{name: "essay numeric topic", pl: essay, input: `{"topic":7}`, wantField: "input.topic"},
		{name: "chat number", pl: chat, input: `42`, wantField: "input"},
		{name: "chat empty list", pl: chat, input: `[]`, wantField: "input"},
		{name: "chat bad type", pl: chat, input: `[{"type":"robot","content":"x"}]`, wantField: "input[0].type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.pl.Invoke(context.Background(), json.RawMessage(tt.input))
			var inErr *InputError
			if !errors.As(err, &inErr) {
				t.Fatalf("expected *InputError, got %v", err)
			}
			if inErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", inErr.Field, tt.wantField)
			}
		})
	}
}

func TestPipeline_EmptyTopicIsForwarded(t *testing.T) {
	t.Parallel()

	groq := &stubProvider{name: "groq", model: "llama", reply: "x"}
	pl := mustPipeline(t, Definition{
		Path: "/essay", Provider: "groq", Kind: KindChat,
		Template: essayTemplate, InputVariables: []string{"topic"},
	}, groq)

	if _, err := pl.Invoke(context.Background(), json.RawMessage(`{"topic":""}`)); err != nil {
		t.Fatalf("empty topic should reach the model, got %v", err)
	}
}

func TestPipeline_ModelErrorIsWrapped(t *testing.T) {
	t.Parallel()

	boom := errors.New("upstream 503")
	groq := &stubProvider{name: "groq", model: "llama", err: boom}
	pl := mustPipeline(t, Definition{Path: "/chat/groq", Provider: "groq", Kind: KindChat}, groq)

	_, err := pl.Invoke(context.Background(), json.RawMessage(`"hi"`))
	if !errors.Is(err, boom) {
		t.Fatalf("expected upstream error in chain, got %v", err)
	}
	var inErr *InputError
	if errors.As(err, &inErr) {
		t.Error("model failures must not look like input errors")
	}
}

func TestNew_RejectsBadTemplates(t *testing.T) {
	t.Parallel()

	p := &stubProvider{name: "groq", model: "llama"}
	model, _ := NewModel(KindChat, p, "llama")

	tests := []struct {
		name string
		def  Definition
	}{
		{name: "undeclared placeholder", def: Definition{Path: "/x", Kind: KindChat, Template: "about {topic} and {mood}", InputVariables: []string{"topic"}}},
		{name: "unused variable", def: Definition{Path: "/x", Kind: KindChat, Template: "static text", InputVariables: []string{"topic"}}},
		{name: "kind mismatch", def: Definition{Path: "/x", Kind: KindLLM}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.def, model); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestNewModel_LLMNeedsCompleter(t *testing.T) {
	t.Parallel()

	_, err := NewModel(KindLLM, chatOnlyProvider{&stubProvider{name: "groq"}}, "llama")
	if err == nil || !strings.Contains(err.Error(), "raw completions") {
		t.Fatalf("expected raw completions error, got %v", err)
	}
}

func TestPipeline_InputSchema(t *testing.T) {
	t.Parallel()

	p := &stubProvider{name: "groq", model: "llama"}
	essay := mustPipeline(t, Definition{
		Path: "/essay", Provider: "groq", Kind: KindChat,
		Template: essayTemplate, InputVariables: []string{"topic"},
	}, p)

	schema := essay.InputSchema()
	if schema["type"] != "object" {
		t.Errorf("expected object schema, got %v", schema["type"])
	}
	props, _ := schema["properties"].(map[string]any)
	if _, ok := props["topic"]; !ok {
		t.Errorf("expected topic property, got %v", props)
	}

	chat := mustPipeline(t, Definition{Path: "/chat/groq", Provider: "groq", Kind: KindChat}, p)
	if _, ok := chat.InputSchema()["anyOf"]; !ok {
		t.Error("expected anyOf schema for chat input")
	}
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tmpl string
		want []string
	}{
		{tmpl: essayTemplate, want: []string{"topic"}},
		{tmpl: "{a} and {b} and {a}", want: []string{"a", "b"}},
		{tmpl: "literal {{braces}} and {x}", want: []string{"x"}},
		{tmpl: "no fields", want: nil},
	}
	for _, tt := range tests {
		got := placeholders(tt.tmpl)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("placeholders(%q) = %v, want %v", tt.tmpl, got, tt.want)
		}
	}
}
