package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// InputError reports an invoke input that does not match the pipeline's
// input schema. Handlers map it to 422; every other error is opaque.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// decodeVariables reads a JSON object holding every template variable as a
// string. Extra keys are ignored.
func decodeVariables(raw json.RawMessage, vars []string) (map[string]any, error) {
	if isNull(raw) {
		return nil, &InputError{Field: "input", Reason: "field required"}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &InputError{Field: "input", Reason: "must be an object"}
	}

	values := make(map[string]any, len(vars))
	for _, name := range vars {
		v, ok := obj[name]
		if !ok || isNull(v) {
			return nil, &InputError{Field: "input." + name, Reason: "field required"}
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, &InputError{Field: "input." + name, Reason: "must be a string"}
		}
		values[name] = s
	}
	return values, nil
}

type chatInputMessage struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// decodeChatInput accepts either a plain string (one human turn) or a list of
// {type|role, content} messages.
func decodeChatInput(raw json.RawMessage) ([]llms.ChatMessage, error) {
	if isNull(raw) {
		return nil, &InputError{Field: "input", Reason: "field required"}
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []llms.ChatMessage{llms.HumanChatMessage{Content: text}}, nil
	}

	var items []chatInputMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &InputError{Field: "input", Reason: "must be a string or a list of messages"}
	}
	if len(items) == 0 {
		return nil, &InputError{Field: "input", Reason: "message list is empty"}
	}

	out := make([]llms.ChatMessage, 0, len(items))
	for i, it := range items {
		role := it.Type
		if role == "" {
			role = it.Role
		}
		msg, ok := chatMessageFor(role, it.Content)
		if !ok {
			return nil, &InputError{Field: fmt.Sprintf("input[%d].type", i), Reason: fmt.Sprintf("unknown message type %q", role)}
		}
		out = append(out, msg)
	}
	return out, nil
}

func chatMessageFor(role, content string) (llms.ChatMessage, bool) {
	switch role {
	case "human", "user":
		return llms.HumanChatMessage{Content: content}, true
	case "ai", "assistant":
		return llms.AIChatMessage{Content: content}, true
	case "system":
		return llms.SystemChatMessage{Content: content}, true
	default:
		return nil, false
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
