// Package pipeline composes a prompt template with a model binding and
// serves the result as an invoke operation.
//
// A Pipeline is built once at startup and is immutable afterwards, so a
// single value is shared by every concurrent request.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

// Info describes a mounted pipeline for the /pipelines listing.
type Info struct {
	Path     string `json:"path"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Kind     Kind   `json:"kind"`
}

// Pipeline is template → model. Without a template the caller's chat input
// goes to the model unchanged.
type Pipeline struct {
	def    Definition
	model  Model
	prompt *prompts.ChatPromptTemplate
}

// New validates the definition's template against its input variables and
// binds it to model.
func New(def Definition, model Model) (*Pipeline, error) {
	if model == nil {
		return nil, fmt.Errorf("pipeline %s: nil model", def.Path)
	}
	if model.Kind() != def.Kind {
		return nil, fmt.Errorf("pipeline %s: model kind %q does not match definition kind %q", def.Path, model.Kind(), def.Kind)
	}

	p := &Pipeline{def: def, model: model}
	if def.Template == "" {
		return p, nil
	}

	tmpl := prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
		prompts.HumanMessagePromptTemplate{
			Prompt: prompts.PromptTemplate{
				Template:       def.Template,
				InputVariables: def.InputVariables,
				TemplateFormat: prompts.TemplateFormatFString,
			},
		},
	})

	used := placeholders(def.Template)
	for _, v := range def.InputVariables {
		if !lo.Contains(used, v) {
			return nil, fmt.Errorf("pipeline %s: template does not use input variable %q", def.Path, v)
		}
	}
	if extra, _ := lo.Difference(used, def.InputVariables); len(extra) > 0 {
		return nil, fmt.Errorf("pipeline %s: template uses undeclared variables %v", def.Path, extra)
	}

	probe := lo.SliceToMap(def.InputVariables, func(v string) (string, any) { return v, "x" })
	if _, err := tmpl.FormatMessages(probe); err != nil {
		return nil, fmt.Errorf("pipeline %s: template: %w", def.Path, err)
	}

	p.prompt = &tmpl
	return p, nil
}

// Path is the route prefix, e.g. "/essay".
func (p *Pipeline) Path() string { return p.def.Path }

// Kind reports the output shape.
func (p *Pipeline) Kind() Kind { return p.def.Kind }

// Info returns the listing entry for this pipeline.
func (p *Pipeline) Info() Info {
	return Info{Path: p.def.Path, Provider: p.def.Provider, Model: p.def.Model, Kind: p.def.Kind}
}

// Expand turns the raw "input" value into the messages sent to the model.
// Shape problems are returned as *InputError.
func (p *Pipeline) Expand(input json.RawMessage) ([]llms.ChatMessage, error) {
	if p.prompt == nil {
		return decodeChatInput(input)
	}
	values, err := decodeVariables(input, p.def.InputVariables)
	if err != nil {
		return nil, err
	}
	msgs, err := p.prompt.FormatMessages(values)
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}
	return msgs, nil
}

// Invoke expands input and calls the model. The returned value is either an
// AIMessage (chat) or a string (llm).
func (p *Pipeline) Invoke(ctx context.Context, input json.RawMessage) (any, error) {
	msgs, err := p.Expand(input)
	if err != nil {
		return nil, err
	}
	out, err := p.model.Invoke(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.def.Path, err)
	}
	return out, nil
}

// InputSchema returns a JSON schema for the "input" field.
func (p *Pipeline) InputSchema() map[string]any {
	if p.prompt == nil {
		return map[string]any{
			"title": "ChatInput",
			"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"type":    map[string]any{"type": "string", "enum": []string{"human", "ai", "system"}},
							"content": map[string]any{"type": "string"},
						},
						"required": []string{"content"},
					},
				},
			},
		}
	}

	props := make(map[string]any, len(p.def.InputVariables))
	for _, v := range p.def.InputVariables {
		props[v] = map[string]any{"title": titleCase(v), "type": "string"}
	}
	return map[string]any{
		"title":      "PromptInput",
		"type":       "object",
		"properties": props,
		"required":   p.def.InputVariables,
	}
}

// placeholders lists the {name} fields of an f-string template. Doubled
// braces are literal and skipped.
func placeholders(tmpl string) []string {
	var out []string
	for i := 0; i < len(tmpl); i++ {
		switch {
		case strings.HasPrefix(tmpl[i:], "{{"), strings.HasPrefix(tmpl[i:], "}}"):
			i++
		case tmpl[i] == '{':
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return out
			}
			out = append(out, tmpl[i+1:i+1+end])
			i += end + 1
		}
	}
	return lo.Uniq(out)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
