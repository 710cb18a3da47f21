package pipeline

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Kind selects how a model's answer is shaped in the invoke envelope.
type Kind string

const (
	// KindChat models answer with an AI message object.
	KindChat Kind = "chat"
	// KindLLM models answer with a raw string.
	KindLLM Kind = "llm"
)

// Definition describes one pipeline route in the catalog.
type Definition struct {
	Path           string   `yaml:"path"`
	Provider       string   `yaml:"provider"`
	Model          string   `yaml:"model,omitempty"`
	Kind           Kind     `yaml:"kind"`
	Template       string   `yaml:"template,omitempty"`
	InputVariables []string `yaml:"input_variables,omitempty"`
}

type catalogFile struct {
	Pipelines []Definition `yaml:"pipelines"`
}

// DefaultCatalog returns the built-in /chat/groq, /essay and /poem definitions.
func DefaultCatalog() ([]Definition, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file, or the built-in catalog when path is empty.
func LoadCatalog(path string) ([]Definition, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline catalog: read %s: %w", path, err)
	}
	defs, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("pipeline catalog %s: %w", path, err)
	}
	return defs, nil
}

// ParseCatalog decodes and validates catalog YAML. Definition order is kept,
// since it is the registration order.
func ParseCatalog(data []byte) ([]Definition, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(f.Pipelines) == 0 {
		return nil, fmt.Errorf("no pipelines defined")
	}

	seen := make(map[string]bool, len(f.Pipelines))
	for i := range f.Pipelines {
		d := &f.Pipelines[i]
		if d.Kind == "" {
			d.Kind = KindChat
		}
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("pipeline %d (%s): %w", i, d.Path, err)
		}
		if seen[d.Path] {
			return nil, fmt.Errorf("duplicate pipeline path %s", d.Path)
		}
		seen[d.Path] = true
	}
	return f.Pipelines, nil
}

func (d Definition) validate() error {
	if !strings.HasPrefix(d.Path, "/") || strings.HasSuffix(d.Path, "/") {
		return fmt.Errorf("path must start with / and not end with /")
	}
	if d.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if d.Kind != KindChat && d.Kind != KindLLM {
		return fmt.Errorf("unknown kind %q", d.Kind)
	}
	if d.Template != "" && len(d.InputVariables) == 0 {
		return fmt.Errorf("template requires input_variables")
	}
	if d.Template == "" && len(d.InputVariables) > 0 {
		return fmt.Errorf("input_variables without a template")
	}
	return nil
}
