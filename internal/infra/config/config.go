// Package config provides application-wide configuration loaded from env vars.
// All fields have safe defaults so the gateway starts locally without any env setup;
// missing credentials are reported as warnings rather than errors.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the inkwell gateway.
// It is built once in main and passed by value; nothing reads the
// environment after Load returns.
type Config struct {
	// Credentials
	GroqAPIKey      string `env:"GROQ_API_KEY"`
	LangchainAPIKey string `env:"LANGCHAIN_API_KEY"`
	// TracingEnabled is always true after Load; the flag is kept so the
	// startup log shows the effective setting.
	TracingEnabled bool `env:"LANGCHAIN_TRACING_V2"`

	// HTTP listener
	Host string `env:"INKWELL_HOST" default:"localhost"`
	Port int    `env:"INKWELL_PORT" default:"8000"`

	// LLM
	GroqBaseURL   string `env:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
	GroqModel     string `env:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`
	OllamaBaseURL string `env:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	OllamaModel   string `env:"OLLAMA_MODEL" default:"gemma3:1b"`

	// Pipelines
	PipelinesFile    string `env:"INKWELL_PIPELINES_FILE"`
	BatchConcurrency int    `env:"INKWELL_BATCH_CONCURRENCY" default:"4"`

	LogLevel string `env:"INKWELL_LOG_LEVEL" default:"info"`
}

const (
	envKeyGroqAPIKey      = "GROQ_API_KEY"
	envKeyLangchainAPIKey = "LANGCHAIN_API_KEY"
)

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read environment: %w", err)
	}
	cfg.TracingEnabled = true

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the gateway cannot start with. Credentials are not
// checked here; see Warnings.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: INKWELL_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("config: INKWELL_BATCH_CONCURRENCY must be at least 1, got %d", c.BatchConcurrency)
	}
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("config: INKWELL_HOST is empty")
	}
	return nil
}

// Warnings lists missing credentials. The gateway still starts; routes bound
// to the affected provider fail to register instead.
func (c Config) Warnings() []string {
	var out []string
	if c.GroqAPIKey == "" {
		out = append(out, envKeyGroqAPIKey+" not set. Groq routes may fail.")
	}
	if c.LangchainAPIKey == "" {
		out = append(out, envKeyLangchainAPIKey+" not set. Tracing may not work.")
	}
	return out
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
