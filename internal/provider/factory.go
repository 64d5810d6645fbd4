package provider

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// Default model per backend.
const (
	defaultGeminiModel = "gemini-2.0-flash"
	defaultOpenAIModel = "gpt-4o"
	defaultOllamaModel = "llama3"
)

// NewFromEnv constructs a Generator by reading provider configuration from
// environment variables. MODEL_PROVIDER selects the backend; each provider
// uses its own native credential env vars.
//
// Environment variables:
//
//	MODEL_PROVIDER = gemini | openai | ollama (default: gemini)
//
//	Gemini:  GEMINI_API_KEY (or MODEL_API_KEY), GEMINI_MODEL (default: gemini-2.0-flash)
//	OpenAI:  OPENAI_API_KEY (or MODEL_API_KEY), OPENAI_MODEL (default: gpt-4o)
//	Ollama:  OLLAMA_HOST (default: http://localhost:11434), OLLAMA_MODEL (default: llama3)
//
//	Shared:  MODEL_MAX_TOKENS (default: 4096), MODEL_TEMPERATURE (default: 0.2)
func NewFromEnv(ctx context.Context) (Generator, error) {
	backend := Backend(getEnvOrDefault("MODEL_PROVIDER", string(BackendGemini)))

	cfg := &Config{
		Backend:     backend,
		APIKey:      os.Getenv("MODEL_API_KEY"),
		MaxTokens:   getEnvInt("MODEL_MAX_TOKENS", 4096),
		Temperature: getEnvFloat32("MODEL_TEMPERATURE", 0.2),
	}

	switch backend {
	case BackendGemini:
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		}
		cfg.Model = getEnvOrDefault("GEMINI_MODEL", defaultGeminiModel)
	case BackendOpenAI:
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		cfg.Model = getEnvOrDefault("OPENAI_MODEL", defaultOpenAIModel)
	case BackendOllama:
		cfg.BaseURL = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		cfg.Model = getEnvOrDefault("OLLAMA_MODEL", defaultOllamaModel)
	}

	return New(ctx, cfg)
}

// New constructs a Generator from an explicit Config, delegating to the
// appropriate backend constructor. Misconfiguration surfaces here so callers
// get a clear error at startup rather than on the first request.
func New(ctx context.Context, cfg *Config) (Generator, error) {
	switch cfg.Backend {
	case BackendGemini:
		cm, err := newGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &chatGenerator{model: cm}, nil
	case BackendOpenAI:
		cm, err := newOpenAI(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &chatGenerator{model: cm}, nil
	case BackendOllama:
		cm, err := newOllama(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &chatGenerator{model: cm}, nil
	default:
		return nil, fmt.Errorf("provider: unknown backend %q — valid values: gemini, openai, ollama", cfg.Backend)
	}
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvFloat32 returns the float32 value of the named environment variable,
// or fallback if the variable is unset, empty, or not parseable.
func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}
