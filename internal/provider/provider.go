// Package provider selects and constructs LLM backend implementations at
// runtime and wraps them behind the Generator interface the rest of the
// service consumes. Supported backends: Google Gemini, OpenAI, Ollama.
package provider

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
)

// Config holds all provider-level configuration resolved from environment
// variables or explicit caller-supplied values.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	// Model is the model name to use (e.g. "gemini-2.0-flash", "gpt-4o", "llama3").
	Model string

	// BaseURL overrides the default API endpoint (required for Ollama).
	BaseURL string

	// APIKey is the authentication credential for the selected provider.
	APIKey string

	// MaxTokens caps the number of tokens the model may generate per response.
	MaxTokens int

	// Temperature controls response randomness (0.0–1.0).
	Temperature float32
}

// Generator produces a single completion for an instruction/prompt pair.
// Implementations must be safe for concurrent use.
type Generator interface {
	// Generate sends the instruction as the system message and the prompt as
	// the user message, and returns the model's text response.
	Generate(ctx context.Context, instruction, prompt string) (string, error)
}

// chatGenerator adapts an eino ChatModel to the Generator interface.
type chatGenerator struct {
	model model.BaseChatModel
}

// Generate implements Generator.
func (g *chatGenerator) Generate(ctx context.Context, instruction, prompt string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(instruction),
		schema.UserMessage(prompt),
	}
	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
