package ai

import "context"

// Runtime is implemented by text-generation backends: the Gemini REST API,
// OpenAI-compatible endpoints and a local Ollama.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Providers lists the registered provider names in display order.
func Providers() []string {
	return []string{ProviderGemini, ProviderOpenAI, ProviderOllama}
}
