package ai

import "fmt"

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "openai", "ollama" or "auto"

	// OpenAI config
	OpenAIAPIKey string

	// Ollama config
	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama3", "mistral"
}

// NewComposerService creates a ComposerService based on the config.
// This is the factory function - switch AI provider by changing cfg.Provider.
func NewComposerService(cfg Config) (ComposerService, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIService(cfg.OpenAIAPIKey), nil

	case ProviderOllama:
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	default:
		// Prefer OpenAI when a key is available, keep Ollama as the local
		// fallback for connection failures.
		if cfg.OpenAIAPIKey != "" {
			return NewFallbackService(
				NewOpenAIService(cfg.OpenAIAPIKey),
				NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel),
			), nil
		}
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	}
}

// NewEmbedderService creates the embedding provider. Only OpenAI produces
// vectors matching the index schema dimension; without a key the pipeline
// runs lexical-only and callers get a nil embedder.
func NewEmbedderService(cfg Config) (EmbedderService, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for embeddings")
	}
	return NewOpenAIService(cfg.OpenAIAPIKey), nil
}
