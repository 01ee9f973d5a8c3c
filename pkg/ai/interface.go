package ai

import "context"

// ComposerService drafts email text from mailbox context. Implement this
// interface to add new AI providers (OpenAI, Ollama, etc.).
type ComposerService interface {
	// GenerateDraft writes a full email body from prior-thread context and a
	// user prompt.
	GenerateDraft(ctx context.Context, emailContext, prompt string) (string, error)
	// CompleteText finishes the sentence the user is typing, Gmail
	// autocomplete style.
	CompleteText(ctx context.Context, input, emailContext string) (string, error)
}

// EmbedderService turns text into a fixed-dimension embedding vector for the
// search index.
type EmbedderService interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
