package port

import "context"

// EmbeddingProvider abstracts the embedding backend. Implementations can
// target Ollama, OpenAI, or any compatible API; the service never computes
// embeddings itself.
type EmbeddingProvider interface {
	// ModelName returns the identifier of the embedding model being used.
	ModelName() string

	// Embed generates a fixed-dimension vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}
