package driven

import "context"

// EmbeddingService generates dense vector embeddings from text.
//
// Implementations may include:
//   - A local deterministic hash-based embedder (tests, air-gapped mode)
//   - A remote HTTP embedding service
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size. This must match the
	// vector store's collection configuration.
	Dimensions() int

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
