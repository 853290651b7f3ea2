package embed

import "context"

// Embedder turns text into vectors for similarity search. Implementations
// must be safe for concurrent use; both the search path and indexing
// workers call them.
type Embedder interface {
	// EmbedText embeds a single string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds a batch in one call, returning vectors in input
	// order. Prefer this over repeated EmbedText calls when the texts are
	// known up front.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
