package driven

import "context"

// EmbeddingService turns topic text into vectors for linking and export.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is zero until the first call when the model does not
	// advertise its size.
	Dimensions() int
	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}

// CorpusFitter is an optional interface for embedders that learn their
// vocabulary from the texts of one run before embedding them.
type CorpusFitter interface {
	// Fit builds a model from the given corpus and returns an embedder
	// bound to it. The receiver is not modified, so concurrent runs
	// each fit their own model.
	Fit(texts []string) EmbeddingService
}

// EmbeddingCache stores embeddings by content key.
// Keys are derived from the model name and the embedded text.
type EmbeddingCache interface {
	// Get returns the cached vector, or false when absent.
	Get(ctx context.Context, key string) ([]float32, bool, error)

	// Put stores a vector under the key, replacing any previous value.
	Put(ctx context.Context, key string, vector []float32) error

	// Close releases resources.
	Close() error
}
