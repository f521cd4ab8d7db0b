package driven

import "context"

// VectorStore is a downstream consumer of topic vectors.
// The engine never reads from it during a split; it only exports.
type VectorStore interface {
	// EnsureCollection creates the collection for the given vector size
	// if it does not exist yet.
	EnsureCollection(ctx context.Context, dimensions int) error

	// Upsert writes points, replacing any with the same ID.
	Upsert(ctx context.Context, points []VectorPoint) error

	// Query returns the k points nearest to the vector.
	Query(ctx context.Context, vector []float32, k int) ([]VectorMatch, error)

	// DeleteBySource removes every point exported from the given source.
	DeleteBySource(ctx context.Context, source string) error

	// Close releases resources.
	Close() error
}

// VectorPoint is one exported topic.
type VectorPoint struct {
	// ID is a stable identifier derived from source and topic ID.
	ID string

	// Vector is the topic embedding.
	Vector []float32

	// Payload carries source, topic_id, title, chunk_index and content.
	Payload map[string]any
}

// VectorMatch is a query result.
type VectorMatch struct {
	// ID is the matched point.
	ID string

	// Score is the store's similarity score.
	Score float64

	// Payload is the point's payload.
	Payload map[string]any
}
