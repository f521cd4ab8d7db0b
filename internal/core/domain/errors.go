package domain

import "errors"

// Domain errors represent engine failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates no converter handles the file type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrConfigNotFound indicates the configuration file does not exist yet.
	ErrConfigNotFound = errors.New("config not found")

	// Engine Errors.

	// ErrInvalidConfiguration indicates a setting the engine cannot run with,
	// such as a non-positive chunk size. It is fatal: the run aborts before
	// any work and retrying without changing the configuration will not help.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrCollaboratorUnavailable indicates the language model or embedding
	// service was unreachable, timed out, or rejected the call. The engine
	// recovers locally through fallback paths.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrSegmentationAmbiguity indicates two topic proposals resolved to the
	// same anchor. The first listed proposal keeps the span.
	ErrSegmentationAmbiguity = errors.New("segmentation ambiguity")

	// ErrMalformedResponse indicates a model reply could not be coerced
	// into topic proposals.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrEmptyDocument indicates the input held no words.
	// The run still writes a minimal index.
	ErrEmptyDocument = errors.New("empty document")

	// ErrPartitionViolated indicates topic spans failed to cover a chunk
	// exactly once. It signals a segmenter bug, never bad input.
	ErrPartitionViolated = errors.New("partition invariant violated")

	// ErrLLMUnavailable indicates no language model is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates no embedding service is configured.
	// Topics are written without related-topic links.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates no vector store is configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
)
