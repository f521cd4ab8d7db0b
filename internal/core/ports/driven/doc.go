// Package driven declares what the engine needs from the outside world.
//
// Converters and the prompt store are always present. The LLM, embedding
// service, embedding cache and vector store may each be nil: without an LLM
// topics come from headings, without embeddings topics are written unlinked,
// and export is skipped with a warning when no vector store is set.
package driven
