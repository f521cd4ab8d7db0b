package driven

// PromptStore serves prompt templates by name.
type PromptStore interface {
	// Load returns the named template. Callers fall back to their built-in
	// default on error.
	Load(name string) (string, error)

	// Reload drops cached templates so edits on disk take effect.
	Reload()
}

// Prompt names shared by the detector and the prompt store.
const (
	// PromptTopicDetection asks for topic proposals for one chunk.
	// Placeholders: {{min_topics}}, {{max_topics}}, {{headings}} (heading
	// outline) and {{text}} (chunk text).
	PromptTopicDetection = "topic_detection"

	// PromptTopicDetectionStrict is the retry prompt sent after a malformed
	// response. It takes the same placeholders as PromptTopicDetection.
	PromptTopicDetectionStrict = "topic_detection_strict"

	// PromptKeyConcepts asks for document-wide key concepts.
	// The template takes an {{excerpt}} placeholder for the document excerpt.
	PromptKeyConcepts = "key_concepts"
)

// PromptNames returns every well-known prompt name.
func PromptNames() []string {
	return []string{PromptTopicDetection, PromptTopicDetectionStrict, PromptKeyConcepts}
}

// PromptStoreAware is implemented by components whose prompts can be
// replaced after construction.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
