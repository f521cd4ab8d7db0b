package detector

import (
	"strings"

	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

const defaultTopicPrompt = `Analyse the following document section and identify between {{min_topics}} and {{max_topics}} distinct topics it covers.

Section headings:
{{headings}}

Section text:
{{text}}

Return a JSON array. Each element must have:
- "title": a short topic name
- "description": one sentence describing the topic
- "keywords": 3 to 6 terms that appear verbatim in the text where the topic begins
- "related_headers": headings from the list above that belong to the topic

Order topics as they appear in the text. Return ONLY the JSON array.`

const defaultStrictTopicPrompt = `Your previous answer could not be parsed. Answer again using ONLY this exact format and nothing else.

Identify between {{min_topics}} and {{max_topics}} topics in the text below, in reading order.

Headings:
{{headings}}

Text:
{{text}}

Output format, one block per topic, blocks separated by a blank line:
TOPIC: <short topic name>
DESCRIPTION: <one sentence>
KEYWORDS: <comma-separated terms copied verbatim from the text>
HEADERS: <comma-separated headings from the list, or leave empty>`

const defaultConceptsPrompt = `List the key concepts of the following document excerpt.
Return ONLY a JSON array of short strings, at most 15 entries.

Excerpt:
{{excerpt}}`

// DefaultPrompts returns the built-in templates keyed by prompt name.
// A PromptStore seeds user-editable files from these.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptTopicDetection:       defaultTopicPrompt,
		driven.PromptTopicDetectionStrict: defaultStrictTopicPrompt,
		driven.PromptKeyConcepts:          defaultConceptsPrompt,
	}
}

// loadPrompt loads a prompt from the store, falling back to the built-in template.
func loadPrompt(store driven.PromptStore, name string) string {
	if store != nil {
		if prompt, err := store.Load(name); err == nil && prompt != "" {
			return prompt
		}
	}
	return DefaultPrompts()[name]
}

// fill substitutes {{name}} placeholders in a template. Unknown
// placeholders and any other text, % signs included, pass through as is.
func fill(template string, values map[string]string) string {
	pairs := make([]string, 0, 2*len(values))
	for name, value := range values {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
