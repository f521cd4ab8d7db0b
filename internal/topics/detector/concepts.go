package detector

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/logger"
)

const (
	conceptExcerptChars = 2000
	maxConcepts         = 15
)

// KeyConcepts asks the model for document-wide key concepts from the first
// part of text. Failures return no concepts and a warning.
func (d *Detector) KeyConcepts(ctx context.Context, text string) ([]string, []domain.Warning) {
	if d.llm == nil || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	excerpt := []rune(text)
	if len(excerpt) > conceptExcerptChars {
		excerpt = excerpt[:conceptExcerptChars]
	}
	prompt := fill(loadPrompt(d.prompts, driven.PromptKeyConcepts), map[string]string{"excerpt": string(excerpt)})

	raw, err := d.llm.Generate(ctx, prompt, driven.GenerateOptions{MaxTokens: 512, Temperature: d.temperature})
	if err != nil {
		w := domain.Warn(domain.ErrCollaboratorUnavailable, domain.StageConcepts, "key concept request failed: %v", err)
		logger.Warn("%s", w)
		return nil, []domain.Warning{w}
	}

	concepts := ParseConcepts(raw)
	if len(concepts) == 0 {
		w := domain.Warn(domain.ErrMalformedResponse, domain.StageConcepts, "key concept reply held no concepts")
		logger.Warn("%s", w)
		return nil, []domain.Warning{w}
	}
	return concepts, nil
}

// ParseConcepts reads a JSON array of strings, or one concept per line.
func ParseConcepts(raw string) []string {
	text := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	var items []string
	if i, j := strings.IndexByte(text, '['), strings.LastIndexByte(text, ']'); i >= 0 && j > i {
		if err := json.Unmarshal([]byte(text[i:j+1]), &items); err != nil {
			items = nil
		}
	}
	if items == nil {
		for _, line := range strings.Split(text, "\n") {
			items = append(items, strings.Split(line, ",")...)
		}
	}

	concepts := cleanList(items)
	if len(concepts) > maxConcepts {
		concepts = concepts[:maxConcepts]
	}
	return concepts
}
