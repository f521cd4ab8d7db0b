package detector

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/custodia-labs/topicnet/internal/core/domain"
)

// ParseStatus tags a ParseResult.
type ParseStatus int

// Parse outcomes.
const (
	// ParseMalformed means the response could not be coerced into proposals.
	ParseMalformed ParseStatus = iota

	// ParseParsed means at least one valid proposal was extracted.
	ParseParsed
)

// String returns the string representation.
func (s ParseStatus) String() string {
	if s == ParseParsed {
		return "parsed"
	}
	return "malformed"
}

// ParseResult is either Parsed(proposals) or Malformed(reason).
type ParseResult struct {
	Status    ParseStatus
	Proposals []domain.TopicProposal
	Reason    string
}

// OK reports whether the result carries proposals.
func (r ParseResult) OK() bool {
	return r.Status == ParseParsed
}

// Parsed builds a successful result.
func Parsed(proposals []domain.TopicProposal) ParseResult {
	return ParseResult{Status: ParseParsed, Proposals: proposals}
}

// Malformed builds a failed result.
func Malformed(reason string) ParseResult {
	return ParseResult{Status: ParseMalformed, Reason: reason}
}

var (
	fencePattern  = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\n(.*?)```")
	listPrefix    = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	kvLinePattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])?\s*\**([A-Za-z_ ]+?)\**\s*[:=]\s*(.*)$`)
)

// ParseProposals coerces a raw model response into topic proposals.
//
// Accepted shapes are a JSON array of objects, a JSON object with a
// "topics" array, or line-delimited key-value blocks:
//
//	TOPIC: Revenue Growth
//	DESCRIPTION: How revenue developed over the year
//	KEYWORDS: revenue, growth, sales
//
// Either JSON shape may be wrapped in markdown code fences. Anything else
// is Malformed.
func ParseProposals(raw string) ParseResult {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Malformed("empty response")
	}
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	if items, ok := decodeJSON(text); ok {
		proposals := make([]domain.TopicProposal, 0, len(items))
		for _, item := range items {
			if p, ok := proposalFromMap(item); ok {
				proposals = append(proposals, p)
			}
		}
		if len(proposals) == 0 {
			return Malformed("JSON response contained no proposal with a title")
		}
		return Parsed(proposals)
	}

	if proposals := parseKeyValue(text); len(proposals) > 0 {
		return Parsed(proposals)
	}
	return Malformed("response is neither JSON nor key-value topic blocks")
}

// decodeJSON finds the outermost JSON value in text and flattens it to a
// list of objects.
func decodeJSON(text string) ([]map[string]any, bool) {
	candidates := []string{text}
	if i, j := strings.IndexByte(text, '['), strings.LastIndexByte(text, ']'); i >= 0 && j > i {
		candidates = append(candidates, text[i:j+1])
	}
	if i, j := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}'); i >= 0 && j > i {
		candidates = append(candidates, text[i:j+1])
	}

	for _, c := range candidates {
		var v any
		if err := json.Unmarshal([]byte(c), &v); err != nil {
			continue
		}
		switch val := v.(type) {
		case []any:
			return objects(val), true
		case map[string]any:
			if list, ok := val["topics"].([]any); ok {
				return objects(list), true
			}
			return []map[string]any{val}, true
		}
	}
	return nil, false
}

func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func proposalFromMap(m map[string]any) (domain.TopicProposal, bool) {
	title := cleanTitle(firstString(m, "title", "topic_name", "topic", "name"))
	if title == "" {
		return domain.TopicProposal{}, false
	}
	return domain.TopicProposal{
		Title:       title,
		Description: cleanLine(firstString(m, "description", "summary")),
		Keywords:    cleanList(stringList(firstValue(m, "keywords", "key_terms"))),
		Headers:     cleanList(stringList(firstValue(m, "related_headers", "headers", "sections"))),
	}, true
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	s, _ := firstValue(m, keys...).(string)
	return s
}

// stringList accepts a JSON array of strings or a comma-separated string.
func stringList(v any) []string {
	switch val := v.(type) {
	case string:
		return strings.Split(val, ",")
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func parseKeyValue(text string) []domain.TopicProposal {
	var (
		proposals []domain.TopicProposal
		current   *domain.TopicProposal
	)
	flush := func() {
		if current != nil && current.Title != "" {
			current.Keywords = cleanList(current.Keywords)
			current.Headers = cleanList(current.Headers)
			proposals = append(proposals, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		m := kvLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(m[1]))
		value := strings.TrimSpace(m[2])

		switch key {
		case "topic", "title", "topic name", "topic_name":
			flush()
			current = &domain.TopicProposal{Title: cleanTitle(value)}
		case "description", "summary":
			if current != nil {
				current.Description = cleanLine(value)
			}
		case "keywords", "key terms":
			if current != nil {
				current.Keywords = append(current.Keywords, strings.Split(value, ",")...)
			}
		case "headers", "related headers", "related_headers", "sections":
			if current != nil {
				current.Headers = append(current.Headers, strings.Split(value, ",")...)
			}
		}
	}
	flush()
	return proposals
}

func cleanTitle(s string) string {
	s = cleanLine(s)
	s = strings.Trim(s, "*_\"'`")
	s = strings.TrimSpace(s)
	// snake_case names from the model read better with spaces.
	if !strings.Contains(s, " ") && strings.Contains(s, "_") {
		s = strings.ReplaceAll(s, "_", " ")
	}
	return s
}

func cleanLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanList trims entries, strips list markers and quotes, drops empties
// and removes case-insensitive duplicates, preserving order.
func cleanList(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = listPrefix.ReplaceAllString(item, "")
		item = cleanLine(strings.Trim(strings.TrimSpace(item), "\"'`"))
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
