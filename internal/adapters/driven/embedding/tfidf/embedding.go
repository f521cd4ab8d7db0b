// Package tfidf provides an offline embedding service. Vectors are TF-IDF
// weights over a vocabulary fitted to the topics of a single run, so
// similarity needs no network model.
package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

// Ensure the embedders implement the interfaces.
var (
	_ driven.EmbeddingService = (*Embedder)(nil)
	_ driven.CorpusFitter     = (*Embedder)(nil)
	_ driven.EmbeddingService = (*Model)(nil)
)

// ModelName identifies TF-IDF vectors in logs and cache keys.
const ModelName = "tfidf"

// DefaultMaxFeatures caps the vocabulary size.
const DefaultMaxFeatures = 4096

// ErrNotFitted is returned when embedding without a fitted vocabulary.
var ErrNotFitted = errors.New("tfidf: embedder has not been fitted to a corpus")

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’]\p{L}+)*`)

// Embedder is the unfitted TF-IDF embedder. Fit returns a Model bound to
// one corpus; the Embedder itself never embeds.
type Embedder struct {
	maxFeatures int
	stopwords   map[string]struct{}
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithMaxFeatures keeps only the n terms with the highest document frequency.
func WithMaxFeatures(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.maxFeatures = n
		}
	}
}

// New creates an unfitted TF-IDF embedder.
func New(opts ...Option) *Embedder {
	e := &Embedder{
		maxFeatures: DefaultMaxFeatures,
		stopwords:   defaultStopwords(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fit builds a vocabulary and IDF weights from the corpus.
func (e *Embedder) Fit(texts []string) driven.EmbeddingService {
	df := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) > e.maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if df[terms[i]] != df[terms[j]] {
				return df[terms[i]] > df[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:e.maxFeatures]
	}
	sort.Strings(terms)

	m := &Model{
		embedder:   e,
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
	}
	n := float64(len(texts))
	for i, term := range terms {
		m.vocabulary[term] = i
		// Smoothed IDF, so a term in every document keeps weight 1.
		m.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return m
}

// Embed always fails: vectors only exist relative to a fitted corpus.
func (e *Embedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrNotFitted
}

// EmbedBatch always fails; see Embed.
func (e *Embedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, ErrNotFitted
}

// Dimensions is zero until fitted.
func (e *Embedder) Dimensions() int { return 0 }

// ModelName returns "tfidf".
func (e *Embedder) ModelName() string { return ModelName }

// Ping always succeeds; nothing is remote.
func (e *Embedder) Ping(_ context.Context) error { return nil }

// Close releases resources.
func (e *Embedder) Close() error { return nil }

func (e *Embedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if len([]rune(t)) < 2 {
			continue
		}
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Model is a TF-IDF embedder fitted to one corpus. It is read-only and
// safe for concurrent use.
type Model struct {
	embedder   *Embedder
	vocabulary map[string]int
	idf        []float64
}

// Embed returns the L2-normalised TF-IDF vector of text. Text with no
// vocabulary terms yields a zero vector.
func (m *Model) Embed(_ context.Context, text string) ([]float32, error) {
	counts := make(map[int]int)
	total := 0
	for _, tok := range m.embedder.tokenize(text) {
		if idx, ok := m.vocabulary[tok]; ok {
			counts[idx]++
			total++
		}
	}

	vec := make([]float32, len(m.idf))
	if total == 0 {
		return vec, nil
	}
	weights := make([]float64, len(m.idf))
	norm := 0.0
	for idx, c := range counts {
		w := float64(c) / float64(total) * m.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx := range counts {
		vec[idx] = float32(weights[idx] / norm)
	}
	return vec, nil
}

// EmbedBatch embeds each text.
func (m *Model) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the vocabulary size.
func (m *Model) Dimensions() int { return len(m.idf) }

// ModelName returns "tfidf".
func (m *Model) ModelName() string { return ModelName }

// Ping always succeeds.
func (m *Model) Ping(_ context.Context) error { return nil }

// Close releases resources.
func (m *Model) Close() error { return nil }

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on",
		"at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its",
		"this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further",
		"than", "so", "such", "into", "about", "between", "through", "during", "before", "after",
		"above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "should",
		"now", "not", "no", "we", "our", "you", "your", "they", "their", "has", "have", "had", "do",
		"does", "did", "which", "who", "what", "when", "where", "there", "here", "also", "all", "any",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
