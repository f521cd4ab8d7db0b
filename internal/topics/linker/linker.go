// Package linker builds the topic similarity graph.
//
// Each non-empty topic is embedded once. Every unordered pair of topics in
// the same chunk, and across chunks when enabled, is scored by cosine
// similarity, and pairs scoring above the threshold are linked. A topic
// whose embedding fails is left out of the graph without failing the run.
package linker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// Defaults.
const (
	DefaultThreshold  = 0.3
	DefaultEmbedChars = 1000
)

// Linker computes links between topics.
type Linker struct {
	embedder   driven.EmbeddingService
	cache      driven.EmbeddingCache
	threshold  float64
	maxLinks   int
	crossChunk bool
	embedChars int
}

// Option configures the linker.
type Option func(*Linker)

// WithThreshold sets the similarity a pair must exceed to be linked.
func WithThreshold(t float64) Option {
	return func(l *Linker) {
		l.threshold = t
	}
}

// WithMaxLinks keeps the top n links per topic. Zero keeps all.
func WithMaxLinks(n int) Option {
	return func(l *Linker) {
		if n >= 0 {
			l.maxLinks = n
		}
	}
}

// WithCrossChunk links topics that belong to different chunks.
func WithCrossChunk(enabled bool) Option {
	return func(l *Linker) {
		l.crossChunk = enabled
	}
}

// WithEmbedChars limits how many runes of content are embedded. Zero embeds all.
func WithEmbedChars(n int) Option {
	return func(l *Linker) {
		if n >= 0 {
			l.embedChars = n
		}
	}
}

// WithCache reuses embeddings stored under a content key.
func WithCache(cache driven.EmbeddingCache) Option {
	return func(l *Linker) {
		l.cache = cache
	}
}

// New creates a linker. embedder may be nil, in which case no links are built.
func New(embedder driven.EmbeddingService, opts ...Option) *Linker {
	l := &Linker{
		embedder:   embedder,
		threshold:  DefaultThreshold,
		embedChars: DefaultEmbedChars,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result is the similarity graph for one document.
type Result struct {
	// Links are sorted by SourceID, then TargetID.
	Links []domain.Link

	// Excluded lists topics whose embedding failed.
	Excluded []string

	// Vectors holds the embedding of every linked-eligible topic by ID.
	Vectors map[string][]float32

	Warnings []domain.Warning
}

// Link embeds topics and returns the links between them. Zero-length topics
// are ignored. The only error returned is context cancellation between chunks.
func (l *Linker) Link(ctx context.Context, topics []domain.Topic) (Result, error) {
	res := Result{Vectors: make(map[string][]float32)}
	if l.embedder == nil {
		res.Warnings = append(res.Warnings, domain.Warn(domain.ErrEmbeddingUnavailable, domain.StageLink,
			"no embedding service configured; topics are written without related links"))
		return res, nil
	}

	var eligible []domain.Topic
	for _, t := range topics {
		if !t.IsEmpty() {
			eligible = append(eligible, t)
		}
	}
	if err := l.embedAll(ctx, eligible, &res); err != nil {
		return res, err
	}

	res.Links = l.buildLinks(eligible, res.Vectors)
	logger.Debug("linker: %d links across %d topics (%d excluded)", len(res.Links), len(eligible), len(res.Excluded))
	return res, nil
}

// embedAll fills res.Vectors one chunk at a time, batching within a chunk.
func (l *Linker) embedAll(ctx context.Context, topics []domain.Topic, res *Result) error {
	texts := make([]string, len(topics))
	for i, t := range topics {
		texts[i] = l.embedText(t.Content)
	}

	embedder := l.embedder
	useCache := l.cache != nil
	if fitter, ok := embedder.(driven.CorpusFitter); ok {
		embedder = fitter.Fit(texts)
		// Fitted vectors depend on the whole corpus, so they are not cacheable.
		useCache = false
	}

	dims := 0
	for _, group := range groupByChunk(topics) {
		if err := ctx.Err(); err != nil {
			return err
		}

		vectors := make([][]float32, len(group))
		failed := make(map[int]bool)
		var misses []int
		for k, i := range group {
			if useCache {
				if v, ok, err := l.cache.Get(ctx, l.cacheKey(texts[i])); err == nil && ok {
					vectors[k] = v
					continue
				}
			}
			misses = append(misses, k)
		}

		if len(misses) > 0 {
			batch := make([]string, len(misses))
			for m, k := range misses {
				batch[m] = texts[group[k]]
			}
			got, err := embedder.EmbedBatch(ctx, batch)
			if err == nil && len(got) == len(batch) {
				for m, k := range misses {
					vectors[k] = got[m]
				}
			} else {
				logger.Debug("linker: batch embedding failed (%v), embedding topics one by one", err)
				for m, k := range misses {
					v, err := embedder.Embed(ctx, batch[m])
					if err != nil {
						l.exclude(res, topics[group[k]], "embedding failed: %v", err)
						failed[k] = true
						continue
					}
					vectors[k] = v
				}
			}
			if useCache {
				for _, k := range misses {
					if vectors[k] != nil {
						if err := l.cache.Put(ctx, l.cacheKey(texts[group[k]]), vectors[k]); err != nil {
							logger.Debug("linker: cache put failed: %v", err)
						}
					}
				}
			}
		}

		for k, i := range group {
			v, t := vectors[k], topics[i]
			switch {
			case failed[k]:
			case v == nil:
				l.exclude(res, t, "embedding service returned no vector")
			case norm(v) == 0:
				l.exclude(res, t, "embedding is a zero vector")
			case dims != 0 && len(v) != dims:
				l.exclude(res, t, "embedding has %d dimensions, expected %d", len(v), dims)
			default:
				if dims == 0 {
					dims = len(v)
				}
				res.Vectors[t.ID] = v
			}
		}
	}
	return nil
}

func (l *Linker) exclude(res *Result, t domain.Topic, format string, args ...any) {
	w := domain.WarnChunk(domain.ErrCollaboratorUnavailable, domain.StageLink, t.ChunkIndex, format, args...)
	w.TopicID = t.ID
	w.Message += "; topic excluded from linking"
	logger.Warn("%s", w)
	res.Excluded = append(res.Excluded, t.ID)
	res.Warnings = append(res.Warnings, w)
}

type candidate struct {
	a, b int
	sim  float64
}

// buildLinks scores pairs and applies the threshold and top-N rule.
func (l *Linker) buildLinks(topics []domain.Topic, vectors map[string][]float32) []domain.Link {
	var candidates []candidate
	for i := 0; i < len(topics); i++ {
		vi, ok := vectors[topics[i].ID]
		if !ok {
			continue
		}
		for j := i + 1; j < len(topics); j++ {
			if !l.crossChunk && topics[i].ChunkIndex != topics[j].ChunkIndex {
				continue
			}
			vj, ok := vectors[topics[j].ID]
			if !ok {
				continue
			}
			if sim := Cosine(vi, vj); sim > l.threshold {
				candidates = append(candidates, candidate{a: i, b: j, sim: sim})
			}
		}
	}

	keep := make([]bool, len(candidates))
	if l.maxLinks <= 0 {
		for i := range keep {
			keep[i] = true
		}
	} else {
		// Each topic nominates its best links; a nomination from either
		// endpoint keeps the link for both.
		byTopic := make(map[int][]int)
		for ci, c := range candidates {
			byTopic[c.a] = append(byTopic[c.a], ci)
			byTopic[c.b] = append(byTopic[c.b], ci)
		}
		for ti, cis := range byTopic {
			partner := func(ci int) string {
				c := candidates[ci]
				if c.a == ti {
					return topics[c.b].ID
				}
				return topics[c.a].ID
			}
			sort.Slice(cis, func(x, y int) bool {
				cx, cy := candidates[cis[x]], candidates[cis[y]]
				if cx.sim != cy.sim {
					return cx.sim > cy.sim
				}
				return partner(cis[x]) < partner(cis[y])
			})
			for n, ci := range cis {
				if n >= l.maxLinks {
					break
				}
				keep[ci] = true
			}
		}
	}

	links := make([]domain.Link, 0, len(candidates))
	for ci, c := range candidates {
		if keep[ci] {
			links = append(links, domain.NewLink(topics[c.a].ID, topics[c.b].ID, c.sim))
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].SourceID != links[j].SourceID {
			return links[i].SourceID < links[j].SourceID
		}
		return links[i].TargetID < links[j].TargetID
	})
	return links
}

// Cosine returns the cosine similarity of a and b clamped to [0,1].
// Mismatched or zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, sim))
}

func (l *Linker) embedText(content string) string {
	if l.embedChars <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= l.embedChars {
		return content
	}
	return string(runes[:l.embedChars])
}

func (l *Linker) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(l.embedder.ModelName() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// groupByChunk returns topic indices grouped by chunk, in first-seen order.
func groupByChunk(topics []domain.Topic) [][]int {
	var (
		groups [][]int
		index  = make(map[int]int)
	)
	for i, t := range topics {
		g, ok := index[t.ChunkIndex]
		if !ok {
			g = len(groups)
			index[t.ChunkIndex] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}
