// Package qdrant exports topic vectors to a Qdrant collection over its REST API.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/custodia-labs/topicnet/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/topicnet/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
)

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the REST endpoint (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection receives the points (required).
	Collection string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Store is a minimal REST client to Qdrant using cosine distance.
type Store struct {
	api        *httpjson.Client
	collection string
}

// NewStore creates a Qdrant store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		return nil, errors.New("qdrant: collection is required")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		api:        httpjson.New("qdrant", cfg.URL, cfg.Timeout).WithHeader("api-key", cfg.APIKey),
		collection: cfg.Collection,
	}, nil
}

type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// EnsureCollection creates the collection and its source index when missing.
// An existing collection with a different vector size is an error.
func (s *Store) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("qdrant: invalid dimensions %d", dimensions)
	}

	var info collectionInfo
	err := s.api.Do(ctx, http.MethodGet, s.collectionPath(""), nil, &info)
	switch {
	case err == nil:
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != dimensions {
			return fmt.Errorf("qdrant: collection %q has vector size %d, topics have %d",
				s.collection, size, dimensions)
		}
		return nil
	case !httpjson.IsNotFound(err):
		return err
	}

	create := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	if err := s.api.Do(ctx, http.MethodPut, s.collectionPath(""), create, nil); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Deletes filter on source, so index it.
	index := map[string]any{
		"field_name":   "source",
		"field_schema": "keyword",
	}
	if err := s.api.Do(ctx, http.MethodPut, s.collectionPath("/index?wait=true"), index, nil); err != nil {
		return fmt.Errorf("create source index: %w", err)
	}
	return nil
}

// Upsert writes points, replacing any with the same ID.
func (s *Store) Upsert(ctx context.Context, points []driven.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload,omitempty"`
	}
	body := struct {
		Points []point `json:"points"`
	}{Points: make([]point, len(points))}
	for i, p := range points {
		body.Points[i] = point{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}
	return s.api.Do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), body, nil)
}

// Query returns the k points nearest to vector, with payloads.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]driven.VectorMatch, error) {
	if k <= 0 {
		k = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.api.Do(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &resp); err != nil {
		if httpjson.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	matches := make([]driven.VectorMatch, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, driven.VectorMatch{
			ID:      fmt.Sprint(r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return matches, nil
}

// DeleteBySource removes every point whose payload source matches.
// A missing collection holds nothing to delete.
func (s *Store) DeleteBySource(ctx context.Context, source string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []any{
				map[string]any{"key": "source", "match": map[string]any{"value": source}},
			},
		},
	}
	err := s.api.Do(ctx, http.MethodPost, s.collectionPath("/points/delete?wait=true"), body, nil)
	if httpjson.IsNotFound(err) {
		return nil
	}
	return err
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// A missing collection surfaces as a 404, which callers treat as empty.
func (s *Store) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(s.collection) + suffix
}
