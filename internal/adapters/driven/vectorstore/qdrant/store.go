// Package qdrant provides a VectorStore adapter speaking Qdrant's REST
// API. The collection uses a named dense vector ("dense", cosine) and a
// named sparse vector ("sparse") so store-side hybrid fusion can
// prefetch from both.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultURL        = "http://localhost:6333"
	DefaultCollection = "nextfind"
	DefaultTimeout    = 30 * time.Second

	// DefaultScrollRate caps scroll requests per second. Full-collection
	// scans (keyword search, fuzzy search, scanner diffs) page through
	// the whole index and would otherwise hammer the store.
	DefaultScrollRate = 20
)

// Vector names inside the collection schema.
const (
	denseVectorName  = "dense"
	sparseVectorName = "sparse"
)

// Config holds Qdrant connection settings.
type Config struct {
	// URL is the Qdrant REST base URL (default: http://localhost:6333).
	URL string

	// APIKey authenticates requests when the instance requires it.
	APIKey string

	// Collection is the collection name (default: nextfind).
	Collection string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// ScrollRate caps scroll pages per second (default: 20).
	ScrollRate float64
}

// Store is a Qdrant REST client.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	scrollRate *rate.Limiter
}

// NewStore creates a Qdrant client. It does not touch the network;
// call EnsureCollection before first use.
func NewStore(cfg Config) *Store {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ScrollRate == 0 {
		cfg.ScrollRate = DefaultScrollRate
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: cfg.Timeout},
		scrollRate: rate.NewLimiter(rate.Limit(cfg.ScrollRate), 1),
	}
}

// EnsureCollection creates the collection if it does not exist.
// Qdrant returns 200 for an existing collection with the same schema.
func (s *Store) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidInput, dimensions)
	}
	body := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     dimensions,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}
	return s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil)
}

// Upsert writes points by ID, overwriting existing ones.
func (s *Store) Upsert(ctx context.Context, points []domain.Point, wait bool) error {
	if len(points) == 0 {
		return nil
	}

	reqPoints := make([]map[string]any, len(points))
	for i, p := range points {
		vector := map[string]any{
			denseVectorName: p.Dense,
		}
		if len(p.Sparse.Indices) > 0 {
			vector[sparseVectorName] = map[string]any{
				"indices": p.Sparse.Indices,
				"values":  p.Sparse.Values,
			}
		}
		reqPoints[i] = map[string]any{
			"id":      p.ID,
			"vector":  vector,
			"payload": p.Payload,
		}
	}

	url := s.collectionURL(fmt.Sprintf("/points?wait=%t", wait))
	return s.do(ctx, http.MethodPut, url, map[string]any{"points": reqPoints}, nil)
}

// Delete removes all points matching the filter.
func (s *Store) Delete(ctx context.Context, f driven.Filter) error {
	body := map[string]any{"filter": buildFilter(f)}
	return s.do(ctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"), body, nil)
}

// Scroll pages through points matching the filter. Pages are rate
// limited; the returned token is Qdrant's next_page_offset.
func (s *Store) Scroll(ctx context.Context, f driven.Filter, limit int, offset string) ([]domain.Point, string, error) {
	if err := s.scrollRate.Wait(ctx); err != nil {
		return nil, "", err
	}

	body := map[string]any{
		"filter":       buildFilter(f),
		"limit":        limit,
		"with_payload": true,
		"with_vector":  true,
	}
	if offset != "" {
		body["offset"] = offset
	}

	var resp struct {
		Result struct {
			Points         []rawPoint `json:"points"`
			NextPageOffset any        `json:"next_page_offset"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/scroll"), body, &resp); err != nil {
		return nil, "", err
	}

	points := make([]domain.Point, 0, len(resp.Result.Points))
	for _, rp := range resp.Result.Points {
		points = append(points, rp.toDomain())
	}

	next := ""
	if s, ok := resp.Result.NextPageOffset.(string); ok {
		next = s
	}
	return points, next, nil
}

// Query runs a similarity query, or a store-side fused hybrid query
// when q.Fusion is set.
func (s *Store) Query(ctx context.Context, q driven.VectorQuery) ([]driven.ScoredPoint, error) {
	body := map[string]any{
		"filter":       buildFilter(q.Filter),
		"limit":        q.Limit,
		"with_payload": true,
		"with_vector":  false,
	}

	if q.Fusion == driven.FusionNone {
		body["query"] = q.Dense
		body["using"] = denseVectorName
		if q.ScoreThreshold > 0 {
			body["score_threshold"] = q.ScoreThreshold
		}
	} else {
		body["prefetch"] = []map[string]any{
			{
				"query": q.Dense,
				"using": denseVectorName,
				"limit": q.Limit * 2,
			},
			{
				"query": map[string]any{
					"indices": q.Sparse.Indices,
					"values":  q.Sparse.Values,
				},
				"using": sparseVectorName,
				"limit": q.Limit * 2,
			},
		}
		body["query"] = map[string]any{"fusion": string(q.Fusion)}
	}

	var resp struct {
		Result struct {
			Points []rawScoredPoint `json:"points"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/query"), body, &resp); err != nil {
		return nil, err
	}

	hits := make([]driven.ScoredPoint, 0, len(resp.Result.Points))
	for _, rp := range resp.Result.Points {
		hits = append(hits, driven.ScoredPoint{
			Point: rp.rawPoint.toDomain(),
			Score: rp.Score,
		})
	}
	return hits, nil
}

// Count returns the exact number of points matching the filter.
func (s *Store) Count(ctx context.Context, f driven.Filter) (int, error) {
	body := map[string]any{
		"filter": buildFilter(f),
		"exact":  true,
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/count"), body, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Retrieve fetches points by ID. Missing IDs are silently skipped, per
// Qdrant semantics.
func (s *Store) Retrieve(ctx context.Context, ids []string) ([]domain.Point, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	body := map[string]any{
		"ids":          ids,
		"with_payload": true,
		"with_vector":  true,
	}
	var resp struct {
		Result []rawPoint `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points"), body, &resp); err != nil {
		return nil, err
	}

	points := make([]domain.Point, 0, len(resp.Result))
	for _, rp := range resp.Result {
		points = append(points, rp.toDomain())
	}
	return points, nil
}

// Close releases resources.
func (s *Store) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// buildFilter translates the structured filter into Qdrant must
// conditions. Zero-value fields are skipped.
func buildFilter(f driven.Filter) map[string]any {
	var must []map[string]any

	match := func(key string, value any) map[string]any {
		return map[string]any{
			"key":   key,
			"match": map[string]any{"value": value},
		}
	}

	if f.UserID != "" {
		must = append(must, match("user_id", f.UserID))
	}
	if f.DocID != "" {
		must = append(must, match("doc_id", f.DocID))
	}
	if f.DocType != domain.DocTypeAll {
		must = append(must, match("doc_type", string(f.DocType)))
	}
	if f.Placeholder != nil {
		must = append(must, match("is_placeholder", *f.Placeholder))
	}
	if f.MinChunkIndex != nil {
		must = append(must, map[string]any{
			"key":   "chunk_index",
			"range": map[string]any{"gte": *f.MinChunkIndex},
		})
	}

	return map[string]any{"must": must}
}

// rawPoint is Qdrant's wire representation of a stored point. Vector
// is either a bare dense array or a named-vector map, depending on the
// endpoint and schema.
type rawPoint struct {
	ID      any             `json:"id"`
	Vector  json.RawMessage `json:"vector"`
	Payload domain.Payload  `json:"payload"`
}

type rawScoredPoint struct {
	rawPoint
	Score float64 `json:"score"`
}

func (rp rawPoint) toDomain() domain.Point {
	p := domain.Point{Payload: rp.Payload}

	switch id := rp.ID.(type) {
	case string:
		p.ID = id
	case float64:
		p.ID = fmt.Sprintf("%.0f", id)
	}

	if len(rp.Vector) == 0 {
		return p
	}

	var named struct {
		Dense  []float32 `json:"dense"`
		Sparse struct {
			Indices []uint32  `json:"indices"`
			Values  []float32 `json:"values"`
		} `json:"sparse"`
	}
	if err := json.Unmarshal(rp.Vector, &named); err == nil {
		p.Dense = named.Dense
		p.Sparse = domain.SparseVector{
			Indices: named.Sparse.Indices,
			Values:  named.Sparse.Values,
		}
	}
	return p
}

func (s *Store) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

// do sends one JSON request and decodes the response into out (when
// non-nil). Transport failures are wrapped in
// domain.ErrVectorStoreUnavailable so callers can classify them.
func (s *Store) do(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Debug("qdrant %s %s failed: %s", method, url, resp.Status)
		return fmt.Errorf("qdrant %s %s: %s: %s", method, url, resp.Status, string(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
