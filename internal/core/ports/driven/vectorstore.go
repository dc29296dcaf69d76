// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

// FusionMode selects store-side hybrid fusion for queries that carry
// both a dense and a sparse vector.
type FusionMode string

const (
	// FusionNone runs a plain dense similarity query.
	FusionNone FusionMode = ""

	// FusionRRF fuses dense and sparse prefetches by reciprocal rank.
	// Fused scores stay within [0,1].
	FusionRRF FusionMode = "rrf"

	// FusionDBSF fuses by summing distribution-normalized scores.
	// Fused scores can exceed 1.0.
	FusionDBSF FusionMode = "dbsf"
)

// Filter is a structured payload filter. Zero-value fields are ignored.
// Every result-facing query must set Placeholder to false so in-flight
// markers never surface to callers.
type Filter struct {
	// UserID scopes the filter to one user's points.
	UserID string

	// DocID matches a single document.
	DocID string

	// DocType matches a single document type. DocTypeAll matches any.
	DocType domain.DocType

	// Placeholder, when non-nil, matches only points whose
	// is_placeholder payload flag equals the pointed-to value.
	Placeholder *bool

	// MinChunkIndex, when non-nil, matches only points whose chunk_index
	// is at or above the pointed-to value.
	MinChunkIndex *int
}

// NotPlaceholder returns a copy of the filter restricted to real chunk
// points. Every user-facing query path must pass through this.
func (f Filter) NotPlaceholder() Filter {
	v := false
	f.Placeholder = &v
	return f
}

// OnlyPlaceholder returns a copy of the filter restricted to
// placeholder markers.
func (f Filter) OnlyPlaceholder() Filter {
	v := true
	f.Placeholder = &v
	return f
}

// ChunksFrom returns a copy of the filter restricted to points with
// chunk index n or higher. Re-indexing a shrunk document uses this to
// clear the tail chunks the new version no longer has.
func (f Filter) ChunksFrom(n int) Filter {
	f.MinChunkIndex = &n
	return f
}

// VectorQuery describes a similarity query against the store.
type VectorQuery struct {
	// Dense is the query embedding.
	Dense []float32

	// Sparse is the BM25-style query vector. Only consulted when Fusion
	// is not FusionNone.
	Sparse domain.SparseVector

	// Filter scopes the candidate set.
	Filter Filter

	// Limit caps the number of hits returned.
	Limit int

	// ScoreThreshold drops hits scoring below it (dense-only queries).
	ScoreThreshold float64

	// Fusion selects store-side hybrid fusion.
	Fusion FusionMode
}

// ScoredPoint is a query hit.
type ScoredPoint struct {
	Point domain.Point
	Score float64
}

// VectorStore is the downstream vector index. Implementations must be
// safe for concurrent use; the store client is a process-wide singleton.
type VectorStore interface {
	// Upsert writes points by ID, overwriting existing ones. When wait
	// is true the call returns only after the write is durable.
	Upsert(ctx context.Context, points []domain.Point, wait bool) error

	// Delete removes all points matching the filter.
	Delete(ctx context.Context, f Filter) error

	// Scroll pages through points matching the filter. The returned
	// token resumes the scan; an empty token means the scan is done.
	Scroll(ctx context.Context, f Filter, limit int, offset string) ([]domain.Point, string, error)

	// Query runs a similarity (or store-side hybrid) query.
	Query(ctx context.Context, q VectorQuery) ([]ScoredPoint, error)

	// Count returns the number of points matching the filter.
	Count(ctx context.Context, f Filter) (int, error)

	// Retrieve fetches points by ID. Missing IDs are silently skipped.
	Retrieve(ctx context.Context, ids []string) ([]domain.Point, error)

	// Close releases resources.
	Close() error
}
