// Package search implements the interchangeable ranking algorithms:
// semantic, keyword, fuzzy, client-side RRF hybrid, and store-side
// BM25 hybrid. Every algorithm obeys the same contract: results are
// scoped to one user, deduplicated, and never include placeholders.
package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driving"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

// DefaultLimit is the result cap applied when the caller gives none.
const DefaultLimit = 10

// Ensure Semantic implements the interface.
var _ driving.SearchAlgorithm = (*Semantic)(nil)

// Semantic ranks by dense vector similarity against the index.
type Semantic struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService

	// The most recent query embedding is retained for callers that
	// need it again, e.g. the PCA projection of the same result set.
	mu        sync.Mutex
	lastQuery []float32
}

// NewSemantic creates the semantic algorithm.
func NewSemantic(store driven.VectorStore, embedder driven.EmbeddingService) *Semantic {
	return &Semantic{store: store, embedder: embedder}
}

// Name identifies the algorithm.
func (s *Semantic) Name() string { return "semantic" }

// LastQueryEmbedding returns the embedding of the most recent query, or
// nil if no search has run yet.
func (s *Semantic) LastQueryEmbedding() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

// Search embeds the query and runs a filtered similarity query.
// Distinct chunks of one document are legitimate distinct results;
// exact duplicate chunks are deduplicated away.
func (s *Semantic) Search(
	ctx context.Context, query, userID string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.Lock()
	s.lastQuery = embedding
	s.mu.Unlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	hits, err := s.store.Query(ctx, driven.VectorQuery{
		Dense:          embedding,
		Filter:         driven.Filter{UserID: userID, DocType: opts.DocType}.NotPlaceholder(),
		Limit:          limit,
		ScoreThreshold: opts.ScoreThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic query: %w", err)
	}

	logger.Debug("Semantic: %d hits for %q", len(hits), query)
	return dedupChunkHits(hits)
}

// chunkKey identifies one chunk of one document.
type chunkKey struct {
	docID   string
	docType domain.DocType
	start   int
	end     int
}

// dedupChunkHits converts scored points to results, dropping exact
// duplicate chunks while keeping distinct chunks of the same document.
func dedupChunkHits(hits []driven.ScoredPoint) ([]domain.SearchResult, error) {
	seen := make(map[chunkKey]bool, len(hits))
	results := make([]domain.SearchResult, 0, len(hits))

	for _, h := range hits {
		key := chunkKey{
			docID:   h.Point.Payload.DocID,
			docType: h.Point.Payload.DocType,
			start:   h.Point.Payload.ChunkStart,
			end:     h.Point.Payload.ChunkEnd,
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		r, err := resultFromPoint(h.Point, h.Score)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, nil
}

// resultFromPoint maps a stored point and score to a SearchResult,
// enforcing the score invariant.
func resultFromPoint(p domain.Point, score float64) (domain.SearchResult, error) {
	return domain.NewSearchResult(domain.SearchResult{
		ID:          p.Payload.DocID,
		DocType:     p.Payload.DocType,
		Title:       p.Payload.Title,
		Excerpt:     p.Payload.Excerpt,
		Score:       score,
		ChunkStart:  p.Payload.ChunkStart,
		ChunkEnd:    p.Payload.ChunkEnd,
		PageNumber:  p.Payload.PageNumber,
		ChunkIndex:  p.Payload.ChunkIndex,
		TotalChunks: p.Payload.TotalChunk,
		PointID:     p.ID,
		Metadata:    p.Payload.Extra,
	})
}
