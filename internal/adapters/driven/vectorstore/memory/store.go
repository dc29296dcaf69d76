// Package memory provides an in-memory VectorStore used in tests and
// single-process deployments without an external index.
package memory

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// rrfK is the damping constant for store-side reciprocal rank fusion.
const rrfK = 60

// Store is a thread-safe in-memory vector store with cosine similarity
// and store-side hybrid fusion, mirroring the downstream index closely
// enough for the core to be tested against it.
type Store struct {
	mu     sync.RWMutex
	points map[string]domain.Point
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{points: make(map[string]domain.Point)}
}

// Upsert writes points by ID, overwriting existing ones. The in-memory
// store is always durable, so wait is accepted and ignored.
func (s *Store) Upsert(_ context.Context, points []domain.Point, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		s.points[p.ID] = p
	}
	return nil
}

// Delete removes all points matching the filter.
func (s *Store) Delete(_ context.Context, f driven.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.points {
		if matches(p, f) {
			delete(s.points, id)
		}
	}
	return nil
}

// Scroll pages through matching points in stable ID order. The offset
// token is the index of the next point as a decimal string.
func (s *Store) Scroll(_ context.Context, f driven.Filter, limit int, offset string) ([]domain.Point, string, error) {
	s.mu.RLock()
	matched := s.matchingLocked(f)
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	start := 0
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil {
			return nil, "", err
		}
		start = n
	}
	if start >= len(matched) {
		return nil, "", nil
	}

	end := start + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}

	next := ""
	if end < len(matched) {
		next = strconv.Itoa(end)
	}
	return matched[start:end], next, nil
}

// Query runs cosine similarity over the dense vectors, or store-side
// hybrid fusion when a fusion mode is set.
func (s *Store) Query(_ context.Context, q driven.VectorQuery) ([]driven.ScoredPoint, error) {
	s.mu.RLock()
	candidates := s.matchingLocked(q.Filter)
	s.mu.RUnlock()

	if q.Fusion != driven.FusionNone {
		return fuse(candidates, q), nil
	}

	hits := make([]driven.ScoredPoint, 0, len(candidates))
	for _, p := range candidates {
		score := cosine(q.Dense, p.Dense)
		if score < q.ScoreThreshold {
			continue
		}
		hits = append(hits, driven.ScoredPoint{Point: p, Score: score})
	}

	sortHits(hits)
	return clip(hits, q.Limit), nil
}

// Count returns the number of points matching the filter.
func (s *Store) Count(_ context.Context, f driven.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.points {
		if matches(p, f) {
			n++
		}
	}
	return n, nil
}

// Retrieve fetches points by ID, silently skipping missing ones.
func (s *Store) Retrieve(_ context.Context, ids []string) ([]domain.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Point, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.points[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// matchingLocked snapshots points matching the filter. Caller holds at
// least a read lock.
func (s *Store) matchingLocked(f driven.Filter) []domain.Point {
	var out []domain.Point
	for _, p := range s.points {
		if matches(p, f) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p domain.Point, f driven.Filter) bool {
	if f.UserID != "" && p.Payload.UserID != f.UserID {
		return false
	}
	if f.DocID != "" && p.Payload.DocID != f.DocID {
		return false
	}
	if f.DocType != domain.DocTypeAll && p.Payload.DocType != f.DocType {
		return false
	}
	if f.Placeholder != nil && p.Payload.Placeholder != *f.Placeholder {
		return false
	}
	if f.MinChunkIndex != nil && p.Payload.ChunkIndex < *f.MinChunkIndex {
		return false
	}
	return true
}

// fuse ranks candidates by dense and sparse scores separately, then
// combines the two rankings with RRF or DBSF.
func fuse(candidates []domain.Point, q driven.VectorQuery) []driven.ScoredPoint {
	denseRank := rankBy(candidates, func(p domain.Point) float64 { return cosine(q.Dense, p.Dense) })
	sparseRank := rankBy(candidates, func(p domain.Point) float64 { return sparseDot(q.Sparse, p.Sparse) })

	scores := make(map[string]float64, len(candidates))
	byID := make(map[string]domain.Point, len(candidates))
	for _, p := range candidates {
		byID[p.ID] = p
	}

	switch q.Fusion {
	case driven.FusionDBSF:
		// Sum of per-system min-max normalized scores; can exceed 1.
		for _, ranking := range [][]driven.ScoredPoint{denseRank, sparseRank} {
			lo, hi := scoreRange(ranking)
			for _, h := range ranking {
				norm := 0.0
				if hi > lo {
					norm = (h.Score - lo) / (hi - lo)
				}
				scores[h.Point.ID] += norm
			}
		}
	default: // FusionRRF
		for _, ranking := range [][]driven.ScoredPoint{denseRank, sparseRank} {
			for i, h := range ranking {
				scores[h.Point.ID] += 1.0 / float64(rrfK+i+1)
			}
		}
	}

	hits := make([]driven.ScoredPoint, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, driven.ScoredPoint{Point: byID[id], Score: score})
	}
	sortHits(hits)
	return clip(hits, q.Limit)
}

func rankBy(candidates []domain.Point, score func(domain.Point) float64) []driven.ScoredPoint {
	hits := make([]driven.ScoredPoint, 0, len(candidates))
	for _, p := range candidates {
		s := score(p)
		if s <= 0 {
			continue
		}
		hits = append(hits, driven.ScoredPoint{Point: p, Score: s})
	}
	sortHits(hits)
	return hits
}

func scoreRange(hits []driven.ScoredPoint) (lo, hi float64) {
	if len(hits) == 0 {
		return 0, 0
	}
	lo, hi = hits[0].Score, hits[0].Score
	for _, h := range hits {
		if h.Score < lo {
			lo = h.Score
		}
		if h.Score > hi {
			hi = h.Score
		}
	}
	return lo, hi
}

func sortHits(hits []driven.ScoredPoint) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Point.ID < hits[j].Point.ID
	})
}

func clip(hits []driven.ScoredPoint, limit int) []driven.ScoredPoint {
	if limit > 0 && len(hits) > limit {
		return hits[:limit]
	}
	return hits
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func sparseDot(a, b domain.SparseVector) float64 {
	weights := make(map[uint32]float32, len(a.Indices))
	for i, idx := range a.Indices {
		weights[idx] = a.Values[i]
	}
	var dot float64
	for i, idx := range b.Indices {
		if w, ok := weights[idx]; ok {
			dot += float64(w) * float64(b.Values[i])
		}
	}
	return dot
}
