package search

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driving"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

// RRFConstant is the standard reciprocal-rank-fusion damping constant.
// Larger values flatten the influence of rank position.
const RRFConstant = 60

// overFetchFactor is how much each sub-algorithm over-fetches so that
// fusion has enough candidates to reorder.
const overFetchFactor = 2

// Weights configures the contribution of each sub-algorithm to the
// hybrid ranking. Weights must be non-negative, must not all be zero,
// and must sum to at most 1.
type Weights struct {
	Semantic float64
	Keyword  float64
	Fuzzy    float64
}

// DefaultWeights favours semantic ranking while keeping lexical signals.
var DefaultWeights = Weights{Semantic: 0.6, Keyword: 0.3, Fuzzy: 0.1}

// total returns the weight mass.
func (w Weights) total() float64 {
	return w.Semantic + w.Keyword + w.Fuzzy
}

// validate rejects negative, all-zero, and oversubscribed weights.
func (w Weights) validate() error {
	if w.Semantic < 0 || w.Keyword < 0 || w.Fuzzy < 0 {
		return fmt.Errorf("%w: negative weight", domain.ErrInvalidWeights)
	}
	total := w.total()
	if total == 0 {
		return fmt.Errorf("%w: all weights zero", domain.ErrInvalidWeights)
	}
	if total > 1.0 {
		return fmt.Errorf("%w: weights sum to %.3f, must be <= 1", domain.ErrInvalidWeights, total)
	}
	return nil
}

// Ensure Hybrid implements the interface.
var _ driving.SearchAlgorithm = (*Hybrid)(nil)

// Hybrid runs the semantic, keyword, and fuzzy algorithms concurrently
// and fuses their rankings with weighted Reciprocal Rank Fusion. A
// failure in any sub-algorithm fails the whole hybrid call: partial
// results missing one ranking signal are worse than a clear error.
type Hybrid struct {
	semantic driving.SearchAlgorithm
	keyword  driving.SearchAlgorithm
	fuzzy    driving.SearchAlgorithm
	weights  Weights
}

// NewHybrid creates the hybrid algorithm. The weight configuration is
// validated here, at construction, not per query.
func NewHybrid(semantic, keyword, fuzzy driving.SearchAlgorithm, weights Weights) (*Hybrid, error) {
	if err := weights.validate(); err != nil {
		return nil, err
	}
	return &Hybrid{semantic: semantic, keyword: keyword, fuzzy: fuzzy, weights: weights}, nil
}

// Name identifies the algorithm.
func (h *Hybrid) Name() string { return "hybrid" }

// Search fans out to the three sub-algorithms in parallel, each
// over-fetching limit × 2 candidates, then fuses the ranked lists.
func (h *Hybrid) Search(
	ctx context.Context, query, userID string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	subOpts := opts
	subOpts.Limit = limit * overFetchFactor

	type ranked struct {
		weight  float64
		results []domain.SearchResult
	}
	lists := make([]ranked, 3)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := h.semantic.Search(gctx, query, userID, subOpts)
		if err != nil {
			return fmt.Errorf("semantic: %w", err)
		}
		lists[0] = ranked{weight: h.weights.Semantic, results: results}
		return nil
	})
	g.Go(func() error {
		results, err := h.keyword.Search(gctx, query, userID, subOpts)
		if err != nil {
			return fmt.Errorf("keyword: %w", err)
		}
		lists[1] = ranked{weight: h.weights.Keyword, results: results}
		return nil
	})
	g.Go(func() error {
		results, err := h.fuzzy.Search(gctx, query, userID, subOpts)
		if err != nil {
			return fmt.Errorf("fuzzy: %w", err)
		}
		lists[2] = ranked{weight: h.weights.Fuzzy, results: results}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}

	weighted := make([]weightedList, 0, len(lists))
	for _, l := range lists {
		weighted = append(weighted, weightedList{weight: l.weight, results: l.results})
	}

	fused, err := reciprocalRankFusion(weighted, RRFConstant, h.weights.total())
	if err != nil {
		return nil, err
	}

	if len(fused) > limit {
		fused = fused[:limit]
	}
	logger.Debug("Hybrid: fused to %d results for %q", len(fused), query)
	return fused, nil
}

// weightedList pairs one sub-algorithm's ranked results with its weight.
type weightedList struct {
	weight  float64
	results []domain.SearchResult
}

// reciprocalRankFusion combines ranked lists: a result at 1-indexed
// rank r in a list with weight w contributes w / (k + r) to its
// document's score, summed across the lists that found it. Scores are
// then rescaled by (k+1)/totalWeight so the theoretical maximum (rank 1
// everywhere) maps to exactly 1.0, keeping scores comparable across
// queries. Deterministic: equal scores tie-break on document identity.
func reciprocalRankFusion(lists []weightedList, k int, totalWeight float64) ([]domain.SearchResult, error) {
	type docKey struct {
		id      string
		docType domain.DocType
	}

	scores := make(map[docKey]float64)
	first := make(map[docKey]domain.SearchResult)

	for _, list := range lists {
		if list.weight == 0 {
			continue
		}
		seen := make(map[docKey]bool, len(list.results))
		for rank, r := range list.results {
			key := docKey{id: r.ID, docType: r.DocType}
			if seen[key] {
				// Only a document's best rank in a list contributes.
				continue
			}
			seen[key] = true

			scores[key] += list.weight / float64(k+rank+1)
			if _, ok := first[key]; !ok {
				first[key] = r
			}
		}
	}

	rescale := float64(k+1) / totalWeight

	fused := make([]domain.SearchResult, 0, len(scores))
	for key, score := range scores {
		r, err := domain.NewSearchResult(withScore(first[key], score*rescale))
		if err != nil {
			return nil, err
		}
		fused = append(fused, r)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		if fused[i].ID != fused[j].ID {
			return fused[i].ID < fused[j].ID
		}
		return fused[i].DocType < fused[j].DocType
	})

	return fused, nil
}

// withScore returns a copy of the result carrying the fused score.
func withScore(r domain.SearchResult, score float64) domain.SearchResult {
	r.Score = score
	return r
}
