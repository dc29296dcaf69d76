package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driving"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

// DefaultFuzzyThreshold is the minimum character-set similarity for a
// fuzzy hit.
const DefaultFuzzyThreshold = 0.7

// Ensure Fuzzy implements the interface.
var _ driving.SearchAlgorithm = (*Fuzzy)(nil)

// Fuzzy ranks by character-set overlap between the query and the
// title/content, tolerating typos without any vector dependency.
type Fuzzy struct {
	store     driven.VectorStore
	threshold float64
}

// FuzzyOption configures the fuzzy algorithm.
type FuzzyOption func(*Fuzzy)

// WithThreshold sets the minimum similarity for a hit.
func WithThreshold(t float64) FuzzyOption {
	return func(f *Fuzzy) {
		if t > 0 && t <= 1 {
			f.threshold = t
		}
	}
}

// NewFuzzy creates the fuzzy algorithm.
func NewFuzzy(store driven.VectorStore, opts ...FuzzyOption) *Fuzzy {
	f := &Fuzzy{store: store, threshold: DefaultFuzzyThreshold}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name identifies the algorithm.
func (f *Fuzzy) Name() string { return "fuzzy" }

// Search scores candidates by Jaccard overlap of their character sets
// with the query's, keeping the better of the title and content scores.
func (f *Fuzzy) Search(
	ctx context.Context, query, userID string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	querySet := charSet(query)
	if len(querySet) == 0 {
		return []domain.SearchResult{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	filter := driven.Filter{UserID: userID, DocType: opts.DocType}.NotPlaceholder()

	var hits []driven.ScoredPoint
	offset := ""
	for {
		points, next, err := f.store.Scroll(ctx, filter, keywordScrollPage, offset)
		if err != nil {
			return nil, fmt.Errorf("fuzzy scroll: %w", err)
		}

		for _, p := range points {
			titleSim := jaccard(querySet, charSet(p.Payload.Title))
			contentSim := jaccard(querySet, charSet(p.Payload.Excerpt))

			score := titleSim
			if contentSim > score {
				score = contentSim
			}
			if score < f.threshold {
				continue
			}
			hits = append(hits, driven.ScoredPoint{Point: p, Score: score})
		}

		if next == "" {
			break
		}
		offset = next
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	logger.Debug("Fuzzy: %d hits for %q (threshold %.2f)", len(hits), query, f.threshold)
	return dedupChunkHits(hits)
}

// charSet returns the set of lowercase non-space characters.
func charSet(s string) map[rune]bool {
	set := make(map[rune]bool)
	for _, r := range strings.ToLower(s) {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		set[r] = true
	}
	return set
}

// jaccard is |a∩b| / |a∪b| over two character sets.
func jaccard(a, b map[rune]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for r := range a {
		if b[r] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
