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

// Keyword scoring weights: a query token found in the title counts
// three times a token found in the content.
const (
	TitleWeight   = 3.0
	ContentWeight = 1.0
)

// keywordScrollPage bounds the per-request page size when scrolling the
// user's payload set.
const keywordScrollPage = 256

// Ensure Keyword implements the interface.
var _ driving.SearchAlgorithm = (*Keyword)(nil)

// Keyword ranks by token overlap between the query and the stored
// title/excerpt payloads. It scrolls the user's payload set instead of
// querying by vector, so it works without an embedding service.
type Keyword struct {
	store driven.VectorStore
}

// NewKeyword creates the keyword algorithm.
func NewKeyword(store driven.VectorStore) *Keyword {
	return &Keyword{store: store}
}

// Name identifies the algorithm.
func (k *Keyword) Name() string { return "keyword" }

// Search scores every candidate chunk by weighted token overlap,
// normalized into [0,1] by the theoretical maximum.
func (k *Keyword) Search(
	ctx context.Context, query, userID string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
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
		points, next, err := k.store.Scroll(ctx, filter, keywordScrollPage, offset)
		if err != nil {
			return nil, fmt.Errorf("keyword scroll: %w", err)
		}

		for _, p := range points {
			score := scoreTokens(tokens, p.Payload.Title, p.Payload.Excerpt)
			if score <= 0 {
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

	logger.Debug("Keyword: %d hits for %q", len(hits), query)
	return dedupChunkHits(hits)
}

// scoreTokens computes the weighted overlap of query tokens with the
// title and content, divided by the score a document matching every
// token in both fields would reach, so results land in [0,1].
func scoreTokens(tokens []string, title, content string) float64 {
	titleTokens := tokenSet(title)
	contentTokens := tokenSet(content)

	var score float64
	for _, tok := range tokens {
		if titleTokens[tok] {
			score += TitleWeight
		}
		if contentTokens[tok] {
			score += ContentWeight
		}
	}

	max := float64(len(tokens)) * (TitleWeight + ContentWeight)
	return score / max
}

// tokenize lowercases and splits on non-alphanumeric boundaries.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r < 0x80
	})
	return fields
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokenize(s) {
		set[t] = true
	}
	return set
}
