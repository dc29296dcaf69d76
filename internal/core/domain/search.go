package domain

import "fmt"

// SearchResult represents a single search hit. Construct via
// NewSearchResult so the score invariant is enforced.
type SearchResult struct {
	// ID is the document identifier within its source application.
	ID string

	// DocType identifies the source application.
	DocType DocType

	// Title is the human-readable document title.
	Title string

	// Excerpt is the matched chunk text (or a truncation of it).
	Excerpt string

	// Score is the relevance score. Always non-negative. RRF-fused
	// scores fall in [0,1]; DBSF-fused scores can exceed 1.
	Score float64

	// ChunkStart and ChunkEnd are byte offsets of the matched chunk in
	// the reconstructed document content.
	ChunkStart int
	ChunkEnd   int

	// PageNumber is the 1-based page of the chunk, zero if unpaginated.
	PageNumber int

	// ChunkIndex and TotalChunks locate the chunk within its document.
	ChunkIndex  int
	TotalChunks int

	// PointID is the vector-store identity of the matched point.
	PointID string

	// Metadata carries source-specific fields from the point payload.
	Metadata map[string]any
}

// NewSearchResult validates and constructs a SearchResult. A negative
// score is always rejected; scores above 1 are legal (DBSF fusion).
func NewSearchResult(r SearchResult) (SearchResult, error) {
	if r.Score < 0 {
		return SearchResult{}, fmt.Errorf("%w: negative score %v", ErrInvalidScore, r.Score)
	}
	return r, nil
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results (default applied by callers).
	Limit int

	// DocType restricts the search to one document type.
	// DocTypeAll searches every indexed type.
	DocType DocType

	// ScoreThreshold drops semantic hits below this similarity.
	ScoreThreshold float64
}
