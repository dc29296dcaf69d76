package driven

import (
	"context"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

// SparseEncoder produces BM25-style weighted term vectors used for the
// keyword half of store-side hybrid ranking.
type SparseEncoder interface {
	// EncodeBatch encodes each text into a sparse vector.
	EncodeBatch(ctx context.Context, texts []string) ([]domain.SparseVector, error)

	// EncodeQuery encodes a query string. Query-side weighting differs
	// from document-side weighting (no length normalisation).
	EncodeQuery(ctx context.Context, query string) (domain.SparseVector, error)
}
