package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driving"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

// Ensure BM25Hybrid implements the interface.
var _ driving.SearchAlgorithm = (*BM25Hybrid)(nil)

// BM25Hybrid combines the dense and sparse vectors natively inside the
// vector store's query (prefetch fusion), instead of client-side RRF.
// With FusionDBSF the fused scores are sums of per-system normalized
// scores and legitimately exceed 1.0.
type BM25Hybrid struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	sparse   driven.SparseEncoder
	fusion   driven.FusionMode
}

// NewBM25Hybrid creates the store-side hybrid algorithm. fusion selects
// between driven.FusionRRF and driven.FusionDBSF; empty defaults to RRF.
func NewBM25Hybrid(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	sparse driven.SparseEncoder,
	fusion driven.FusionMode,
) *BM25Hybrid {
	if fusion == driven.FusionNone {
		fusion = driven.FusionRRF
	}
	return &BM25Hybrid{store: store, embedder: embedder, sparse: sparse, fusion: fusion}
}

// Name identifies the algorithm.
func (b *BM25Hybrid) Name() string { return "bm25_hybrid" }

// Search encodes the query densely and sparsely in parallel, then runs
// one fused store query.
func (b *BM25Hybrid) Search(
	ctx context.Context, query, userID string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	if b.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var dense []float32
	var sparse domain.SparseVector

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dense, err = b.embedder.Embed(gctx, query)
		return err
	})
	g.Go(func() error {
		var err error
		sparse, err = b.sparse.EncodeQuery(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	hits, err := b.store.Query(ctx, driven.VectorQuery{
		Dense:  dense,
		Sparse: sparse,
		Filter: driven.Filter{UserID: userID, DocType: opts.DocType}.NotPlaceholder(),
		Limit:  limit,
		Fusion: b.fusion,
	})
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", b.fusion, err)
	}

	logger.Debug("BM25Hybrid(%s): %d hits for %q", b.fusion, len(hits), query)
	return dedupChunkHits(hits)
}
