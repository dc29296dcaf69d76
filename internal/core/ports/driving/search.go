// Package driving defines the inbound ports of the hexagon: the
// contracts the MCP tool layer and CLI call into.
package driving

import (
	"context"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

// SearchAlgorithm is the common contract every ranking algorithm
// implements: query in, ranked, scored, deduplicated results out.
// Results are always scoped to the user and never include placeholders.
type SearchAlgorithm interface {
	// Name identifies the algorithm ("semantic", "keyword", ...).
	Name() string

	// Search runs the algorithm. An empty opts.DocType searches every
	// indexed document type.
	Search(ctx context.Context, query, userID string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

// Verifier filters candidate results down to those the user can still
// access at the source.
type Verifier interface {
	// Verify deduplicates by (ID, DocType) preserving first-seen order,
	// then drops results whose documents are no longer accessible.
	Verify(ctx context.Context, userID string, results []domain.SearchResult) ([]domain.SearchResult, error)
}

// StatusReporter answers vector-sync status queries.
type StatusReporter interface {
	Status(ctx context.Context, userID string) (domain.SyncStatus, error)
}

// Visualizer projects a query and its results into 3D for plotting.
type Visualizer interface {
	// Project reduces the query embedding and the embeddings of the
	// given result points to three dimensions.
	Project(ctx context.Context, queryEmbedding []float32, results []domain.SearchResult) (domain.Visualization, error)
}
