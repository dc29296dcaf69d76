package services

import (
	"context"
	"sync"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driving"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

// Ensure Verifier implements the interface.
var _ driving.Verifier = (*Verifier)(nil)

// Verifier is the post-hoc access-control filter: it deduplicates
// candidate results and confirms each document is still accessible at
// the source. Index staleness (chunks linger until the next scan evicts
// them) is thereby decoupled from user-visible correctness.
type Verifier struct {
	registry *SourceRegistry
}

// NewVerifier creates a verifier over the source registry.
func NewVerifier(registry *SourceRegistry) *Verifier {
	return &Verifier{registry: registry}
}

// Verify deduplicates by (ID, DocType) preserving first-seen order
// (hybrid search can surface the same document from several
// sub-algorithms), then checks accessibility of each unique document
// concurrently. A check failing never aborts its siblings; documents
// that are deleted or permission-revoked (403/404 at the source) are
// silently dropped, which is expected rather than exceptional.
func (v *Verifier) Verify(
	ctx context.Context, userID string, results []domain.SearchResult,
) ([]domain.SearchResult, error) {
	type docKey struct {
		id      string
		docType domain.DocType
	}

	seen := make(map[docKey]bool, len(results))
	unique := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		key := docKey{id: r.ID, docType: r.DocType}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, r)
	}

	accessible := make([]bool, len(unique))
	var wg sync.WaitGroup

	for i := range unique {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := unique[i]

			source, err := v.registry.Get(r.DocType)
			if err != nil {
				logger.Debug("Verify: no source for %s, dropping %s", r.DocType, r.ID)
				return
			}

			ok, err := source.Verify(ctx, userID, r.ID)
			if err != nil {
				// Each check resolves independently; a transport error
				// counts as inaccessible rather than failing the batch.
				logger.Debug("Verify: %s/%s check failed: %v", r.DocType, r.ID, err)
				return
			}
			accessible[i] = ok
		}(i)
	}
	wg.Wait()

	verified := make([]domain.SearchResult, 0, len(unique))
	for i, r := range unique {
		if accessible[i] {
			verified = append(verified, r)
		}
	}

	logger.Debug("Verify: %d candidates, %d unique, %d accessible", len(results), len(unique), len(verified))
	return verified, nil
}
