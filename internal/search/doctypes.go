package search

import (
	"context"
	"sort"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
)

// discoverSample bounds how many points are sampled when discovering
// the indexed document types.
const discoverSample = 512

// DiscoverTypes returns the document types currently indexed for a
// user, found by sampling the index rather than a hardcoded list, so
// new types work without changes to the search algorithms.
func DiscoverTypes(ctx context.Context, store driven.VectorStore, userID string) ([]domain.DocType, error) {
	filter := driven.Filter{UserID: userID}.NotPlaceholder()

	seen := make(map[domain.DocType]bool)
	offset := ""
	sampled := 0

	for sampled < discoverSample {
		points, next, err := store.Scroll(ctx, filter, keywordScrollPage, offset)
		if err != nil {
			return nil, err
		}

		for _, p := range points {
			seen[p.Payload.DocType] = true
		}
		sampled += len(points)

		if next == "" {
			break
		}
		offset = next
	}

	types := make([]domain.DocType, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types, nil
}
