package visualize

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vecmem "github.com/halcyon-labs/nextfind/internal/adapters/driven/vectorstore/memory"
	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
)

func storeWith(t *testing.T, vectors map[string][]float32) *vecmem.Store {
	t.Helper()
	store := vecmem.NewStore()
	points := make([]domain.Point, 0, len(vectors))
	for id, v := range vectors {
		points = append(points, domain.Point{
			ID:      id,
			Dense:   v,
			Payload: domain.Payload{UserID: "alice", DocID: id, DocType: domain.DocTypeNote},
		})
	}
	require.NoError(t, store.Upsert(context.Background(), points, true))
	return store
}

func resultFor(pointID string) domain.SearchResult {
	return domain.SearchResult{
		ID: pointID, DocType: domain.DocTypeNote, Score: 0.9, PointID: pointID,
	}
}

func TestProjectEmptyWithFewerThanTwoVectors(t *testing.T) {
	store := storeWith(t, map[string][]float32{
		"p1": {1, 0, 0, 0},
	})
	pca := NewPCA(store)
	query := []float32{1, 0, 0, 0}

	viz, err := pca.Project(context.Background(), query, nil)
	require.NoError(t, err)
	assert.Empty(t, viz.Coordinates)

	viz, err = pca.Project(context.Background(), query,
		[]domain.SearchResult{resultFor("p1")})
	require.NoError(t, err)
	assert.Empty(t, viz.Coordinates)
}

func TestProjectReturnsOneCoordinatePerResult(t *testing.T) {
	store := storeWith(t, map[string][]float32{
		"p1": {1, 0, 0, 0},
		"p2": {0, 1, 0, 0},
		"p3": {0, 0, 1, 0},
	})
	pca := NewPCA(store)

	viz, err := pca.Project(context.Background(), []float32{1, 1, 0, 0},
		[]domain.SearchResult{resultFor("p1"), resultFor("p2"), resultFor("p3")})

	require.NoError(t, err)
	require.Len(t, viz.Coordinates, 3)

	// Variance ratios are sorted, non-negative, and sum to at most 1.
	var total float64
	for j, v := range viz.ExplainedVariance {
		assert.GreaterOrEqual(t, v, 0.0)
		if j > 0 {
			assert.LessOrEqual(t, v, viz.ExplainedVariance[j-1])
		}
		total += v
	}
	assert.LessOrEqual(t, total, 1.0+1e-9)
}

func TestProjectIdenticalVectorsCoincide(t *testing.T) {
	store := storeWith(t, map[string][]float32{
		"a": {1, 0, 0, 0},
		"b": {2, 0, 0, 0}, // same direction, normalization collapses it
		"c": {0, 1, 0, 0},
	})
	pca := NewPCA(store)

	viz, err := pca.Project(context.Background(), []float32{1, 0, 0, 0},
		[]domain.SearchResult{resultFor("a"), resultFor("b"), resultFor("c")})

	require.NoError(t, err)
	require.Len(t, viz.Coordinates, 3)

	for j := 0; j < 3; j++ {
		assert.InDelta(t, viz.Coordinates[0][j], viz.Coordinates[1][j], 1e-9)
		// The query shares a's direction, so it lands on a too.
		assert.InDelta(t, viz.Coordinates[0][j], viz.QueryCoords[j], 1e-9)
	}
	assert.NotEqual(t, viz.Coordinates[0], viz.Coordinates[2])
}

func TestProjectSkipsMissingPoints(t *testing.T) {
	store := storeWith(t, map[string][]float32{
		"a": {1, 0, 0, 0},
		"b": {0, 1, 0, 0},
	})
	pca := NewPCA(store)

	viz, err := pca.Project(context.Background(), []float32{1, 0, 0, 0},
		[]domain.SearchResult{resultFor("a"), resultFor("gone"), resultFor("b")})

	require.NoError(t, err)
	require.Len(t, viz.Coordinates, 3)
	// The missing result keeps a zero coordinate in its slot.
	assert.Equal(t, domain.Coordinate3D{}, viz.Coordinates[1])
	assert.NotEqual(t, domain.Coordinate3D{}, viz.Coordinates[0])
}

func TestProjectZeroQueryVectorStaysFinite(t *testing.T) {
	store := storeWith(t, map[string][]float32{
		"a": {1, 0, 0, 0},
		"b": {0, 1, 0, 0},
	})
	pca := NewPCA(store)

	viz, err := pca.Project(context.Background(), []float32{0, 0, 0, 0},
		[]domain.SearchResult{resultFor("a"), resultFor("b")})

	require.NoError(t, err)
	for _, c := range append(viz.Coordinates, viz.QueryCoords) {
		for j := 0; j < 3; j++ {
			assert.False(t, math.IsNaN(c[j]))
			assert.False(t, math.IsInf(c[j], 0))
		}
	}
}

type failingStore struct {
	driven.VectorStore
}

func (failingStore) Retrieve(_ context.Context, _ []string) ([]domain.Point, error) {
	return nil, assert.AnError
}

func TestProjectStoreErrorPropagates(t *testing.T) {
	pca := NewPCA(failingStore{vecmem.NewStore()})

	_, err := pca.Project(context.Background(), []float32{1, 0},
		[]domain.SearchResult{resultFor("a"), resultFor("b")})
	assert.ErrorIs(t, err, assert.AnError)
}
