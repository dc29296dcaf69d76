// Package visualize projects query and result embeddings into 3D via
// principal component analysis, for plotting result neighbourhoods.
package visualize

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driving"
)

// normEpsilon replaces zero vector norms so normalization never divides
// by zero.
const normEpsilon = 1e-10

// Ensure PCA implements the interface.
var _ driving.Visualizer = (*PCA)(nil)

// PCA reduces result and query embeddings to their top-3 principal
// components. Vectors are L2-normalized first: the index ranks by
// cosine distance while PCA operates in Euclidean space, and
// normalizing makes the two geometries consistent.
type PCA struct {
	store driven.VectorStore
}

// NewPCA creates a visualizer reading result vectors from the store.
func NewPCA(store driven.VectorStore) *PCA {
	return &PCA{store: store}
}

// Project fetches the result points' dense vectors by point ID, fits a
// 3-component PCA over them together with the query embedding, and
// projects everything into that basis. Fewer than two result vectors
// cannot produce meaningful variance, so the projection is empty. NaNs
// in the output are replaced with zero; the caller serializes to JSON,
// which cannot represent NaN.
func (p *PCA) Project(
	ctx context.Context, queryEmbedding []float32, results []domain.SearchResult,
) (domain.Visualization, error) {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.PointID != "" {
			ids = append(ids, r.PointID)
		}
	}

	points, err := p.store.Retrieve(ctx, ids)
	if err != nil {
		return domain.Visualization{}, fmt.Errorf("retrieve result vectors: %w", err)
	}

	byID := make(map[string][]float32, len(points))
	for _, pt := range points {
		byID[pt.ID] = pt.Dense
	}

	vectors := make([][]float64, 0, len(results))
	rows := make([]int, len(results)) // result index -> matrix row, -1 if absent
	for i, r := range results {
		dense, ok := byID[r.PointID]
		if !ok || len(dense) == 0 {
			rows[i] = -1
			continue
		}
		rows[i] = len(vectors)
		vectors = append(vectors, normalize(dense))
	}

	if len(vectors) < 2 {
		return domain.Visualization{}, nil
	}

	queryRow := len(vectors)
	vectors = append(vectors, normalize(queryEmbedding))

	coords, variance, err := project3D(vectors)
	if err != nil {
		return domain.Visualization{}, err
	}

	viz := domain.Visualization{
		Coordinates:       make([]domain.Coordinate3D, len(results)),
		QueryCoords:       coords[queryRow],
		ExplainedVariance: variance,
	}
	for i, row := range rows {
		if row >= 0 {
			viz.Coordinates[i] = coords[row]
		}
	}
	return viz, nil
}

// project3D fits PCA over the row vectors and returns their 3D
// projections plus explained-variance ratios.
func project3D(vectors [][]float64) ([]domain.Coordinate3D, [3]float64, error) {
	n := len(vectors)
	d := len(vectors[0])

	data := mat.NewDense(n, d, nil)
	for i, v := range vectors {
		if len(v) != d {
			return nil, [3]float64{}, fmt.Errorf("%w: embedding dimension mismatch", domain.ErrInvalidInput)
		}
		data.SetRow(i, v)
	}

	// Center the data so the projection is around the component origin.
	means := make([]float64, d)
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, data)
		means[j] = stat.Mean(col, nil)
	}
	centered := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			centered.Set(i, j, data.At(i, j)-means[j])
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(centered, nil); !ok {
		return nil, [3]float64{}, fmt.Errorf("%w: principal components did not converge", domain.ErrInvalidInput)
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	components := 3
	if c := len(vars); c < components {
		components = c
	}

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, d, 0, components))

	coords := make([]domain.Coordinate3D, n)
	for i := 0; i < n; i++ {
		for j := 0; j < components; j++ {
			coords[i][j] = sanitize(proj.At(i, j))
		}
	}

	var total float64
	for _, v := range vars {
		total += v
	}
	var variance [3]float64
	if total > 0 {
		for j := 0; j < components; j++ {
			variance[j] = sanitize(vars[j] / total)
		}
	}

	return coords, variance, nil
}

// normalize L2-normalizes a vector, substituting a small epsilon for a
// zero norm so the division is always defined.
func normalize(v []float32) []float64 {
	out := make([]float64, len(v))
	var norm float64
	for i, x := range v {
		out[i] = float64(x)
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm < normEpsilon {
		norm = normEpsilon
	}
	for i := range out {
		out[i] /= norm
	}
	return out
}

// sanitize maps NaN to zero so projected output is always serializable.
func sanitize(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}
