package domain

// Coordinate3D is a point in the 3D PCA projection space.
type Coordinate3D [3]float64

// Visualization is the result of projecting a query and its results
// into the top-3 principal components of their embeddings.
type Visualization struct {
	// Coordinates holds one projected point per result, in result order.
	// Empty when fewer than two vectors were available.
	Coordinates []Coordinate3D

	// QueryCoords is the projected query embedding. Zero value when
	// Coordinates is empty.
	QueryCoords Coordinate3D

	// ExplainedVariance holds the variance ratio captured by each of
	// the three components.
	ExplainedVariance [3]float64
}
