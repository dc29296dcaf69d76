package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

func TestSemanticRanksByCosineSimilarity(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "exact", "matches well", []float32{1, 0, 0, 0}),
		chunkPoint("alice", "n2", domain.DocTypeNote, 0, "close", "matches some", []float32{1, 1, 0, 0}),
		chunkPoint("alice", "n3", domain.DocTypeNote, 0, "far", "matches not", []float32{0, 0, 1, 0}),
	)
	embedder := &stubEmbedder{dims: 4, vectors: map[string][]float32{
		"hello": {1, 0, 0, 0},
	}}

	results, err := NewSemantic(store, embedder).Search(
		context.Background(), "hello", "alice", domain.SearchOptions{},
	)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "n1", results[0].ID)
	assert.Equal(t, "n2", results[1].ID)
	assert.Equal(t, "n3", results[2].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSemanticExcludesPlaceholdersAndOtherUsers(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "mine", "alice text", []float32{1, 0, 0, 0}),
		chunkPoint("bob", "n2", domain.DocTypeNote, 0, "theirs", "bob text", []float32{1, 0, 0, 0}),
		placeholderPoint("alice", "n3", domain.DocTypeNote, 4),
	)
	embedder := &stubEmbedder{dims: 4, vectors: map[string][]float32{
		"hello": {1, 0, 0, 0},
	}}

	results, err := NewSemantic(store, embedder).Search(
		context.Background(), "hello", "alice", domain.SearchOptions{},
	)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "n1", results[0].ID)
}

func TestSemanticScoreThreshold(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "near", "", []float32{1, 0, 0, 0}),
		chunkPoint("alice", "n2", domain.DocTypeNote, 0, "off", "", []float32{0, 1, 0, 0}),
	)
	embedder := &stubEmbedder{dims: 4, vectors: map[string][]float32{
		"hello": {1, 0, 0, 0},
	}}

	results, err := NewSemantic(store, embedder).Search(
		context.Background(), "hello", "alice",
		domain.SearchOptions{ScoreThreshold: 0.5},
	)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "n1", results[0].ID)
}

func TestSemanticDistinctChunksOfOneDocumentAreDistinctResults(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "doc", "first part", []float32{1, 0, 0, 0}),
		chunkPoint("alice", "n1", domain.DocTypeNote, 1, "doc", "second part", []float32{1, 1, 0, 0}),
	)
	embedder := &stubEmbedder{dims: 4, vectors: map[string][]float32{
		"hello": {1, 0, 0, 0},
	}}

	results, err := NewSemantic(store, embedder).Search(
		context.Background(), "hello", "alice", domain.SearchOptions{},
	)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotEqual(t, results[0].ChunkStart, results[1].ChunkStart)
}

func TestSemanticDeduplicatesExactDuplicateChunks(t *testing.T) {
	// Two points with distinct IDs but identical document coordinates
	// and offsets collapse to one result.
	original := chunkPoint("alice", "n1", domain.DocTypeNote, 0, "doc", "same text", []float32{1, 0, 0, 0})
	duplicate := original
	duplicate.ID = domain.ChunkPointID(domain.DocTypeNote, "n1-stale", 0)

	store := seedStore(t, original, duplicate)
	embedder := &stubEmbedder{dims: 4, vectors: map[string][]float32{
		"hello": {1, 0, 0, 0},
	}}

	results, err := NewSemantic(store, embedder).Search(
		context.Background(), "hello", "alice", domain.SearchOptions{},
	)

	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSemanticRetainsLastQueryEmbedding(t *testing.T) {
	store := seedStore(t)
	embedder := &stubEmbedder{dims: 4, vectors: map[string][]float32{
		"hello": {0, 1, 0, 0},
	}}
	semantic := NewSemantic(store, embedder)

	assert.Nil(t, semantic.LastQueryEmbedding())

	_, err := semantic.Search(context.Background(), "hello", "alice", domain.SearchOptions{})
	require.NoError(t, err)

	assert.Equal(t, []float32{0, 1, 0, 0}, semantic.LastQueryEmbedding())
}

func TestSemanticWithoutEmbedder(t *testing.T) {
	_, err := NewSemantic(seedStore(t), nil).Search(
		context.Background(), "hello", "alice", domain.SearchOptions{},
	)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestSemanticEmbedderErrorPropagates(t *testing.T) {
	embedder := &stubEmbedder{dims: 4, err: assert.AnError}

	_, err := NewSemantic(seedStore(t), embedder).Search(
		context.Background(), "hello", "alice", domain.SearchOptions{},
	)
	assert.ErrorIs(t, err, assert.AnError)
}
