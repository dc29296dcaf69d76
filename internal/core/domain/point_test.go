package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkPointID_Deterministic(t *testing.T) {
	a := ChunkPointID(DocTypeNote, "42", 0)
	b := ChunkPointID(DocTypeNote, "42", 0)
	assert.Equal(t, a, b, "same coordinates must produce the same ID")

	c := ChunkPointID(DocTypeNote, "42", 1)
	assert.NotEqual(t, a, c, "different chunk index must produce a different ID")

	d := ChunkPointID(DocTypeFile, "42", 0)
	assert.NotEqual(t, a, d, "different doc type must produce a different ID")
}

func TestPlaceholderPointID_DistinctFromChunks(t *testing.T) {
	ph := PlaceholderPointID(DocTypeNote, "42")
	assert.NotEqual(t, ph, ChunkPointID(DocTypeNote, "42", 0))

	// One placeholder per document, stable across calls.
	assert.Equal(t, ph, PlaceholderPointID(DocTypeNote, "42"))
}
