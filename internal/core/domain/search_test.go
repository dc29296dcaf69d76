package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearchResult_RejectsNegativeScore(t *testing.T) {
	_, err := NewSearchResult(SearchResult{ID: "n1", DocType: DocTypeNote, Score: -0.01})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestNewSearchResult_AllowsZeroScore(t *testing.T) {
	r, err := NewSearchResult(SearchResult{ID: "n1", DocType: DocTypeNote, Score: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Score)
}

func TestNewSearchResult_AllowsDBSFScoresAboveOne(t *testing.T) {
	// DBSF fusion sums per-system normalized scores and can exceed 1.0.
	r, err := NewSearchResult(SearchResult{ID: "f1", DocType: DocTypeFile, Score: 1.55})
	require.NoError(t, err)
	assert.Equal(t, 1.55, r.Score)
}
