package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

func TestKeywordTitleMatchOutranksContentMatch(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "quarterly budget", "nothing relevant", []float32{1, 0}),
		chunkPoint("alice", "n2", domain.DocTypeNote, 0, "meeting minutes", "the budget was discussed", []float32{1, 0}),
	)

	results, err := NewKeyword(store).Search(
		context.Background(), "budget", "alice", domain.SearchOptions{},
	)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "n1", results[0].ID)
	assert.Equal(t, "n2", results[1].ID)

	// One token, title-only hit: 3 / (1 * 4).
	assert.InDelta(t, 0.75, results[0].Score, 1e-9)
	// Content-only hit: 1 / (1 * 4).
	assert.InDelta(t, 0.25, results[1].Score, 1e-9)
}

func TestKeywordFullMatchScoresOne(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "budget review", "annual budget review notes", []float32{1, 0}),
	)

	results, err := NewKeyword(store).Search(
		context.Background(), "budget review", "alice", domain.SearchOptions{},
	)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestKeywordNonMatchingDocumentsAreOmitted(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "groceries", "milk and eggs", []float32{1, 0}),
	)

	results, err := NewKeyword(store).Search(
		context.Background(), "kubernetes", "alice", domain.SearchOptions{},
	)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestKeywordQueryWithoutTokens(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "anything", "at all", []float32{1, 0}),
	)

	results, err := NewKeyword(store).Search(
		context.Background(), "!!! ---", "alice", domain.SearchOptions{},
	)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestKeywordExcludesPlaceholdersAndRespectsLimit(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "budget one", "", []float32{1, 0}),
		chunkPoint("alice", "n2", domain.DocTypeNote, 0, "budget two", "", []float32{1, 0}),
		chunkPoint("alice", "n3", domain.DocTypeNote, 0, "budget three", "", []float32{1, 0}),
		placeholderPoint("alice", "n4", domain.DocTypeNote, 2),
	)

	results, err := NewKeyword(store).Search(
		context.Background(), "budget", "alice", domain.SearchOptions{Limit: 2},
	)

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestKeywordScopedToDocType(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "budget note", "", []float32{1, 0}),
		chunkPoint("alice", "f1", domain.DocTypeFile, 0, "budget file", "", []float32{1, 0}),
	)

	results, err := NewKeyword(store).Search(
		context.Background(), "budget", "alice",
		domain.SearchOptions{DocType: domain.DocTypeFile},
	)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "f1", results[0].ID)
}
