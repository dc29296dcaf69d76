package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

func TestFuzzyToleratesTypos(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "c1", domain.DocTypeNote, 0, "calendar", "", []float32{1, 0}),
		chunkPoint("alice", "x1", domain.DocTypeNote, 0, "xyzq", "", []float32{1, 0}),
	)

	// "calender" and "calendar" share the same character set.
	results, err := NewFuzzy(store).Search(
		context.Background(), "calender", "alice", domain.SearchOptions{},
	)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestFuzzyDropsBelowThreshold(t *testing.T) {
	// {a,b,c} vs {a,b,d}: intersection 2, union 4, similarity 0.5.
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "abd", "", []float32{1, 0}),
	)

	results, err := NewFuzzy(store).Search(
		context.Background(), "abc", "alice", domain.SearchOptions{},
	)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFuzzyWithCustomThreshold(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "abd", "", []float32{1, 0}),
	)

	results, err := NewFuzzy(store, WithThreshold(0.5)).Search(
		context.Background(), "abc", "alice", domain.SearchOptions{},
	)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.5, results[0].Score, 1e-9)
}

func TestFuzzyUsesBetterOfTitleAndContent(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "zzzz", "calendar", []float32{1, 0}),
	)

	results, err := NewFuzzy(store).Search(
		context.Background(), "calendar", "alice", domain.SearchOptions{},
	)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestFuzzyEmptyQuery(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "anything", "", []float32{1, 0}),
	)

	results, err := NewFuzzy(store).Search(
		context.Background(), "   ", "alice", domain.SearchOptions{},
	)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFuzzyInvalidThresholdOptionIsIgnored(t *testing.T) {
	f := NewFuzzy(seedStore(t), WithThreshold(0), WithThreshold(1.5))
	assert.Equal(t, DefaultFuzzyThreshold, f.threshold)
}
