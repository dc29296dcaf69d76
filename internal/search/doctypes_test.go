package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

func TestDiscoverTypesReturnsSortedIndexedTypes(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "note", "", []float32{1, 0}),
		chunkPoint("alice", "n2", domain.DocTypeNote, 0, "note", "", []float32{1, 0}),
		chunkPoint("alice", "f1", domain.DocTypeFile, 0, "file", "", []float32{1, 0}),
	)

	types, err := DiscoverTypes(context.Background(), store, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.DocType{domain.DocTypeFile, domain.DocTypeNote}, types)
}

func TestDiscoverTypesIgnoresPlaceholdersAndOtherUsers(t *testing.T) {
	store := seedStore(t,
		chunkPoint("alice", "n1", domain.DocTypeNote, 0, "note", "", []float32{1, 0}),
		chunkPoint("bob", "c1", domain.DocTypeContact, 0, "contact", "", []float32{1, 0}),
		placeholderPoint("alice", "e1", domain.DocTypeCalendar, 2),
	)

	types, err := DiscoverTypes(context.Background(), store, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.DocType{domain.DocTypeNote}, types)
}

func TestDiscoverTypesEmptyIndex(t *testing.T) {
	types, err := DiscoverTypes(context.Background(), seedStore(t), "alice")
	require.NoError(t, err)
	assert.Empty(t, types)
}
