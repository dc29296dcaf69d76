package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vecmem "github.com/halcyon-labs/nextfind/internal/adapters/driven/vectorstore/memory"
	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
)

// failingStore wraps the memory store and fails Count.
type failingStore struct {
	driven.VectorStore
}

func (failingStore) Count(_ context.Context, _ driven.Filter) (int, error) {
	return 0, assert.AnError
}

func seedStatusPoints(t *testing.T, store *vecmem.Store) {
	t.Helper()
	ctx := context.Background()

	chunk := domain.Point{
		ID:    domain.ChunkPointID(domain.DocTypeNote, "n1", 0),
		Dense: []float32{1, 0},
		Payload: domain.Payload{
			UserID: "alice", DocID: "n1", DocType: domain.DocTypeNote,
		},
	}
	placeholder := domain.Point{
		ID:    domain.PlaceholderPointID(domain.DocTypeNote, "n2"),
		Dense: []float32{0, 0},
		Payload: domain.Payload{
			UserID: "alice", DocID: "n2", DocType: domain.DocTypeNote,
			Placeholder: true, Status: domain.PlaceholderPending,
		},
	}
	require.NoError(t, store.Upsert(ctx, []domain.Point{chunk, placeholder}, true))
}

func TestStatusSyncingWhilePlaceholdersExist(t *testing.T) {
	store := vecmem.NewStore()
	seedStatusPoints(t, store)

	status, err := NewStatusService(store, true).Status(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, domain.SyncSyncing, status.State)
	assert.Equal(t, 1, status.IndexedCount)
	assert.Equal(t, 1, status.PendingCount)
}

func TestStatusIdleWhenNothingPending(t *testing.T) {
	store := vecmem.NewStore()
	ctx := context.Background()

	chunk := domain.Point{
		ID:    domain.ChunkPointID(domain.DocTypeNote, "n1", 0),
		Dense: []float32{1, 0},
		Payload: domain.Payload{
			UserID: "alice", DocID: "n1", DocType: domain.DocTypeNote,
		},
	}
	require.NoError(t, store.Upsert(ctx, []domain.Point{chunk}, true))

	status, err := NewStatusService(store, true).Status(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, domain.SyncIdle, status.State)
	assert.Equal(t, 1, status.IndexedCount)
	assert.Equal(t, 0, status.PendingCount)
}

func TestStatusScopedToUser(t *testing.T) {
	store := vecmem.NewStore()
	seedStatusPoints(t, store)

	status, err := NewStatusService(store, true).Status(context.Background(), "bob")
	require.NoError(t, err)

	assert.Equal(t, domain.SyncIdle, status.State)
	assert.Equal(t, 0, status.IndexedCount)
	assert.Equal(t, 0, status.PendingCount)
}

func TestStatusDisabled(t *testing.T) {
	status, err := NewStatusService(vecmem.NewStore(), false).Status(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncDisabled, status.State)
}

func TestStatusStoreErrorDegradesToUnknown(t *testing.T) {
	store := failingStore{vecmem.NewStore()}

	status, err := NewStatusService(store, true).Status(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncUnknown, status.State)
}
