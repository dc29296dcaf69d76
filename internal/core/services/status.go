package services

import (
	"context"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusReporter = (*StatusService)(nil)

// StatusService answers vector-sync status queries from point counts.
type StatusService struct {
	store   driven.VectorStore
	enabled bool
}

// NewStatusService creates a status reporter. enabled should be false
// when the sync pipeline is configured off.
func NewStatusService(store driven.VectorStore, enabled bool) *StatusService {
	return &StatusService{store: store, enabled: enabled}
}

// Status reports indexed and pending counts for a user. Placeholders
// are the pending set; real chunk points are the indexed set. Store
// errors degrade to SyncUnknown instead of propagating.
func (s *StatusService) Status(ctx context.Context, userID string) (domain.SyncStatus, error) {
	if !s.enabled {
		return domain.SyncStatus{State: domain.SyncDisabled}, nil
	}

	base := driven.Filter{UserID: userID}

	indexed, err := s.store.Count(ctx, base.NotPlaceholder())
	if err != nil {
		return domain.SyncStatus{State: domain.SyncUnknown}, nil
	}

	pending, err := s.store.Count(ctx, base.OnlyPlaceholder())
	if err != nil {
		return domain.SyncStatus{State: domain.SyncUnknown}, nil
	}

	state := domain.SyncIdle
	if pending > 0 {
		state = domain.SyncSyncing
	}

	return domain.SyncStatus{
		IndexedCount: indexed,
		PendingCount: pending,
		State:        state,
	}, nil
}
