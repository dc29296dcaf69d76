package services

import (
	"context"
	"fmt"
	"time"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
)

// PlaceholderManager writes and reclaims the zero-vector markers that
// make indexing idempotent. A placeholder written durably before its
// task is enqueued stops a concurrent scan from re-queueing a document
// already in flight. Placeholders never surface in results: every
// result-facing query goes through Filter.NotPlaceholder.
type PlaceholderManager struct {
	store driven.VectorStore
	dims  int
}

// NewPlaceholderManager creates a manager writing zero vectors of the
// given dimensionality (must match the embedding model).
func NewPlaceholderManager(store driven.VectorStore, dims int) *PlaceholderManager {
	return &PlaceholderManager{store: store, dims: dims}
}

// Write upserts the document's placeholder with status pending. The
// write waits for durability; only after it returns may the caller
// enqueue the task.
func (m *PlaceholderManager) Write(ctx context.Context, task domain.DocumentTask) error {
	point := domain.Point{
		ID:    domain.PlaceholderPointID(task.DocType, task.DocID),
		Dense: make([]float32, m.dims),
		Payload: domain.Payload{
			UserID:      task.UserID,
			DocID:       task.DocID,
			DocType:     task.DocType,
			ModifiedAt:  task.ModifiedAt,
			IndexedAt:   time.Now(),
			ETag:        task.ETag,
			FilePath:    task.FilePath,
			Placeholder: true,
			Status:      domain.PlaceholderPending,
		},
	}

	if err := m.store.Upsert(ctx, []domain.Point{point}, true); err != nil {
		return fmt.Errorf("write placeholder %s/%s: %w", task.DocType, task.DocID, err)
	}
	return nil
}

// Delete removes the document's placeholder by filter match. Callers
// treat failure as non-fatal: a dangling placeholder only suppresses
// duplicate work and is reclaimed on the next index cycle.
func (m *PlaceholderManager) Delete(ctx context.Context, userID string, docType domain.DocType, docID string) error {
	f := driven.Filter{UserID: userID, DocType: docType, DocID: docID}.OnlyPlaceholder()
	if err := m.store.Delete(ctx, f); err != nil {
		return fmt.Errorf("delete placeholder %s/%s: %w", docType, docID, err)
	}
	return nil
}

// UpdateStatus rewrites the placeholder with a new lifecycle status.
// Best-effort observability; callers ignore the error.
func (m *PlaceholderManager) UpdateStatus(
	ctx context.Context, task domain.DocumentTask, status domain.PlaceholderStatus,
) error {
	point := domain.Point{
		ID:    domain.PlaceholderPointID(task.DocType, task.DocID),
		Dense: make([]float32, m.dims),
		Payload: domain.Payload{
			UserID:      task.UserID,
			DocID:       task.DocID,
			DocType:     task.DocType,
			ModifiedAt:  task.ModifiedAt,
			IndexedAt:   time.Now(),
			ETag:        task.ETag,
			FilePath:    task.FilePath,
			Placeholder: true,
			Status:      status,
		},
	}
	return m.store.Upsert(ctx, []domain.Point{point}, false)
}
