package services

import (
	"time"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

// DeletionTracker remembers how long each document has been missing
// from its source, implementing the deletion grace period. One tracker
// instance is owned by one scanner, so no locking is needed; tests can
// instantiate isolated trackers instead of sharing global state.
type DeletionTracker struct {
	firstMissing map[trackerKey]time.Time
}

type trackerKey struct {
	docType domain.DocType
	docID   string
}

// NewDeletionTracker creates an empty tracker.
func NewDeletionTracker() *DeletionTracker {
	return &DeletionTracker{firstMissing: make(map[trackerKey]time.Time)}
}

// MarkMissing records that the document is absent from the source and
// reports whether the grace period has elapsed continuously since its
// first recorded absence. Once it reports true, the entry is cleared so
// exactly one delete task is emitted per disappearance.
func (t *DeletionTracker) MarkMissing(docType domain.DocType, docID string, now time.Time, grace time.Duration) bool {
	key := trackerKey{docType: docType, docID: docID}

	first, ok := t.firstMissing[key]
	if !ok {
		t.firstMissing[key] = now
		return false
	}

	if now.Sub(first) >= grace {
		delete(t.firstMissing, key)
		return true
	}
	return false
}

// MarkPresent cancels any pending deletion for a document that
// reappeared before the grace period lapsed.
func (t *DeletionTracker) MarkPresent(docType domain.DocType, docID string) {
	delete(t.firstMissing, trackerKey{docType: docType, docID: docID})
}

// PendingCount returns the number of documents currently in their grace
// period. Exposed for observability.
func (t *DeletionTracker) PendingCount() int {
	return len(t.firstMissing)
}
