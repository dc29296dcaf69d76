package domain

// SyncState describes the overall sync pipeline state for a user.
type SyncState string

const (
	SyncIdle     SyncState = "idle"
	SyncSyncing  SyncState = "syncing"
	SyncDisabled SyncState = "disabled"
	SyncUnknown  SyncState = "unknown"
)

// SyncStatus is the answer to a vector-sync status query.
type SyncStatus struct {
	// IndexedCount is the number of real (non-placeholder) points.
	IndexedCount int

	// PendingCount is the number of in-flight placeholders.
	PendingCount int

	// State summarises the pipeline: syncing while placeholders exist,
	// idle otherwise, disabled when sync is off, unknown on store errors.
	State SyncState
}
