package domain

import "time"

// Operation is the kind of work a DocumentTask requests.
type Operation string

const (
	// OpIndex requests (re-)indexing of a document.
	OpIndex Operation = "index"

	// OpDelete requests removal of a document's points from the index.
	OpDelete Operation = "delete"
)

// DocumentTask is a unit of sync work. Tasks are created by the Scanner,
// consumed exactly once by a Processor, and never persisted: a task lost
// to a crash is re-detected as staleness on the next scan cycle
// (at-least-once delivery, not exactly-once).
type DocumentTask struct {
	// UserID is the owner whose credentials scope all fetches.
	UserID string

	// DocID identifies the document within its source application.
	DocID string

	// DocType identifies the source application.
	DocType DocType

	// Operation is either OpIndex or OpDelete.
	Operation Operation

	// ModifiedAt is the source-side modification timestamp.
	ModifiedAt time.Time

	// ETag is the source-side entity tag, if the source provides one.
	ETag string

	// FilePath is set for file documents (WebDAV path).
	FilePath string

	// Metadata carries source-specific hints (board/stack IDs, MIME type).
	Metadata map[string]any
}
