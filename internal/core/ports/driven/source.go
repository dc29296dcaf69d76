package driven

import (
	"context"
	"time"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

// SourceDocument is a document as listed by a source application:
// enough to diff against the index without fetching content.
type SourceDocument struct {
	// ID identifies the document within its source application.
	ID string

	// Title is the human-readable title, when the listing carries one.
	Title string

	// ModifiedAt is the source-side modification timestamp.
	ModifiedAt time.Time

	// ETag is the source-side entity tag, if provided.
	ETag string

	// FilePath is the WebDAV path for file documents.
	FilePath string

	// Metadata carries source-specific hints (board/stack IDs, MIME).
	Metadata map[string]any
}

// DocumentContent is the fetched, reconstructed text of a document.
// The same reconstruction must be used at indexing time and at later
// context-retrieval time so chunk offsets stay valid.
type DocumentContent struct {
	// Title is the document title.
	Title string

	// Text is the full reconstructed text.
	Text string

	// Pages holds page boundaries for paginated sources, nil otherwise.
	Pages []domain.PageBoundary

	// Metadata carries source-specific payload fields.
	Metadata map[string]any
}

// DocumentSource is a capability-scoped accessor for one document type
// (notes, files, deck cards, ...). The scanner and processor consult a
// registry of these instead of switching on doc type inline.
type DocumentSource interface {
	// Type returns the document type this source serves.
	Type() domain.DocType

	// List enumerates the user's current documents. Order is whatever
	// the source API returns.
	List(ctx context.Context, userID string) ([]SourceDocument, error)

	// Fetch retrieves and reconstructs one document's content.
	// Returns domain.ErrNotFound if the document vanished mid-fetch.
	Fetch(ctx context.Context, userID string, task domain.DocumentTask) (DocumentContent, error)

	// Verify reports whether the document is currently accessible to
	// the user. A deleted or permission-revoked document yields false
	// with a nil error; errors are reserved for transport failures.
	Verify(ctx context.Context, userID, docID string) (bool, error)
}
