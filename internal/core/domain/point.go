package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// pointNamespace is the UUIDv5 namespace for all point identifiers.
// Changing it would orphan every previously indexed point.
var pointNamespace = uuid.MustParse("b9cfd2a4-6f51-4c8e-9d7e-3a1f0e8b5c42")

// PlaceholderStatus tracks the lifecycle of an in-flight placeholder.
type PlaceholderStatus string

const (
	PlaceholderPending    PlaceholderStatus = "pending"
	PlaceholderProcessing PlaceholderStatus = "processing"
	PlaceholderCompleted  PlaceholderStatus = "completed"
	PlaceholderFailed     PlaceholderStatus = "failed"
)

// SparseVector is a keyword-weighted term vector (BM25-style) used
// alongside the dense embedding for hybrid ranking.
type SparseVector struct {
	// Indices are term hashes, parallel to Values.
	Indices []uint32

	// Values are the per-term weights.
	Values []float32
}

// Payload is the structured metadata stored with every point.
type Payload struct {
	UserID     string            `json:"user_id"`
	DocID      string            `json:"doc_id"`
	DocType    DocType           `json:"doc_type"`
	Title      string            `json:"title"`
	Excerpt    string            `json:"excerpt"`
	ChunkIndex int               `json:"chunk_index"`
	TotalChunk int               `json:"total_chunks"`
	ChunkStart int               `json:"chunk_start_offset"`
	ChunkEnd   int               `json:"chunk_end_offset"`
	PageNumber int               `json:"page_number,omitempty"`
	ModifiedAt time.Time         `json:"modified_at"`
	IndexedAt  time.Time         `json:"indexed_at"`
	ETag       string            `json:"etag,omitempty"`
	FilePath   string            `json:"file_path,omitempty"`
	Extra      map[string]any    `json:"extra,omitempty"`

	// Placeholder marks an in-flight zero-vector marker. Placeholders
	// are excluded from every result-facing query.
	Placeholder bool              `json:"is_placeholder"`
	Status      PlaceholderStatus `json:"status,omitempty"`
}

// Point is the unit stored in the vector index: either a placeholder
// (zero vector, Payload.Placeholder true) or a real chunk point carrying
// dense and sparse vectors.
type Point struct {
	// ID is the deterministic UUIDv5 identity of the point.
	ID string

	// Dense is the fixed-dimension embedding. All zeros for placeholders.
	Dense []float32

	// Sparse is the BM25-style term vector. Empty for placeholders.
	Sparse SparseVector

	// Payload is the structured metadata.
	Payload Payload
}

// ChunkPointID derives the identity of a chunk point from its document
// coordinates. Re-indexing the same chunk therefore overwrites rather
// than duplicates.
func ChunkPointID(docType DocType, docID string, chunkIndex int) string {
	name := fmt.Sprintf("%s:%s:%d", docType, docID, chunkIndex)
	return uuid.NewSHA1(pointNamespace, []byte(name)).String()
}

// PlaceholderPointID derives the identity of a document's placeholder
// marker. One placeholder exists per document regardless of chunk count.
func PlaceholderPointID(docType DocType, docID string) string {
	name := fmt.Sprintf("%s:%s:placeholder", docType, docID)
	return uuid.NewSHA1(pointNamespace, []byte(name)).String()
}
