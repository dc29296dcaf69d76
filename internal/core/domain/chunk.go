package domain

// ChunkWithPosition is a slice of document text with byte offsets into
// the original content. The invariant content[StartOffset:EndOffset] ==
// Text must hold so that context expansion and highlighting can re-derive
// the chunk from the reconstructed document later.
type ChunkWithPosition struct {
	// Text is the chunk content, byte-for-byte equal to
	// content[StartOffset:EndOffset].
	Text string

	// StartOffset is the inclusive start offset in the original content.
	StartOffset int

	// EndOffset is the exclusive end offset in the original content.
	EndOffset int

	// PageNumber is the 1-based page this chunk predominantly belongs to.
	// Zero means the source is not paginated.
	PageNumber int
}

// PageBoundary describes where a page's text sits within the
// reconstructed document content, for paginated sources.
type PageBoundary struct {
	// Number is the 1-based page number.
	Number int

	// StartOffset is the inclusive start offset of the page's text.
	StartOffset int

	// EndOffset is the exclusive end offset of the page's text.
	EndOffset int
}
