// Package chunker splits document text into overlapping, position-tracked
// chunks on word boundaries.
package chunker

import (
	"unicode"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

// DefaultChunkSize is the default window size in words.
const DefaultChunkSize = 200

// DefaultOverlap is the default number of words repeated between
// consecutive chunks.
const DefaultOverlap = 40

// Chunker splits content into word windows. Offsets are byte offsets
// into the original content, so content[StartOffset:EndOffset] always
// reproduces the chunk text exactly. The same reconstruction procedure
// must be used at indexing time and at context-retrieval time.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the window size in words.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive windows in words.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Guarantee forward progress: the window must advance by at least
	// one word per iteration.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// span is the byte range of one whitespace-delimited word.
type span struct {
	start int
	end   int
}

// ChunkText splits content into overlapping word windows. A document
// shorter than one window yields a single chunk spanning the whole text,
// leading and trailing whitespace included, for offset fidelity.
func (c *Chunker) ChunkText(content string) []domain.ChunkWithPosition {
	if content == "" {
		return nil
	}

	words := wordSpans(content)
	if len(words) == 0 || len(words) <= c.chunkSize {
		return []domain.ChunkWithPosition{{
			Text:        content,
			StartOffset: 0,
			EndOffset:   len(content),
		}}
	}

	step := c.chunkSize - c.overlap
	if step < 1 {
		step = 1
	}

	chunks := make([]domain.ChunkWithPosition, 0, len(words)/step+1)

	for start := 0; start < len(words); start += step {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}

		from := words[start].start
		to := words[end-1].end

		// Extend the first window back to offset zero and the last
		// window to the end of content so the chunks collectively
		// cover the whole document.
		if start == 0 {
			from = 0
		}
		if end == len(words) {
			to = len(content)
		}

		chunks = append(chunks, domain.ChunkWithPosition{
			Text:        content[from:to],
			StartOffset: from,
			EndOffset:   to,
		})

		if end == len(words) {
			break
		}
	}

	return chunks
}

// wordSpans returns the byte ranges of whitespace-delimited words.
func wordSpans(content string) []span {
	var spans []span
	start := -1

	for i, r := range content {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, span{start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}

	if start >= 0 {
		spans = append(spans, span{start: start, end: len(content)})
	}

	return spans
}
