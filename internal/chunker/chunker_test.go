package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

func TestChunkText_ShortDocumentSingleChunk(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(2))

	content := "  hello world  "
	chunks := c.ChunkText(content)

	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Text, "single chunk keeps surrounding whitespace")
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(content), chunks[0].EndOffset)
}

func TestChunkText_EmptyContent(t *testing.T) {
	c := New()
	assert.Nil(t, c.ChunkText(""))
}

func TestChunkText_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		content string
		size    int
		overlap int
	}{
		{"plain words", "the quick brown fox jumps over the lazy dog again and again", 4, 1},
		{"extra whitespace", "  a  b\tc\nd e   f g h i j k  ", 3, 1},
		{"unicode", "schöne grüße aus münchen für die suche über alles", 3, 1},
		{"no overlap", strings.Repeat("word ", 50), 7, 0},
		{"heavy overlap", strings.Repeat("tok ", 30), 5, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithChunkSize(tt.size), WithOverlap(tt.overlap))
			chunks := c.ChunkText(tt.content)
			require.NotEmpty(t, chunks)

			for _, ch := range chunks {
				require.Less(t, ch.StartOffset, ch.EndOffset)
				require.LessOrEqual(t, ch.EndOffset, len(tt.content))
				assert.Equal(t, tt.content[ch.StartOffset:ch.EndOffset], ch.Text,
					"offset slice must reproduce chunk text exactly")
			}

			// Offsets are monotonically non-decreasing and the chunks
			// cover the whole document without gaps.
			assert.Equal(t, 0, chunks[0].StartOffset)
			assert.Equal(t, len(tt.content), chunks[len(chunks)-1].EndOffset)
			for i := 1; i < len(chunks); i++ {
				assert.GreaterOrEqual(t, chunks[i].StartOffset, chunks[i-1].StartOffset)
				assert.LessOrEqual(t, chunks[i].StartOffset, chunks[i-1].EndOffset,
					"consecutive chunks must not leave a gap")
			}
		})
	}
}

func TestChunkText_OverlapRepeatsWords(t *testing.T) {
	c := New(WithChunkSize(4), WithOverlap(2))

	chunks := c.ChunkText("w1 w2 w3 w4 w5 w6 w7 w8")
	require.GreaterOrEqual(t, len(chunks), 2)

	// The last two words of the first window reappear in the second.
	assert.Contains(t, chunks[1].Text, "w3 w4")
}

func TestChunkText_Termination(t *testing.T) {
	// Constructor clamps overlap so the window always advances; even a
	// degenerate configuration must terminate.
	c := New(WithChunkSize(2), WithOverlap(2))

	chunks := c.ChunkText(strings.Repeat("x ", 100))
	require.NotEmpty(t, chunks)
}

func TestChunkText_NeverSplitsWords(t *testing.T) {
	c := New(WithChunkSize(3), WithOverlap(1))

	content := "alpha beta gamma delta epsilon zeta eta theta"
	for _, ch := range c.ChunkText(content) {
		for _, w := range strings.Fields(ch.Text) {
			assert.Contains(t, content, w, "chunking must not produce partial words")
		}
	}
}

func TestAssignPages_MaximalOverlap(t *testing.T) {
	chunks := []domain.ChunkWithPosition{
		{StartOffset: 0, EndOffset: 90},    // mostly page 1
		{StartOffset: 80, EndOffset: 210},  // mostly page 2
		{StartOffset: 190, EndOffset: 300}, // mostly page 3
	}
	pages := []domain.PageBoundary{
		{Number: 1, StartOffset: 0, EndOffset: 100},
		{Number: 2, StartOffset: 100, EndOffset: 200},
		{Number: 3, StartOffset: 200, EndOffset: 300},
	}

	AssignPages(chunks, pages)

	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, 2, chunks[1].PageNumber)
	assert.Equal(t, 3, chunks[2].PageNumber)
}

func TestAssignPages_NoPagesLeavesChunksUntouched(t *testing.T) {
	chunks := []domain.ChunkWithPosition{{StartOffset: 0, EndOffset: 10}}
	AssignPages(chunks, nil)
	assert.Zero(t, chunks[0].PageNumber)
}
