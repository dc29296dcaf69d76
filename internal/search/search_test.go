package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	vecmem "github.com/halcyon-labs/nextfind/internal/adapters/driven/vectorstore/memory"
	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

// --- Shared test fixtures ---

// stubEmbedder maps known texts to fixed vectors.
type stubEmbedder struct {
	vectors map[string][]float32
	dims    int
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return make([]float32, s.dims), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int              { return s.dims }
func (s *stubEmbedder) Ping(_ context.Context) error { return nil }
func (s *stubEmbedder) Close() error                 { return nil }

// chunkPoint builds a real (non-placeholder) chunk point.
func chunkPoint(userID, docID string, docType domain.DocType, chunkIndex int, title, excerpt string, dense []float32) domain.Point {
	return domain.Point{
		ID:    domain.ChunkPointID(docType, docID, chunkIndex),
		Dense: dense,
		Payload: domain.Payload{
			UserID:     userID,
			DocID:      docID,
			DocType:    docType,
			Title:      title,
			Excerpt:    excerpt,
			ChunkIndex: chunkIndex,
			ChunkStart: chunkIndex * 100,
			ChunkEnd:   chunkIndex*100 + len(excerpt),
		},
	}
}

// placeholderPoint builds an in-flight marker for a document.
func placeholderPoint(userID, docID string, docType domain.DocType, dims int) domain.Point {
	return domain.Point{
		ID:    domain.PlaceholderPointID(docType, docID),
		Dense: make([]float32, dims),
		Payload: domain.Payload{
			UserID:      userID,
			DocID:       docID,
			DocType:     docType,
			Placeholder: true,
			Status:      domain.PlaceholderPending,
		},
	}
}

func seedStore(t *testing.T, points ...domain.Point) *vecmem.Store {
	t.Helper()
	store := vecmem.NewStore()
	require.NoError(t, store.Upsert(context.Background(), points, true))
	return store
}
