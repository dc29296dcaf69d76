package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vecmem "github.com/halcyon-labs/nextfind/internal/adapters/driven/vectorstore/memory"
	"github.com/halcyon-labs/nextfind/internal/chunker"
	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockSource implements driven.DocumentSource and counts fetches.
type mockSource struct {
	mu       sync.Mutex
	docType  domain.DocType
	content  driven.DocumentContent
	fetchErr error
	fetches  int
}

func (m *mockSource) Type() domain.DocType { return m.docType }

func (m *mockSource) List(_ context.Context, _ string) ([]driven.SourceDocument, error) {
	return nil, nil
}

func (m *mockSource) Fetch(_ context.Context, _ string, _ domain.DocumentTask) (driven.DocumentContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.fetchErr != nil {
		return driven.DocumentContent{}, m.fetchErr
	}
	return m.content, nil
}

func (m *mockSource) Verify(_ context.Context, _, _ string) (bool, error) {
	return true, nil
}

func (m *mockSource) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

// mockEmbedder implements driven.EmbeddingService with fixed vectors.
type mockEmbedder struct {
	dims int
	err  error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	v := make([]float32, m.dims)
	v[0] = 1
	return v, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockSparse implements driven.SparseEncoder.
type mockSparse struct{}

func (mockSparse) EncodeBatch(_ context.Context, texts []string) ([]domain.SparseVector, error) {
	out := make([]domain.SparseVector, len(texts))
	for i := range texts {
		out[i] = domain.SparseVector{Indices: []uint32{1}, Values: []float32{1}}
	}
	return out, nil
}

func (mockSparse) EncodeQuery(_ context.Context, _ string) (domain.SparseVector, error) {
	return domain.SparseVector{Indices: []uint32{1}, Values: []float32{1}}, nil
}

// mockTokens implements driven.TokenProvider and records requests.
type mockTokens struct {
	mu       sync.Mutex
	err      error
	requests []string
}

func (m *mockTokens) Token(_ context.Context, userID string, scopes []string) (domain.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.AccessToken{}, m.err
	}
	m.requests = append(m.requests, userID)
	return domain.AccessToken{UserID: userID, Token: "tok-" + userID, Scopes: scopes}, nil
}

// --- Tests ---

type processorFixture struct {
	processor *Processor
	source    *mockSource
	store     *vecmem.Store
	tokens    *mockTokens
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()

	source := &mockSource{
		docType: domain.DocTypeNote,
		content: driven.DocumentContent{Title: "note one", Text: "alpha beta gamma delta"},
	}
	store := vecmem.NewStore()
	tokens := &mockTokens{}

	processor := NewProcessor(
		ProcessorConfig{RetryBaseDelay: time.Millisecond},
		NewSourceRegistry(source),
		store,
		NewPlaceholderManager(store, 4),
		&mockEmbedder{dims: 4},
		mockSparse{},
		tokens,
		nil,
		nil,
	)
	return &processorFixture{processor: processor, source: source, store: store, tokens: tokens}
}

func indexTask() domain.DocumentTask {
	return domain.DocumentTask{
		UserID:     "alice",
		DocID:      "n1",
		DocType:    domain.DocTypeNote,
		Operation:  domain.OpIndex,
		ModifiedAt: time.Now().Truncate(time.Second),
	}
}

func TestProcessorIndexWritesChunksAndReclaimsPlaceholder(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()
	task := indexTask()

	placeholders := NewPlaceholderManager(f.store, 4)
	require.NoError(t, placeholders.Write(ctx, task))

	require.NoError(t, f.processor.Process(ctx, task))

	base := driven.Filter{UserID: "alice"}
	visible, err := f.store.Count(ctx, base.NotPlaceholder())
	require.NoError(t, err)
	assert.Equal(t, 1, visible) // short text fits in one chunk

	pending, err := f.store.Count(ctx, base.OnlyPlaceholder())
	require.NoError(t, err)
	assert.Equal(t, 0, pending)

	// Payload carries the document coordinates and offsets.
	points, err := f.store.Retrieve(ctx, []string{domain.ChunkPointID(domain.DocTypeNote, "n1", 0)})
	require.NoError(t, err)
	require.Len(t, points, 1)
	p := points[0].Payload
	assert.Equal(t, "alice", p.UserID)
	assert.Equal(t, "note one", p.Title)
	assert.Equal(t, 0, p.ChunkStart)
	assert.Equal(t, len("alpha beta gamma delta"), p.ChunkEnd)
	assert.Equal(t, 1, p.TotalChunk)
	assert.False(t, p.Placeholder)

	// One fresh token per task.
	assert.Equal(t, []string{"alice"}, f.tokens.requests)
}

func TestProcessorReindexOverwritesByDeterministicID(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()
	task := indexTask()

	require.NoError(t, f.processor.Process(ctx, task))
	require.NoError(t, f.processor.Process(ctx, task))

	count, err := f.store.Count(ctx, driven.Filter{UserID: "alice"}.NotPlaceholder())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessorShrinkRemovesStaleTailChunks(t *testing.T) {
	source := &mockSource{
		docType: domain.DocTypeNote,
		content: driven.DocumentContent{Title: "note one", Text: "alpha beta gamma delta"},
	}
	store := vecmem.NewStore()

	// Two-word windows: the four-word text indexes as two chunks.
	processor := NewProcessor(
		ProcessorConfig{RetryBaseDelay: time.Millisecond},
		NewSourceRegistry(source),
		store,
		NewPlaceholderManager(store, 4),
		&mockEmbedder{dims: 4},
		mockSparse{},
		nil, nil,
		chunker.New(chunker.WithChunkSize(2), chunker.WithOverlap(0)),
	)

	ctx := context.Background()
	task := indexTask()
	require.NoError(t, processor.Process(ctx, task))

	base := driven.Filter{UserID: "alice"}.NotPlaceholder()
	count, err := store.Count(ctx, base)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// The document shrinks to one chunk. Re-indexing overwrites index
	// zero by deterministic ID, and the old tail chunk must go with it.
	source.mu.Lock()
	source.content = driven.DocumentContent{Title: "note one", Text: "alpha beta"}
	source.mu.Unlock()
	task.ModifiedAt = task.ModifiedAt.Add(time.Hour)

	require.NoError(t, processor.Process(ctx, task))

	count, err = store.Count(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stale, err := store.Retrieve(ctx, []string{domain.ChunkPointID(domain.DocTypeNote, "n1", 1)})
	require.NoError(t, err)
	assert.Empty(t, stale)

	// The surviving chunk carries the new text.
	points, err := store.Retrieve(ctx, []string{domain.ChunkPointID(domain.DocTypeNote, "n1", 0)})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "alpha beta", points[0].Payload.Excerpt)
	assert.Equal(t, 1, points[0].Payload.TotalChunk)
}

func TestProcessorRetryExhaustion(t *testing.T) {
	f := newProcessorFixture(t)
	f.source.fetchErr = assert.AnError
	ctx := context.Background()
	task := indexTask()

	placeholders := NewPlaceholderManager(f.store, 4)
	require.NoError(t, placeholders.Write(ctx, task))

	err := f.processor.Process(ctx, task)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	// Exactly DefaultMaxAttempts fetches, no more.
	assert.Equal(t, DefaultMaxAttempts, f.source.fetchCount())

	// The placeholder was marked failed, not deleted.
	points, err := f.store.Retrieve(ctx, []string{domain.PlaceholderPointID(domain.DocTypeNote, "n1")})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, domain.PlaceholderFailed, points[0].Payload.Status)
}

func TestProcessorVanishedDocumentIsDroppedWithoutRetry(t *testing.T) {
	f := newProcessorFixture(t)
	f.source.fetchErr = domain.ErrNotFound

	err := f.processor.Process(context.Background(), indexTask())
	assert.NoError(t, err)
	assert.Equal(t, 1, f.source.fetchCount())
}

func TestProcessorDeprovisionedUserIsSkipped(t *testing.T) {
	f := newProcessorFixture(t)
	f.tokens.err = domain.ErrNotProvisioned

	err := f.processor.Process(context.Background(), indexTask())
	assert.NoError(t, err)
	// Token exchange fails before any fetch happens.
	assert.Equal(t, 0, f.source.fetchCount())
}

func TestProcessorDeleteRemovesAllDocumentPoints(t *testing.T) {
	f := newProcessorFixture(t)
	ctx := context.Background()
	task := indexTask()

	placeholders := NewPlaceholderManager(f.store, 4)
	require.NoError(t, placeholders.Write(ctx, task))
	require.NoError(t, f.processor.Process(ctx, task))

	del := task
	del.Operation = domain.OpDelete
	require.NoError(t, f.processor.Process(ctx, del))

	count, err := f.store.Count(ctx, driven.Filter{UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestProcessorEmptyContentReclaimsEverything(t *testing.T) {
	f := newProcessorFixture(t)
	f.source.content = driven.DocumentContent{Title: "empty", Text: "   "}
	ctx := context.Background()
	task := indexTask()

	placeholders := NewPlaceholderManager(f.store, 4)
	require.NoError(t, placeholders.Write(ctx, task))

	require.NoError(t, f.processor.Process(ctx, task))

	count, err := f.store.Count(ctx, driven.Filter{UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestProcessorUnknownOperationFails(t *testing.T) {
	f := newProcessorFixture(t)
	task := indexTask()
	task.Operation = "compact"

	err := f.processor.Process(context.Background(), task)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProcessorRunDrainsUntilStreamCloses(t *testing.T) {
	f := newProcessorFixture(t)
	stream := NewTaskStream(10)
	ctx := context.Background()

	require.NoError(t, stream.Send(ctx, indexTask()))
	stream.Close()

	done := make(chan error, 1)
	go func() { done <- f.processor.Run(ctx, stream) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit after stream close")
	}

	count, err := f.store.Count(ctx, driven.Filter{UserID: "alice"}.NotPlaceholder())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
