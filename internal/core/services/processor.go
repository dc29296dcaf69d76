package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/halcyon-labs/nextfind/internal/chunker"
	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

// Processor tuning defaults.
const (
	// DefaultMaxAttempts is how many times an index task is tried
	// before being dropped for the next scan cycle to retry.
	DefaultMaxAttempts = 3

	// DefaultRetryBaseDelay is the first backoff pause; it doubles on
	// each subsequent attempt.
	DefaultRetryBaseDelay = 2 * time.Second

	// DefaultUpsertBatchSize bounds points per upsert request so a
	// single write never grows unboundedly with document size.
	DefaultUpsertBatchSize = 64

	// receivePoll is how long a worker waits on the stream before
	// re-checking for shutdown.
	receivePoll = 500 * time.Millisecond

	// excerptLimit caps the stored excerpt length in bytes.
	excerptLimit = 500
)

// processScopes are the scopes requested for hot-path document fetches.
var processScopes = []string{"read"}

// Processor consumes DocumentTasks: it fetches content, chunks, embeds,
// and upserts points for index tasks, and clears points for delete
// tasks. Index failures are retried with exponential backoff; a task
// that exhausts its retries is dropped, because the next scan cycle
// re-detects the document as stale and re-emits it.
type Processor struct {
	registry     *SourceRegistry
	store        driven.VectorStore
	placeholders *PlaceholderManager
	embedder     driven.EmbeddingService
	sparse       driven.SparseEncoder
	tokens       driven.TokenProvider
	metrics      driven.Metrics
	chunks       *chunker.Chunker

	maxAttempts int
	baseDelay   time.Duration
	batchSize   int
}

// ProcessorConfig tunes retry and batching behaviour. Zero values take
// the package defaults.
type ProcessorConfig struct {
	MaxAttempts     int
	RetryBaseDelay  time.Duration
	UpsertBatchSize int
}

// NewProcessor creates a processor. The token provider is optional: nil
// means BasicAuth mode, where source clients hold static credentials.
func NewProcessor(
	cfg ProcessorConfig,
	registry *SourceRegistry,
	store driven.VectorStore,
	placeholders *PlaceholderManager,
	embedder driven.EmbeddingService,
	sparse driven.SparseEncoder,
	tokens driven.TokenProvider,
	metrics driven.Metrics,
	chunks *chunker.Chunker,
) *Processor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if cfg.UpsertBatchSize <= 0 {
		cfg.UpsertBatchSize = DefaultUpsertBatchSize
	}
	if chunks == nil {
		chunks = chunker.New()
	}

	return &Processor{
		registry:     registry,
		store:        store,
		placeholders: placeholders,
		embedder:     embedder,
		sparse:       sparse,
		tokens:       tokens,
		metrics:      metrics,
		chunks:       chunks,
		maxAttempts:  cfg.MaxAttempts,
		baseDelay:    cfg.RetryBaseDelay,
		batchSize:    cfg.UpsertBatchSize,
	}
}

// Run is a worker loop draining the stream. It polls with a short
// timeout so shutdown is noticed promptly, and exits cleanly when the
// stream closes. Task failures are isolated: one user's bad document
// never crashes the pool.
func (p *Processor) Run(ctx context.Context, stream *TaskStream) error {
	for {
		task, err := stream.Receive(ctx, receivePoll)
		switch {
		case errors.Is(err, ErrReceiveTimeout):
			continue
		case errors.Is(err, domain.ErrStreamClosed):
			return nil
		case err != nil:
			return err
		}

		if err := p.Process(ctx, task); err != nil {
			logger.Warn("Processor: %s %s/%s failed: %v", task.Operation, task.DocType, task.DocID, err)
		}
	}
}

// Process executes one task, failing only after retries are exhausted.
func (p *Processor) Process(ctx context.Context, task domain.DocumentTask) error {
	start := time.Now()
	err := p.process(ctx, task)

	if p.metrics != nil {
		p.metrics.CountOp("process_document", err == nil)
		p.metrics.ObserveDuration("process_document", time.Since(start))
	}
	return err
}

func (p *Processor) process(ctx context.Context, task domain.DocumentTask) error {
	switch task.Operation {
	case domain.OpDelete:
		// Deletes are idempotent; no retry.
		return p.deleteDocument(ctx, task)
	case domain.OpIndex:
		return p.indexWithRetry(ctx, task)
	default:
		return fmt.Errorf("%w: operation %q", domain.ErrInvalidInput, task.Operation)
	}
}

// deleteDocument removes every point for the document, placeholder and
// chunks alike.
func (p *Processor) deleteDocument(ctx context.Context, task domain.DocumentTask) error {
	f := driven.Filter{UserID: task.UserID, DocID: task.DocID, DocType: task.DocType}
	if err := p.store.Delete(ctx, f); err != nil {
		return fmt.Errorf("delete points %s/%s: %w", task.DocType, task.DocID, err)
	}
	logger.Debug("Processor: deleted %s/%s for %s", task.DocType, task.DocID, task.UserID)
	return nil
}

// indexWithRetry runs indexOnce with exponential backoff. Permanent
// per-document conditions (document vanished, user deprovisioned) are
// not retried.
func (p *Processor) indexWithRetry(ctx context.Context, task domain.DocumentTask) error {
	var lastErr error
	delay := p.baseDelay

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		err := p.indexOnce(ctx, task)
		if err == nil {
			return nil
		}

		switch {
		case errors.Is(err, domain.ErrNotFound):
			// Deleted mid-fetch; the scanner's grace period will emit
			// the delete. Drop without retrying.
			logger.Debug("Processor: %s/%s vanished mid-fetch, dropping task", task.DocType, task.DocID)
			return nil
		case errors.Is(err, domain.ErrNotProvisioned):
			// Skip this user's task without crashing the pool.
			logger.Info("Processor: user %s not provisioned, skipping %s/%s", task.UserID, task.DocType, task.DocID)
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		}

		lastErr = err
		if attempt < p.maxAttempts {
			logger.Warn("Processor: attempt %d/%d for %s/%s failed: %v (retrying in %s)",
				attempt, p.maxAttempts, task.DocType, task.DocID, err, delay)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}
	}

	_ = p.placeholders.UpdateStatus(ctx, task, domain.PlaceholderFailed)
	return fmt.Errorf("index %s/%s: %d attempts exhausted: %w", task.DocType, task.DocID, p.maxAttempts, lastErr)
}

// indexOnce is a single indexing attempt: fetch, chunk, embed, upsert.
func (p *Processor) indexOnce(ctx context.Context, task domain.DocumentTask) error {
	source, err := p.registry.Get(task.DocType)
	if err != nil {
		return err
	}

	// OAuth mode: every task gets a fresh token scoped to its user.
	// Tokens are never reused across tasks of different users.
	if p.tokens != nil {
		token, err := p.tokens.Token(ctx, task.UserID, processScopes)
		if err != nil {
			return err
		}
		ctx = domain.WithAccessToken(ctx, token)
	}

	_ = p.placeholders.UpdateStatus(ctx, task, domain.PlaceholderProcessing)

	content, err := source.Fetch(ctx, task.UserID, task)
	if err != nil {
		return fmt.Errorf("fetch %s/%s: %w", task.DocType, task.DocID, err)
	}

	chunks := p.chunks.ChunkText(content.Text)
	if len(chunks) == 0 {
		// Nothing to index; reclaim the placeholder and any stale points.
		return p.deleteDocument(ctx, task)
	}
	chunker.AssignPages(chunks, content.Pages)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	// Dense embedding (I/O bound) and sparse encoding (CPU bound) are
	// independent given the chunk list, so they run concurrently.
	var dense [][]float32
	var sparse []domain.SparseVector

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dense, err = p.embedder.EmbedBatch(gctx, texts)
		return err
	})
	g.Go(func() error {
		var err error
		sparse, err = p.sparse.EncodeBatch(gctx, texts)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("encode %s/%s: %w", task.DocType, task.DocID, err)
	}
	if len(dense) != len(chunks) || len(sparse) != len(chunks) {
		return fmt.Errorf("encode %s/%s: got %d dense / %d sparse vectors for %d chunks",
			task.DocType, task.DocID, len(dense), len(sparse), len(chunks))
	}

	points := p.buildPoints(task, content, chunks, dense, sparse)

	// Chunk points are written before the placeholder is reclaimed, so
	// the document is never invisible to search. The brief coexistence
	// of placeholder and real points is harmless: placeholders are
	// filtered out of every result-facing query.
	for start := 0; start < len(points); start += p.batchSize {
		end := start + p.batchSize
		if end > len(points) {
			end = len(points)
		}
		if err := p.store.Upsert(ctx, points[start:end], true); err != nil {
			return fmt.Errorf("upsert %s/%s batch %d: %w", task.DocType, task.DocID, start/p.batchSize, err)
		}
	}

	// A document that shrank since its last index leaves tail chunks
	// behind; clear everything at or past the new chunk count so stale
	// text never lingers in search.
	stale := driven.Filter{UserID: task.UserID, DocID: task.DocID, DocType: task.DocType}.ChunksFrom(len(points))
	if err := p.store.Delete(ctx, stale); err != nil {
		return fmt.Errorf("trim stale chunks %s/%s: %w", task.DocType, task.DocID, err)
	}

	if err := p.placeholders.Delete(ctx, task.UserID, task.DocType, task.DocID); err != nil {
		// Non-fatal: a dangling placeholder only suppresses duplicate
		// work and is overwritten on the next index cycle.
		logger.Warn("Processor: %v", err)
	}

	logger.Debug("Processor: indexed %s/%s (%d chunks)", task.DocType, task.DocID, len(points))
	return nil
}

// buildPoints assembles chunk points with deterministic IDs so that
// re-indexing overwrites rather than duplicates.
func (p *Processor) buildPoints(
	task domain.DocumentTask,
	content driven.DocumentContent,
	chunks []domain.ChunkWithPosition,
	dense [][]float32,
	sparse []domain.SparseVector,
) []domain.Point {
	now := time.Now()
	points := make([]domain.Point, len(chunks))

	for i, c := range chunks {
		excerpt := c.Text
		if len(excerpt) > excerptLimit {
			excerpt = excerpt[:excerptLimit]
		}

		points[i] = domain.Point{
			ID:     domain.ChunkPointID(task.DocType, task.DocID, i),
			Dense:  dense[i],
			Sparse: sparse[i],
			Payload: domain.Payload{
				UserID:     task.UserID,
				DocID:      task.DocID,
				DocType:    task.DocType,
				Title:      content.Title,
				Excerpt:    excerpt,
				ChunkIndex: i,
				TotalChunk: len(chunks),
				ChunkStart: c.StartOffset,
				ChunkEnd:   c.EndOffset,
				PageNumber: c.PageNumber,
				ModifiedAt: task.ModifiedAt,
				IndexedAt:  now,
				ETag:       task.ETag,
				FilePath:   task.FilePath,
				Extra:      content.Metadata,
			},
		}
	}

	return points
}
