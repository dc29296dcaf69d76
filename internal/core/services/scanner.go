package services

import (
	"context"
	"errors"
	"time"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

// DefaultScanInterval is the default pause between scan cycles.
const DefaultScanInterval = 5 * time.Minute

// graceFactor scales the scan interval into the deletion grace period.
// 1.5 intervals absorb one missed or partial scan without a spurious
// delete.
const graceFactor = 1.5

// scrollPageSize bounds the indexed-state pagination per request.
const scrollPageSize = 256

// scanScopes are the scopes requested for background source listings.
// Listings tolerate a cached token; a revocation is honoured on the
// next refresh rather than mid-cycle.
var scanScopes = []string{"read"}

// Scanner polls one user's sources, diffs them against the indexed
// state, and emits index/delete tasks onto the bounded stream. One
// Scanner instance exists per user, so its tracker needs no locking.
type Scanner struct {
	userID       string
	registry     *SourceRegistry
	store        driven.VectorStore
	placeholders *PlaceholderManager
	stream       *TaskStream
	tracker      *DeletionTracker
	tokens       driven.TokenProvider
	metrics      driven.Metrics
	interval     time.Duration
	wake         chan struct{}
}

// ScannerConfig configures a scanner.
type ScannerConfig struct {
	// UserID is the user this scanner serves.
	UserID string

	// Interval is the pause between scan cycles.
	// Defaults to DefaultScanInterval.
	Interval time.Duration
}

// NewScanner creates a scanner for one user. The token provider is
// optional: nil means BasicAuth mode, where source clients hold static
// credentials.
func NewScanner(
	cfg ScannerConfig,
	registry *SourceRegistry,
	store driven.VectorStore,
	placeholders *PlaceholderManager,
	stream *TaskStream,
	tokens driven.TokenProvider,
	metrics driven.Metrics,
) *Scanner {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultScanInterval
	}

	return &Scanner{
		userID:       cfg.UserID,
		registry:     registry,
		store:        store,
		placeholders: placeholders,
		stream:       stream,
		tracker:      NewDeletionTracker(),
		tokens:       tokens,
		metrics:      metrics,
		interval:     interval,
		wake:         make(chan struct{}, 1),
	}
}

// Wake asks the scanner to start its next cycle without waiting for the
// interval timer (e.g. a note was just created). Never blocks.
func (s *Scanner) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run executes scan cycles until the context is cancelled. Between
// cycles it sleeps on a race between the interval timer and the wake
// signal. Returns domain.ErrNotProvisioned when the user's background
// access is revoked mid-scan, so the supervisor can retire the scanner.
func (s *Scanner) Run(ctx context.Context) error {
	for {
		if err := s.ScanOnce(ctx); err != nil {
			if errors.Is(err, domain.ErrNotProvisioned) {
				logger.Info("Scanner %s: user no longer provisioned, stopping", s.userID)
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Transient scan failures are retried on the next cycle.
			logger.Warn("Scanner %s: scan cycle failed: %v", s.userID, err)
		}

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		case <-s.wake:
			timer.Stop()
			logger.Debug("Scanner %s: woken before interval", s.userID)
		}
	}
}

// ScanOnce runs a single scan cycle over every registered source.
func (s *Scanner) ScanOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveDuration("scan_cycle", time.Since(start))
		}
	}()

	for _, source := range s.registry.All() {
		if err := s.scanSource(ctx, source); err != nil {
			if errors.Is(err, domain.ErrNotProvisioned) || ctx.Err() != nil {
				return err
			}
			// One source failing must not starve the others.
			logger.Warn("Scanner %s: %s scan failed: %v", s.userID, source.Type(), err)
			if s.metrics != nil {
				s.metrics.CountOp("scan_source", false)
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.CountOp("scan_source", true)
		}
	}

	return nil
}

// scanSource diffs one source's documents against the indexed state.
func (s *Scanner) scanSource(ctx context.Context, source driven.DocumentSource) error {
	docType := source.Type()

	// OAuth mode: listings run under the user's background token.
	// domain.ErrNotProvisioned propagates so Run retires the scanner.
	if s.tokens != nil {
		token, err := s.tokens.Token(ctx, s.userID, scanScopes)
		if err != nil {
			return err
		}
		ctx = domain.WithAccessToken(ctx, token)
	}

	docs, err := source.List(ctx, s.userID)
	if err != nil {
		return err
	}

	indexed, err := s.indexedState(ctx, docType)
	if err != nil {
		return err
	}

	logger.Debug("Scanner %s: %s: %d source docs, %d indexed", s.userID, docType, len(docs), len(indexed))

	present := make(map[string]bool, len(docs))
	for _, doc := range docs {
		present[doc.ID] = true
		s.tracker.MarkPresent(docType, doc.ID)

		stored, ok := indexed[doc.ID]
		if ok && !doc.ModifiedAt.After(stored) {
			continue // Up to date.
		}

		task := domain.DocumentTask{
			UserID:     s.userID,
			DocID:      doc.ID,
			DocType:    docType,
			Operation:  domain.OpIndex,
			ModifiedAt: doc.ModifiedAt,
			ETag:       doc.ETag,
			FilePath:   doc.FilePath,
			Metadata:   doc.Metadata,
		}

		// The placeholder must be durable before the task is enqueued
		// so a concurrent scan sees the document as in flight.
		if err := s.placeholders.Write(ctx, task); err != nil {
			logger.Warn("Scanner %s: %v", s.userID, err)
			continue
		}
		if err := s.stream.Send(ctx, task); err != nil {
			return err
		}
	}

	// Indexed documents absent from the source enter the grace period;
	// a delete task fires only after a continuous absence of
	// graceFactor × interval.
	grace := time.Duration(graceFactor * float64(s.interval))
	now := time.Now()

	for docID := range indexed {
		if present[docID] {
			continue
		}
		if !s.tracker.MarkMissing(docType, docID, now, grace) {
			continue
		}

		logger.Info("Scanner %s: %s/%s missing past grace period, deleting", s.userID, docType, docID)
		task := domain.DocumentTask{
			UserID:    s.userID,
			DocID:     docID,
			DocType:   docType,
			Operation: domain.OpDelete,
		}
		if err := s.stream.Send(ctx, task); err != nil {
			return err
		}
	}

	return nil
}

// indexedState returns doc_id → newest indexed modification timestamp
// for this user and type. Pending and processing placeholders count as
// indexed so in-flight documents are not re-queued; failed placeholders
// do not, because the document was never written and the next cycle
// must re-emit it.
func (s *Scanner) indexedState(ctx context.Context, docType domain.DocType) (map[string]time.Time, error) {
	state := make(map[string]time.Time)
	filter := driven.Filter{UserID: s.userID, DocType: docType}

	offset := ""
	for {
		points, next, err := s.store.Scroll(ctx, filter, scrollPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, p := range points {
			if p.Payload.Placeholder && p.Payload.Status == domain.PlaceholderFailed {
				continue
			}
			if existing, ok := state[p.Payload.DocID]; !ok || p.Payload.ModifiedAt.After(existing) {
				state[p.Payload.DocID] = p.Payload.ModifiedAt
			}
		}

		if next == "" {
			break
		}
		offset = next
	}

	return state, nil
}
