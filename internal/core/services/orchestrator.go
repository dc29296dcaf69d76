package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

// Orchestrator defaults.
const (
	// DefaultPollInterval is how often the credential store is polled
	// for provisioning changes.
	DefaultPollInterval = 30 * time.Second

	// DefaultWorkers is the size of the shared processor pool.
	DefaultWorkers = 4

	// DefaultStreamCapacity bounds the multiplexed task stream.
	DefaultStreamCapacity = 100
)

// Orchestrator supervises per-user scanner lifecycles in OAuth mode. It
// polls the credential store, spawns a scanner under its own
// cancellation scope for each newly provisioned user, and cancels the
// scope of any user whose credentials are revoked. A shared pool of
// processor workers drains the single stream fed by all scanners.
//
// In BasicAuth mode there is no supervision: RunSingle runs one static
// scanner/processor pair.
type Orchestrator struct {
	creds        driven.CredentialsStore
	tokens       driven.TokenProvider
	registry     *SourceRegistry
	store        driven.VectorStore
	placeholders *PlaceholderManager
	processor    *Processor
	metrics      driven.Metrics

	scanInterval time.Duration
	pollInterval time.Duration
	workers      int

	stream *TaskStream

	mu       sync.Mutex
	scanners map[string]context.CancelFunc
	running  map[string]*Scanner
	wg       sync.WaitGroup
}

// OrchestratorConfig tunes supervision. Zero values take the defaults.
type OrchestratorConfig struct {
	ScanInterval   time.Duration
	PollInterval   time.Duration
	Workers        int
	StreamCapacity int
}

// NewOrchestrator creates a supervisor over the given collaborators.
// The token provider feeds scanner listings and is optional; in OAuth
// mode it is typically a cached provider so every cycle does not hit
// the token endpoint.
func NewOrchestrator(
	cfg OrchestratorConfig,
	creds driven.CredentialsStore,
	tokens driven.TokenProvider,
	registry *SourceRegistry,
	store driven.VectorStore,
	placeholders *PlaceholderManager,
	processor *Processor,
	metrics driven.Metrics,
) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.StreamCapacity <= 0 {
		cfg.StreamCapacity = DefaultStreamCapacity
	}

	return &Orchestrator{
		creds:        creds,
		tokens:       tokens,
		registry:     registry,
		store:        store,
		placeholders: placeholders,
		processor:    processor,
		metrics:      metrics,
		scanInterval: cfg.ScanInterval,
		pollInterval: cfg.PollInterval,
		workers:      cfg.Workers,
		stream:       NewTaskStream(cfg.StreamCapacity),
		scanners:     make(map[string]context.CancelFunc),
		running:      make(map[string]*Scanner),
	}
}

// Run starts the processor pool and the supervision loop, blocking
// until the context is cancelled. On shutdown it cancels every scanner,
// closes the stream, and waits for the workers to drain.
func (o *Orchestrator) Run(ctx context.Context) error {
	for i := 0; i < o.workers; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if err := o.processor.Run(ctx, o.stream); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Orchestrator: worker exited: %v", err)
			}
		}()
	}

	o.reconcile(ctx)

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.shutdown()
			return ctx.Err()
		case <-ticker.C:
			o.reconcile(ctx)
		}
	}
}

// RunSingle runs a single static scanner for BasicAuth mode, plus the
// worker pool, without credential supervision.
func (o *Orchestrator) RunSingle(ctx context.Context, userID string) error {
	for i := 0; i < o.workers; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			_ = o.processor.Run(ctx, o.stream)
		}()
	}

	scanner := o.newScanner(userID)
	err := scanner.Run(ctx)

	o.stream.Close()
	o.wg.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Wake nudges every running scanner to scan ahead of its interval.
func (o *Orchestrator) Wake() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range o.running {
		s.Wake()
	}
}

// reconcile diffs provisioned users against running scanners, spawning
// and cancelling as needed. Errors are logged and retried next poll.
func (o *Orchestrator) reconcile(ctx context.Context) {
	users, err := o.creds.ListProvisioned(ctx)
	if err != nil {
		logger.Warn("Orchestrator: listing provisioned users: %v", err)
		return
	}

	provisioned := make(map[string]bool, len(users))
	for _, u := range users {
		provisioned[u] = true
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for userID := range o.scanners {
		if !provisioned[userID] {
			logger.Info("Orchestrator: credentials revoked for %s, cancelling scanner", userID)
			o.stopLocked(userID)
		}
	}

	for userID := range provisioned {
		if _, running := o.scanners[userID]; running {
			continue
		}
		o.spawnLocked(ctx, userID)
	}
}

// spawnLocked starts a scanner for the user under its own cancellation
// scope. Caller holds o.mu.
func (o *Orchestrator) spawnLocked(ctx context.Context, userID string) {
	userCtx, cancel := context.WithCancel(ctx)
	o.scanners[userID] = cancel

	scanner := o.newScanner(userID)
	o.running[userID] = scanner

	logger.Info("Orchestrator: starting scanner for %s", userID)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		err := scanner.Run(userCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Orchestrator: scanner for %s stopped: %v", userID, err)
		}

		// Deprovisioned scanners retire themselves; drop the scope so a
		// re-provisioned user gets a fresh scanner, and fresh tokens, on
		// the next poll.
		o.mu.Lock()
		o.stopLocked(userID)
		o.mu.Unlock()
	}()
}

// stopLocked cancels a user's scanner scope and drops any cached
// background tokens for the user. Caller holds o.mu.
func (o *Orchestrator) stopLocked(userID string) {
	if cancel, ok := o.scanners[userID]; ok {
		cancel()
		delete(o.scanners, userID)
		delete(o.running, userID)
	}
	if inv, ok := o.tokens.(interface{ Invalidate(string) }); ok {
		inv.Invalidate(userID)
	}
}

// newScanner builds a scanner bound to the shared stream.
func (o *Orchestrator) newScanner(userID string) *Scanner {
	return NewScanner(
		ScannerConfig{UserID: userID, Interval: o.scanInterval},
		o.registry,
		o.store,
		o.placeholders,
		o.stream,
		o.tokens,
		o.metrics,
	)
}

// shutdown cancels every scanner and drains the worker pool.
func (o *Orchestrator) shutdown() {
	o.mu.Lock()
	for userID, cancel := range o.scanners {
		cancel()
		delete(o.scanners, userID)
		delete(o.running, userID)
	}
	o.mu.Unlock()

	o.stream.Close()
	o.wg.Wait()
}
