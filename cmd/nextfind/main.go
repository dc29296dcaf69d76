// Command nextfind runs the Nextcloud vector sync pipeline and serves
// hybrid search over CLI and MCP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/halcyon-labs/nextfind/internal/adapters/driven/credentials/sqlite"
	"github.com/halcyon-labs/nextfind/internal/adapters/driven/embedding/hash"
	"github.com/halcyon-labs/nextfind/internal/adapters/driven/embedding/ollama"
	"github.com/halcyon-labs/nextfind/internal/adapters/driven/metrics/prom"
	"github.com/halcyon-labs/nextfind/internal/adapters/driven/sparse/bm25"
	"github.com/halcyon-labs/nextfind/internal/adapters/driven/token/oidc"
	"github.com/halcyon-labs/nextfind/internal/adapters/driven/vectorstore/qdrant"
	"github.com/halcyon-labs/nextfind/internal/adapters/driving/cli"
	"github.com/halcyon-labs/nextfind/internal/chunker"
	"github.com/halcyon-labs/nextfind/internal/config"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driving"
	"github.com/halcyon-labs/nextfind/internal/core/services"
	"github.com/halcyon-labs/nextfind/internal/logger"
	"github.com/halcyon-labs/nextfind/internal/search"
	"github.com/halcyon-labs/nextfind/internal/visualize"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "nextfind: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := os.Getenv("NEXTFIND_CONFIG")
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger.SetVerbose(cfg.Verbose)

	app, err := buildServices(ctx, cfgPath, cfg)
	if err != nil {
		return err
	}

	cli.SetServices(app)
	return cli.Execute(ctx)
}

// buildServices wires the adapters and core services from the loaded
// configuration.
func buildServices(ctx context.Context, cfgPath string, cfg config.Config) (*cli.Services, error) {
	embedder := newEmbedder(cfg.Embedding)

	store := qdrant.NewStore(qdrant.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
	})
	if err := store.EnsureCollection(ctx, embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("ensuring collection: %w", err)
	}

	sparse := bm25.NewEncoder(bm25.Config{})
	chunks := chunker.New(
		chunker.WithChunkSize(cfg.Sync.ChunkSize),
		chunker.WithOverlap(cfg.Sync.ChunkOverlap),
	)

	var metrics driven.Metrics = prom.Noop{}
	var promMetrics *prom.Metrics
	if cfg.Metrics.Enabled {
		promMetrics = prom.NewMetrics()
		metrics = promMetrics
	}

	// Document sources register here. Nextcloud source clients plug in
	// via driven.DocumentSource; none are bundled with the core.
	registry := services.NewSourceRegistry()

	placeholders := services.NewPlaceholderManager(store, embedder.Dimensions())

	// Hot-path fetches use the uncached provider so a revocation is
	// honoured immediately; background scanner listings go through the
	// cache.
	var tokens driven.TokenProvider
	var scanTokens driven.TokenProvider
	var creds driven.CredentialsStore
	if cfg.Auth.Mode == "oauth" {
		var err error
		creds, err = sqlite.NewStore(cfg.Auth.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening credentials store: %w", err)
		}
		provider := oidc.NewProvider(oidc.Config{
			TokenURL:     cfg.Auth.TokenURL,
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
		}, creds)
		tokens = provider
		scanTokens = oidc.NewCachedProvider(provider)
	}

	processor := services.NewProcessor(
		services.ProcessorConfig{},
		registry, store, placeholders, embedder, sparse, tokens, metrics, chunks,
	)

	orchestrator := services.NewOrchestrator(
		services.OrchestratorConfig{
			ScanInterval:   cfg.Sync.PollInterval.Duration,
			Workers:        cfg.Sync.Workers,
			StreamCapacity: cfg.Sync.StreamCapacity,
		},
		creds, scanTokens, registry, store, placeholders, processor, metrics,
	)

	semantic := search.NewSemantic(store, embedder)
	keyword := search.NewKeyword(store)
	fuzzy := search.NewFuzzy(store)
	hybrid, err := search.NewHybrid(semantic, keyword, fuzzy, search.Weights{
		Semantic: cfg.Search.SemanticWeight,
		Keyword:  cfg.Search.KeywordWeight,
		Fuzzy:    cfg.Search.FuzzyWeight,
	})
	if err != nil {
		return nil, fmt.Errorf("hybrid weights: %w", err)
	}
	bm25Hybrid := search.NewBM25Hybrid(store, embedder, sparse, driven.FusionMode(cfg.Search.Fusion))

	algorithms := map[string]driving.SearchAlgorithm{}
	for _, a := range []driving.SearchAlgorithm{semantic, keyword, fuzzy, hybrid, bm25Hybrid} {
		algorithms[a.Name()] = a
	}

	return &cli.Services{
		Algorithms:       algorithms,
		DefaultAlgorithm: cfg.Search.Algorithm,
		Verifier:         services.NewVerifier(registry),
		Status:           services.NewStatusService(store, true),
		Visualizer:       visualize.NewPCA(store),
		Embedder:         embedder,
		UserID:           cfg.Nextcloud.Username,
		Sync: &syncRunner{
			orchestrator: orchestrator,
			cfgPath:      cfgPath,
			oauth:        cfg.Auth.Mode == "oauth",
			userID:       cfg.Nextcloud.Username,
		},
		MetricsHandler: metricsHandler(promMetrics),
		MetricsAddr:    cfg.Metrics.Addr,
	}, nil
}

// syncRunner adapts the orchestrator to the serve command and keeps
// the config watcher alive for the lifetime of the pipeline.
type syncRunner struct {
	orchestrator *services.Orchestrator
	cfgPath      string
	oauth        bool
	userID       string
}

func (r *syncRunner) Run(ctx context.Context) error {
	// Edits to the config file nudge the scanners ahead of their
	// interval so changes take effect promptly.
	go func() {
		err := config.Watch(ctx, r.cfgPath, func(config.Config) {
			r.orchestrator.Wake()
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("config watcher stopped: %v", err)
		}
	}()

	if r.oauth {
		return r.orchestrator.Run(ctx)
	}
	return r.orchestrator.RunSingle(ctx, r.userID)
}

func newEmbedder(cfg config.Embedding) driven.EmbeddingService {
	if cfg.Provider == "hash" {
		return hash.NewEmbeddingService(cfg.Dimensions)
	}
	return ollama.NewEmbeddingService(ollama.Config{
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
	})
}

func metricsHandler(m *prom.Metrics) http.Handler {
	if m == nil {
		return nil
	}
	return m.Handler()
}
