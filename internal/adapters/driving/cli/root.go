// Package cli provides the cobra command tree for nextfind.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driving"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

// SyncRunner is the long-running sync pipeline started by serve.
type SyncRunner interface {
	Run(ctx context.Context) error
}

// Services aggregates the constructed application services the
// commands call into. The entry point builds and injects it before
// Execute.
type Services struct {
	// Algorithms maps algorithm name to implementation.
	Algorithms map[string]driving.SearchAlgorithm

	// DefaultAlgorithm names the algorithm used when none is requested.
	DefaultAlgorithm string

	// Verifier filters results by source-side accessibility. Optional.
	Verifier driving.Verifier

	// Status answers sync status queries. Optional.
	Status driving.StatusReporter

	// Visualizer projects embeddings to 3D. Optional.
	Visualizer driving.Visualizer

	// Embedder embeds query text for visualization.
	Embedder driven.EmbeddingService

	// UserID is the single-user identity used by CLI commands.
	UserID string

	// Sync is the background pipeline run by serve. Optional; nil
	// serves search from the existing index only.
	Sync SyncRunner

	// MetricsHandler serves the Prometheus scrape endpoint. Optional.
	MetricsHandler http.Handler

	// MetricsAddr is the listen address for MetricsHandler.
	MetricsAddr string
}

var services *Services

// SetServices injects the constructed services. Must be called before
// Execute.
func SetServices(s *Services) {
	services = s
}

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "nextfind",
	Short: "Hybrid search and vector sync for Nextcloud documents",
	Long: `nextfind keeps a vector index in sync with Nextcloud document
sources and serves hybrid semantic/keyword search over it, both as a
command line tool and as an MCP server for AI assistants.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
