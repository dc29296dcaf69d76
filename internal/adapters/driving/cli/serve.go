package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/halcyon-labs/nextfind/internal/adapters/driving/mcp"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync pipeline and the MCP server",
	Long: `Starts the background sync pipeline and the Model Context Protocol
server for AI assistant integration.

By default the MCP server communicates over stdio using JSON-RPC and
can be used with Claude Desktop and other MCP-compatible assistants.
Use --port to serve MCP over HTTP instead.

Examples:
  # Stdio mode (default)
  nextfind serve

  # HTTP mode
  nextfind serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port for MCP (0 = use stdio)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if services == nil {
		return errors.New("services not configured")
	}

	ports := &mcp.Ports{
		Algorithms:       services.Algorithms,
		DefaultAlgorithm: services.DefaultAlgorithm,
		Verifier:         services.Verifier,
		Status:           services.Status,
		Visualizer:       services.Visualizer,
		Embedder:         services.Embedder,
		UserID:           mcp.StaticUser(services.UserID),
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	if services.Sync != nil {
		g.Go(func() error {
			return services.Sync.Run(ctx)
		})
	}

	if services.MetricsHandler != nil {
		metricsServer := &http.Server{
			Addr:              services.MetricsAddr,
			Handler:           services.MetricsHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			<-ctx.Done()
			return metricsServer.Close()
		})
		g.Go(func() error {
			logger.Info("metrics listening on %s", services.MetricsAddr)
			err := metricsServer.ListenAndServe()
			if err == http.ErrServerClosed {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		if servePort > 0 {
			addr := fmt.Sprintf(":%d", servePort)
			fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(ctx, addr)
		}
		return server.Run(ctx)
	})

	return g.Wait()
}
