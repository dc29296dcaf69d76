package mcp

import (
	"context"
	"errors"

	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driving"
)

// Validation errors for required ports.
var (
	ErrMissingAlgorithms   = errors.New("mcp: at least one search algorithm is required")
	ErrMissingUserResolver = errors.New("mcp: a user resolver is required")
)

// Ports aggregates everything the MCP server calls into. This provides
// a single injection point for dependency injection.
type Ports struct {
	// Algorithms maps algorithm name to implementation. The first
	// registered DefaultAlgorithm is used when a request names none.
	Algorithms map[string]driving.SearchAlgorithm

	// DefaultAlgorithm is the algorithm used when the request does not
	// name one.
	DefaultAlgorithm string

	// Verifier filters results by current source-side accessibility.
	// Optional; nil skips verification.
	Verifier driving.Verifier

	// Status answers sync status queries. Optional.
	Status driving.StatusReporter

	// Visualizer projects embeddings to 3D. Optional; nil disables the
	// visualization tool.
	Visualizer driving.Visualizer

	// Embedder embeds the query text for visualization.
	Embedder driven.EmbeddingService

	// UserID resolves the requesting user from the call context. In
	// single-user mode this returns a constant.
	UserID func(ctx context.Context) (string, error)
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if len(p.Algorithms) == 0 {
		return ErrMissingAlgorithms
	}
	if p.UserID == nil {
		return ErrMissingUserResolver
	}
	return nil
}

// StaticUser returns a resolver that always yields the given user.
// Used in single-user (basic auth) deployments.
func StaticUser(userID string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		return userID, nil
	}
}
