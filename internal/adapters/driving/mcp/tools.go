package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query     string  `json:"query" jsonschema:"the search query to find documents"`
	Algorithm string  `json:"algorithm,omitempty" jsonschema:"search algorithm: semantic, keyword, fuzzy, hybrid or bm25_hybrid (default hybrid)"`
	DocType   string  `json:"doc_type,omitempty" jsonschema:"restrict to one document type: note, file, calendar, deck_card, contact or feed_item"`
	Limit     int     `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"minimum similarity score for semantic results"`
	Verify    bool    `json:"verify,omitempty" jsonschema:"drop results no longer accessible at the source"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	DocType    string  `json:"doc_type"`
	Title      string  `json:"title"`
	Excerpt    string  `json:"excerpt"`
	Score      float64 `json:"score"`
	PageNumber int     `json:"page_number,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
}

// StatusInput is the input schema for the sync_status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the sync_status tool.
type StatusOutput struct {
	State        string `json:"state"`
	IndexedCount int    `json:"indexed_count"`
	PendingCount int    `json:"pending_count"`
}

// VisualizeInput is the input schema for the visualize_embeddings tool.
type VisualizeInput struct {
	Query string `json:"query" jsonschema:"the search query whose result neighbourhood to project"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to project (default 10)"`
}

// VisualizeOutput is the output schema for the visualize_embeddings tool.
type VisualizeOutput struct {
	Points            []VisualizePoint `json:"points"`
	Query             [3]float64       `json:"query"`
	ExplainedVariance [3]float64       `json:"explained_variance"`
}

// VisualizePoint is one projected result.
type VisualizePoint struct {
	DocumentID  string     `json:"document_id"`
	Title       string     `json:"title"`
	Score       float64    `json:"score"`
	Coordinates [3]float64 `json:"coordinates"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search across all indexed Nextcloud documents",
	}, s.handleSearch)

	if s.ports.Status != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sync_status",
			Description: "Report the vector sync status for the requesting user",
		}, s.handleStatus)
	}

	if s.ports.Visualizer != nil && s.ports.Embedder != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "visualize_embeddings",
			Description: "Project a query and its semantic results into 3D via PCA",
		}, s.handleVisualize)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	userID, err := s.ports.UserID(ctx)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	results, err := s.search(ctx, userID, input)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	if input.Verify && s.ports.Verifier != nil {
		results, err = s.ports.Verifier.Verify(ctx, userID, results)
		if err != nil {
			return nil, SearchOutput{}, err
		}
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			DocumentID: results[i].ID,
			DocType:    string(results[i].DocType),
			Title:      results[i].Title,
			Excerpt:    results[i].Excerpt,
			Score:      results[i].Score,
			PageNumber: results[i].PageNumber,
			ChunkIndex: results[i].ChunkIndex,
		}
	}

	return nil, output, nil
}

// handleStatus handles the sync_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	userID, err := s.ports.UserID(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	status, err := s.ports.Status.Status(ctx, userID)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	return nil, StatusOutput{
		State:        string(status.State),
		IndexedCount: status.IndexedCount,
		PendingCount: status.PendingCount,
	}, nil
}

// handleVisualize handles the visualize_embeddings tool invocation.
// It always uses the semantic algorithm: the projection only makes
// sense for points ranked in embedding space.
func (s *Server) handleVisualize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input VisualizeInput,
) (*mcp.CallToolResult, VisualizeOutput, error) {
	userID, err := s.ports.UserID(ctx)
	if err != nil {
		return nil, VisualizeOutput{}, err
	}

	results, err := s.search(ctx, userID, SearchInput{
		Query:     input.Query,
		Algorithm: "semantic",
		Limit:     input.Limit,
	})
	if err != nil {
		return nil, VisualizeOutput{}, err
	}

	queryVec, err := s.ports.Embedder.Embed(ctx, input.Query)
	if err != nil {
		return nil, VisualizeOutput{}, fmt.Errorf("embed query: %w", err)
	}

	viz, err := s.ports.Visualizer.Project(ctx, queryVec, results)
	if err != nil {
		return nil, VisualizeOutput{}, err
	}

	output := VisualizeOutput{
		Query:             viz.QueryCoords,
		ExplainedVariance: viz.ExplainedVariance,
		Points:            make([]VisualizePoint, len(viz.Coordinates)),
	}
	for i, c := range viz.Coordinates {
		output.Points[i] = VisualizePoint{
			DocumentID:  results[i].ID,
			Title:       results[i].Title,
			Score:       results[i].Score,
			Coordinates: c,
		}
	}

	return nil, output, nil
}

// search resolves the algorithm and runs it.
func (s *Server) search(ctx context.Context, userID string, input SearchInput) ([]domain.SearchResult, error) {
	name := input.Algorithm
	if name == "" {
		name = s.ports.DefaultAlgorithm
	}
	algo, ok := s.ports.Algorithms[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown algorithm %q", domain.ErrInvalidInput, name)
	}

	return algo.Search(ctx, input.Query, userID, domain.SearchOptions{
		Limit:          input.Limit,
		DocType:        domain.DocType(input.DocType),
		ScoreThreshold: input.Threshold,
	})
}
