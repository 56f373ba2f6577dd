package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	mcp "github.com/mark3labs/mcp-go/mcp"

	wsCtrl "github.com/Laisky/diagnostics-portal/internal/web/websearch/controller"
	"github.com/Laisky/diagnostics-portal/internal/web/websearch/dto"
)

// SearchRunner runs one web search through the full merge and rank pipeline.
type SearchRunner interface {
	Run(ctx context.Context, req wsCtrl.RunRequest) (dto.View, string, error)
}

// WebSearchResult is the tool payload.
type WebSearchResult struct {
	Query    string             `json:"query"`
	SearchID string             `json:"search_id"`
	State    dto.State          `json:"state"`
	Results  []dto.SearchResult `json:"results"`
}

// WebSearchTool implements the web_search MCP tool.
type WebSearchTool struct {
	runner SearchRunner
	logger logSDK.Logger
}

// NewWebSearchTool constructs a WebSearchTool with the provided dependencies.
func NewWebSearchTool(runner SearchRunner, logger logSDK.Logger) (*WebSearchTool, error) {
	if runner == nil {
		return nil, errors.New("search runner is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	return &WebSearchTool{
		runner: runner,
		logger: logger,
	}, nil
}

// Definition returns the MCP metadata describing the tool.
func (t *WebSearchTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"web_search",
		mcp.WithDescription("Search the web for troubleshooting articles. Results are deduplicated by URL and ranked so different sources come first."),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("Plain text search query, at least two characters."),
		),
		mcp.WithString(
			"resource_id",
			mcp.Description("Optional ARM resource id, used to prefer the product's documentation sites."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Handle executes the web_search tool logic using the configured dependencies.
func (t *WebSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return mcp.NewToolResultError("query must have at least two characters"), nil
	}

	start := time.Now()
	t.logger.Debug("web_search started", zap.Int("query_len", len(query)))

	view, _, err := t.runner.Run(ctx, wsCtrl.RunRequest{
		SearchTerm: query,
		ResourceID: strings.TrimSpace(req.GetString("resource_id", "")),
		Embedded:   true,
	})
	if err != nil {
		t.logger.Error("web_search failed", zap.Error(err), zap.Int("query_len", len(query)))
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	t.logger.Debug("web_search completed",
		zap.Int("query_len", len(query)),
		zap.Int("results_count", len(view.Results)),
		zap.Duration("duration", time.Since(start)),
	)

	toolResult, err := mcp.NewToolResultJSON(WebSearchResult{
		Query:    query,
		SearchID: view.SearchID,
		State:    view.State,
		Results:  view.Results,
	})
	if err != nil {
		t.logger.Error("encode search result", zap.Error(err))
		return mcp.NewToolResultError("failed to encode search result"), nil
	}

	return toolResult, nil
}
