package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	mcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	wsCtrl "github.com/Laisky/diagnostics-portal/internal/web/websearch/controller"
	"github.com/Laisky/diagnostics-portal/internal/web/websearch/dto"
)

type stubRunner struct {
	view dto.View
	err  error
	reqs []wsCtrl.RunRequest
}

func (s *stubRunner) Run(_ context.Context, req wsCtrl.RunRequest) (dto.View, string, error) {
	s.reqs = append(s.reqs, req)
	return s.view, "searchTerm=" + req.SearchTerm, s.err
}

func searchRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func TestNewWebSearchToolRequiresDeps(t *testing.T) {
	_, err := NewWebSearchTool(nil, glog.Shared)
	require.Error(t, err)
	_, err = NewWebSearchTool(&stubRunner{}, nil)
	require.Error(t, err)
}

func TestWebSearchHandleMissingQuery(t *testing.T) {
	tool, err := NewWebSearchTool(&stubRunner{}, glog.Shared)
	require.NoError(t, err)

	result, err := tool.Handle(context.Background(), searchRequest(map[string]any{}))
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestWebSearchHandleShortQuery(t *testing.T) {
	runner := &stubRunner{}
	tool, err := NewWebSearchTool(runner, glog.Shared)
	require.NoError(t, err)

	result, err := tool.Handle(context.Background(), searchRequest(map[string]any{"query": " a "}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Empty(t, runner.reqs)

	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	require.Equal(t, "query must have at least two characters", textContent.Text)
}

func TestWebSearchHandleRunnerError(t *testing.T) {
	tool, err := NewWebSearchTool(&stubRunner{err: errors.New("backend down")}, glog.Shared)
	require.NoError(t, err)

	result, err := tool.Handle(context.Background(), searchRequest(map[string]any{"query": "disk"}))
	require.NoError(t, err)
	require.True(t, result.IsError)

	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	require.Contains(t, textContent.Text, "search failed: backend down")
}

func TestWebSearchHandleSuccess(t *testing.T) {
	runner := &stubRunner{view: dto.View{
		SearchID: "sid",
		State:    dto.StateDisplayed,
		Results: []dto.SearchResult{
			{Title: "Disk", Description: "full", Link: "https://a.com/disk"},
		},
	}}
	tool, err := NewWebSearchTool(runner, glog.Shared)
	require.NoError(t, err)

	result, err := tool.Handle(context.Background(), searchRequest(map[string]any{
		"query":       " disk full ",
		"resource_id": "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Web/sites/app",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	require.Len(t, runner.reqs, 1)
	require.Equal(t, "disk full", runner.reqs[0].SearchTerm)
	require.True(t, runner.reqs[0].Embedded)
	require.Contains(t, runner.reqs[0].ResourceID, "Microsoft.Web/sites")

	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var payload WebSearchResult
	require.NoError(t, json.Unmarshal([]byte(textContent.Text), &payload))
	require.Equal(t, "disk full", payload.Query)
	require.Equal(t, "sid", payload.SearchID)
	require.Equal(t, dto.StateDisplayed, payload.State)
	require.Len(t, payload.Results, 1)
	require.Equal(t, "https://a.com/disk", payload.Results[0].Link)
}
