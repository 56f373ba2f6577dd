package tools

import (
	"context"
	"encoding/json"
	"testing"

	glog "github.com/Laisky/go-utils/v6/log"
	mcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/diagnostics-portal/internal/web/detectors/model"
	"github.com/Laisky/diagnostics-portal/internal/web/detectors/service"
)

func TestNewDetectorMenuToolRequiresDeps(t *testing.T) {
	_, err := NewDetectorMenuTool(nil, glog.Shared)
	require.Error(t, err)
	_, err = NewDetectorMenuTool(service.NewRegistry(), nil)
	require.Error(t, err)
}

func TestDetectorMenuHandleBlankCategory(t *testing.T) {
	tool, err := NewDetectorMenuTool(service.NewRegistry(), glog.Shared)
	require.NoError(t, err)

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: map[string]any{"category": "  "}},
	})
	require.NoError(t, err)
	require.True(t, result.IsError)
}

func TestDetectorMenuHandleSuccess(t *testing.T) {
	registry := service.NewRegistry()
	registry.AddDetectorToCategory("appcrashes", model.CategoryBestPractices)
	registry.PushDetectorToCategory(model.MenuItem{Label: "App Crashes", DetectorID: "appcrashes"}, model.CategoryBestPractices)

	tool, err := NewDetectorMenuTool(registry, glog.Shared)
	require.NoError(t, err)

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: map[string]any{"category": string(model.CategoryBestPractices)}},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var payload DetectorMenuResult
	require.NoError(t, json.Unmarshal([]byte(textContent.Text), &payload))
	require.Equal(t, model.CategoryBestPractices, payload.Category)
	require.Equal(t, []string{"appcrashes"}, payload.Detectors)
	require.Len(t, payload.Items, 1)
	require.Equal(t, "App Crashes", payload.Items[0].Label)
}

func TestDetectorMenuHandleUnknownCategoryLeavesRegistry(t *testing.T) {
	registry := service.NewRegistry()
	tool, err := NewDetectorMenuTool(registry, glog.Shared)
	require.NoError(t, err)

	result, err := tool.Handle(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: map[string]any{"category": "not-seeded"}},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	_, exists := registry.PeekList("not-seeded")
	require.False(t, exists)
}
