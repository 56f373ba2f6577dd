package tools

import (
	"context"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/Laisky/diagnostics-portal/internal/web/detectors/model"
)

// MenuRegistry is the read side of the detector registry.
type MenuRegistry interface {
	PeekList(id model.CategoryID) ([]model.MenuItem, bool)
	GetOrphanDetectors(id model.CategoryID) []string
}

// DetectorMenuResult is the tool payload.
type DetectorMenuResult struct {
	Category  model.CategoryID `json:"category"`
	Items     []model.MenuItem `json:"items"`
	Detectors []string         `json:"detectors"`
}

// DetectorMenuTool implements the detector_menu MCP tool.
type DetectorMenuTool struct {
	registry MenuRegistry
	logger   logSDK.Logger
}

// NewDetectorMenuTool constructs a DetectorMenuTool.
func NewDetectorMenuTool(registry MenuRegistry, logger logSDK.Logger) (*DetectorMenuTool, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	return &DetectorMenuTool{registry: registry, logger: logger}, nil
}

// Definition returns the MCP metadata describing the tool.
func (t *DetectorMenuTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"detector_menu",
		mcp.WithDescription("List the navigation menu items and detector ids registered under a category."),
		mcp.WithString(
			"category",
			mcp.Required(),
			mcp.Description("Category id, e.g. BestPractices or an id from the category feed."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// Handle returns the menu list and detector ids of the category.
func (t *DetectorMenuTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := model.ParseCategoryID(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	items, _ := t.registry.PeekList(id)
	result := DetectorMenuResult{
		Category:  id,
		Items:     items,
		Detectors: t.registry.GetOrphanDetectors(id),
	}
	t.logger.Debug("detector_menu",
		zap.String("category", id.String()),
		zap.Int("items", len(result.Items)),
		zap.Int("detectors", len(result.Detectors)))

	toolResult, err := mcp.NewToolResultJSON(result)
	if err != nil {
		t.logger.Error("encode detector menu", zap.Error(err))
		return mcp.NewToolResultError("failed to encode detector menu"), nil
	}

	return toolResult, nil
}
