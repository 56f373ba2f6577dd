// Package controller exposes the detector registry over HTTP.
package controller

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/diagnostics-portal/internal/web/detectors/model"
	"github.com/Laisky/diagnostics-portal/internal/web/detectors/service"
)

// Controller serves the detector category routes.
type Controller struct {
	registry *service.Registry
}

// New returns a controller over registry.
func New(registry *service.Registry) (*Controller, error) {
	if registry == nil {
		return nil, errors.New("registry is nil")
	}

	return &Controller{registry: registry}, nil
}

// Register mounts the routes under /api/detectors.
func (c *Controller) Register(r gin.IRouter) {
	grp := r.Group("/api/detectors")
	grp.GET("/categories", c.listCategories)
	grp.GET("/categories/:category/detectors", c.getDetectors)
	grp.POST("/categories/:category/detectors", c.addDetector)
	grp.GET("/menus/:category", c.getMenu)
	grp.PUT("/menus/:category", c.replaceMenu)
	grp.POST("/menus/:category/items", c.pushMenuItem)
}

type addDetectorRequest struct {
	DetectorID string `json:"detector_id" binding:"required"`
}

type menuResponse struct {
	Category model.CategoryID `json:"category"`
	NotEmpty bool             `json:"not_empty"`
	Items    []model.MenuItem `json:"items"`
}

func (c *Controller) listCategories(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"categories": c.registry.Categories()})
}

func (c *Controller) getDetectors(ctx *gin.Context) {
	id, ok := parseCategory(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"category":  id,
		"detectors": c.registry.GetOrphanDetectors(id),
	})
}

func (c *Controller) addDetector(ctx *gin.Context) {
	id, ok := parseCategory(ctx)
	if !ok {
		return
	}

	var req addDetectorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortBadRequest(ctx, errors.Wrap(err, "bind detector"))
		return
	}

	c.registry.AddDetectorToCategory(req.DetectorID, id)
	gmw.GetLogger(ctx).Debug("add detector",
		zap.String("category", id.String()),
		zap.String("detector", req.DetectorID))

	ctx.JSON(http.StatusOK, gin.H{
		"category":  id,
		"detectors": c.registry.GetOrphanDetectors(id),
	})
}

func (c *Controller) getMenu(ctx *gin.Context) {
	id, ok := parseCategory(ctx)
	if !ok {
		return
	}

	items, _ := c.registry.PeekList(id)
	ctx.JSON(http.StatusOK, menuResponse{
		Category: id,
		NotEmpty: len(items) > 0,
		Items:    items,
	})
}

func (c *Controller) replaceMenu(ctx *gin.Context) {
	id, ok := parseCategory(ctx)
	if !ok {
		return
	}

	var items []model.MenuItem
	if err := ctx.ShouldBindJSON(&items); err != nil {
		abortBadRequest(ctx, errors.Wrap(err, "bind menu items"))
		return
	}

	c.registry.AddListToCategory(items, id)
	c.writeMenu(ctx, id)
}

func (c *Controller) pushMenuItem(ctx *gin.Context) {
	id, ok := parseCategory(ctx)
	if !ok {
		return
	}

	var item model.MenuItem
	if err := ctx.ShouldBindJSON(&item); err != nil {
		abortBadRequest(ctx, errors.Wrap(err, "bind menu item"))
		return
	}

	c.registry.PushDetectorToCategory(item, id)
	c.writeMenu(ctx, id)
}

func (c *Controller) writeMenu(ctx *gin.Context, id model.CategoryID) {
	ctx.JSON(http.StatusOK, menuResponse{
		Category: id,
		NotEmpty: c.registry.ListNotEmpty(id),
		Items:    c.registry.GetList(id),
	})
}

func parseCategory(ctx *gin.Context) (model.CategoryID, bool) {
	id, err := model.ParseCategoryID(ctx.Param("category"))
	if err != nil {
		abortBadRequest(ctx, err)
		return "", false
	}

	return id, true
}

func abortBadRequest(ctx *gin.Context, err error) {
	gmw.GetLogger(ctx).Debug("bad request", zap.Error(err))
	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
