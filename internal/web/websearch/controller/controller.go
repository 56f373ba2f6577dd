// Package controller exposes the web search component over HTTP.
package controller

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/diagnostics-portal/internal/web/websearch/dao"
	"github.com/Laisky/diagnostics-portal/internal/web/websearch/dto"
	"github.com/Laisky/diagnostics-portal/internal/web/websearch/service"
)

const searchTermParam = "searchTerm"

// Controller serves the web search routes.
// Every request drives its own component, torn down when the request ends.
type Controller struct {
	searcher   service.ContentSearcher
	deepSearch service.DeepSearchChecker
	telemetry  service.TelemetrySink
	settings   Settings
}

// New returns a controller. deepSearch and telemetry may be nil.
func New(searcher service.ContentSearcher,
	deepSearch service.DeepSearchChecker,
	telemetry service.TelemetrySink,
	settings Settings,
) (*Controller, error) {
	if searcher == nil {
		return nil, errors.New("content searcher is nil")
	}

	return &Controller{
		searcher:   searcher,
		deepSearch: deepSearch,
		telemetry:  telemetry,
		settings:   settings,
	}, nil
}

// Register mounts the routes under /api/websearch.
func (c *Controller) Register(r gin.IRouter) {
	grp := r.Group("/api/websearch")
	grp.GET("", c.search)
	grp.POST("/click", c.click)
}

type searchResponse struct {
	View       dto.View `json:"view"`
	Location   string   `json:"location"`
	AnchorText string   `json:"anchorText"`
	LinkTexts  []string `json:"linkTexts"`
}

type clickRequest struct {
	SearchID string           `json:"searchId" binding:"required"`
	Article  dto.SearchResult `json:"article"`
}

// RunRequest describes one search driven outside a browser session.
type RunRequest struct {
	SearchTerm string
	SearchID   string
	ResourceID string
	Embedded   bool
	// Query is the caller's current query string.
	Query url.Values
}

// Run drives a fresh component through its init lifecycle and tears it down.
// It returns the final view and the merged query string.
func (c *Controller) Run(ctx context.Context, req RunRequest) (dto.View, string, error) {
	logger := gmw.GetLogger(ctx).Named("websearch")

	query := url.Values{}
	for key, vals := range req.Query {
		query[key] = append([]string{}, vals...)
	}
	if req.SearchTerm != "" {
		query.Set(searchTermParam, req.SearchTerm)
	}
	nav := service.NewQueryNavigator(query)

	deps := service.Dependencies{
		Searcher:   c.searcher,
		DeepSearch: c.deepSearch,
		Telemetry:  c.telemetry,
		Navigator:  nav,
	}
	if req.ResourceID != "" {
		deps.Identity = dao.NewResourceResolver(req.ResourceID, c.settings.PesIDs)
	}

	component, err := service.NewComponent(deps, c.componentOptions(logger,
		service.WithSearchID(req.SearchID),
		service.WithEmbedded(req.Embedded),
	)...)
	if err != nil {
		return dto.View{}, "", errors.Wrap(err, "new websearch component")
	}
	defer component.Close()

	view := component.Init(ctx)
	return view, nav.Encode(), nil
}

func (c *Controller) search(ctx *gin.Context) {
	query := ctx.Request.URL.Query()

	embedded := true
	if raw := query.Get("embedded"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid embedded flag"})
			return
		}
		embedded = v
	}

	view, location, err := c.Run(ctx.Request.Context(), RunRequest{
		SearchID:   query.Get("searchId"),
		ResourceID: query.Get("resource_id"),
		Embedded:   embedded,
		Query:      query,
	})
	if err != nil {
		gmw.GetLogger(ctx).Error("run websearch", zap.Error(err))
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	linkTexts := make([]string, 0, len(view.Results))
	for _, result := range view.Results {
		linkTexts = append(linkTexts, service.LinkText(result.Link))
	}

	// the toggle only exists when some articles are collapsed
	anchorText := ""
	if len(view.Results) > view.NumArticlesExpanded {
		anchorText = service.ViewOrHideAnchorText(view.ViewRemainingArticles, len(view.Results), view.NumArticlesExpanded)
	}

	ctx.JSON(http.StatusOK, searchResponse{
		View:       view,
		Location:   "?" + location,
		AnchorText: anchorText,
		LinkTexts:  linkTexts,
	})
}

func (c *Controller) click(ctx *gin.Context) {
	logger := gmw.GetLogger(ctx).Named("websearch")

	var req clickRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errors.Wrap(err, "bind click").Error()})
		return
	}

	component, err := service.NewComponent(service.Dependencies{
		Searcher:  c.searcher,
		Telemetry: c.telemetry,
	}, c.componentOptions(logger, service.WithSearchID(req.SearchID))...)
	if err != nil {
		logger.Error("new websearch component", zap.Error(err))
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer component.Close()

	component.SelectResult(ctx.Request.Context(), req.Article)
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) componentOptions(logger logSDK.Logger, extra ...service.Option) []service.Option {
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithPublic(c.settings.IsPublic),
		service.WithPreferredSites(c.settings.PreferredSites),
		service.WithDebounce(c.settings.Debounce),
		service.WithRetry(c.settings.MaxRetries, c.settings.RetryDelay),
	}

	return append(opts, extra...)
}
