package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/diagnostics-portal/internal/web/websearch/dto"
	"github.com/Laisky/diagnostics-portal/library/search"
)

type testSearcher struct {
	mu      sync.Mutex
	queries []search.Query
	result  *search.ResultSet
}

func (s *testSearcher) Search(ctx context.Context, query search.Query) (*search.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return s.result, nil
}

type testTelemetry struct {
	mu    sync.Mutex
	names []string
	props []map[string]string
}

func (s *testTelemetry) LogEvent(ctx context.Context, name string, props map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	s.props = append(s.props, props)
}

func newTestRouter(t *testing.T, searcher *testSearcher, telemetry *testTelemetry) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	settings := DefaultSettings()
	settings.Debounce = 0
	settings.RetryDelay = 0
	settings.PreferredSites = map[string][]string{"14748": {"learn.microsoft.com"}}

	ctrl, err := New(searcher, nil, telemetry, settings)
	require.NoError(t, err)

	router := gin.New()
	ctrl.Register(router)
	return router
}

// TestSearchRoute verifies a standalone search merges results and rewrites the location.
func TestSearchRoute(t *testing.T) {
	searcher := &testSearcher{result: search.NewResultSet([]search.SearchResultItem{
		{URL: "https://learn.microsoft.com/azure/app-service/overview", Name: "App Service", Snippet: "overview"},
	})}
	telemetry := &testTelemetry{}
	router := newTestRouter(t, searcher, telemetry)

	req := httptest.NewRequest(http.MethodGet,
		"/api/websearch?searchTerm=disk&embedded=false&resource_id=/subscriptions/s/resourceGroups/g/providers/Microsoft.Web/sites/app", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, dto.StateDisplayed, resp.View.State)
	require.Len(t, resp.View.Results, 1)
	require.Equal(t, []string{"https://learn.microsoft.c..."}, resp.LinkTexts)
	require.Empty(t, resp.AnchorText)
	require.Contains(t, resp.Location, "searchTerm=disk")
	require.NotEmpty(t, resp.View.SearchID)

	require.Len(t, searcher.queries, 2)
	require.Equal(t, []string{dto.EventWebQueryResults}, telemetry.names)
}

// TestSearchRouteShortTerm verifies short terms return the idle view without searching.
func TestSearchRouteShortTerm(t *testing.T) {
	searcher := &testSearcher{}
	router := newTestRouter(t, searcher, &testTelemetry{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/websearch?searchTerm=d", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, dto.StateIdle, resp.View.State)
	require.Empty(t, searcher.queries)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/websearch?searchTerm=disk&embedded=maybe", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestClickRoute verifies clicks are forwarded to telemetry with the given search id.
func TestClickRoute(t *testing.T) {
	telemetry := &testTelemetry{}
	router := newTestRouter(t, &testSearcher{}, telemetry)

	body := `{"searchId":"sid","article":{"title":"t","description":"d","link":"https://a.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/websearch/click", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.Equal(t, []string{dto.EventWebQueryResultClicked}, telemetry.names)
	require.Equal(t, "sid", telemetry.props[0]["searchId"])

	req = httptest.NewRequest(http.MethodPost, "/api/websearch/click", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsFromConfig(t *testing.T) {
	gconfig.Shared.Set("settings.websearch.preferred_sites", map[string]any{
		"14748": []string{"learn.microsoft.com"},
	})
	gconfig.Shared.Set("settings.websearch.retry_delay_ms", 250)
	t.Cleanup(func() {
		gconfig.Shared.Set("settings.websearch.preferred_sites", nil)
		gconfig.Shared.Set("settings.websearch.retry_delay_ms", nil)
	})

	s := SettingsFromConfig()
	require.Equal(t, []string{"learn.microsoft.com"}, s.PreferredSites["14748"])
	require.Equal(t, 250*time.Millisecond, s.RetryDelay)
	require.Equal(t, search.DefaultMaxRetries, s.MaxRetries)
	require.Equal(t, 500*time.Millisecond, s.Debounce)
}
