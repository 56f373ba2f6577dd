// Package bing queries the Bing Web Search v7 API.
package bing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/diagnostics-portal/library/log"
	"github.com/Laisky/diagnostics-portal/library/search"
)

const (
	defaultEndpoint    = "https://api.bing.microsoft.com/v7.0/search"
	httpRequestTimeout = 10 * time.Second
	// logBodyLimit caps the number of response bytes logged for debugging.
	logBodyLimit   = 4096
	bingEngineName = "bing"
	maxCount       = 50
)

// Option configures the SearchEngine instance.
type Option func(*SearchEngine)

// WithEndpoint overrides the Bing endpoint, primarily for testing.
func WithEndpoint(endpoint string) Option {
	return func(se *SearchEngine) {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			se.endpoint = trimmed
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(se *SearchEngine) {
		if client != nil {
			se.client = client
		}
	}
}

// WithLogger overrides the default logger used when no contextual logger is present.
func WithLogger(logger logSDK.Logger) Option {
	return func(se *SearchEngine) {
		if logger != nil {
			se.logger = logger
		}
	}
}

// SearchEngine is a Bing Web Search client.
type SearchEngine struct {
	apikey   string
	endpoint string
	client   *http.Client
	logger   logSDK.Logger
}

// NewSearchEngine is a constructor for SearchEngine.
func NewSearchEngine(apikey string, opts ...Option) *SearchEngine {
	se := &SearchEngine{
		apikey:   strings.TrimSpace(apikey),
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: httpRequestTimeout},
		logger:   log.Logger.Named("bing_search"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(se)
		}
	}

	return se
}

// Name returns the identifier used by the manager to distinguish the engine.
func (se *SearchEngine) Name() string {
	return bingEngineName
}

// bingResponse is the subset of the Bing Search API response we consume.
type bingResponse struct {
	WebPages *struct {
		WebSearchURL          string        `json:"webSearchUrl"`
		TotalEstimatedMatches int           `json:"totalEstimatedMatches"`
		Value                 []bingWebPage `json:"value"`
	} `json:"webPages"`
}

type bingWebPage struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	URL             string    `json:"url"`
	DisplayURL      string    `json:"displayUrl"`
	Snippet         string    `json:"snippet"`
	DateLastCrawled time.Time `json:"dateLastCrawled"`
}

// Search performs a web search and returns the web pages as search items.
func (se *SearchEngine) Search(ctx context.Context, query search.Query) ([]search.SearchResultItem, error) {
	if se.apikey == "" {
		return nil, errors.New("bing api key is not configured")
	}

	composed := query.Compose()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, se.endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request to `%s`", se.endpoint)
	}

	params := req.URL.Query()
	params.Set("q", composed)
	params.Set("responseFilter", "Webpages")
	if query.MaxResults > 0 {
		count := query.MaxResults
		if count > maxCount {
			count = maxCount
		}
		params.Set("count", strconv.Itoa(count))
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Ocp-Apim-Subscription-Key", se.apikey)

	logger := se.logger
	if ctxLogger := gmw.GetLogger(ctx); ctxLogger != nil {
		logger = ctxLogger.Named("bing_search")
	}
	logger.Debug("outgoing http request",
		zap.String("method", req.Method),
		zap.String("url", se.endpoint),
		zap.String("query", composed),
	)

	startAt := time.Now()
	resp, err := se.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	truncatedBody, truncated := truncateForLog(body, logBodyLimit)
	logger.Debug("incoming http response",
		zap.Int("status", resp.StatusCode),
		zap.String("body", truncatedBody),
		zap.Bool("body_truncated", truncated),
		zap.Duration("cost", time.Since(startAt)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("bing search returned status %d: %s", resp.StatusCode, truncatedBody)
	}

	var br bingResponse
	if err = json.Unmarshal(body, &br); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal JSON response")
	}
	if br.WebPages == nil {
		return nil, nil
	}

	items := make([]search.SearchResultItem, 0, len(br.WebPages.Value))
	for _, page := range br.WebPages.Value {
		if strings.TrimSpace(page.URL) == "" {
			continue
		}
		items = append(items, search.SearchResultItem{
			URL:     page.URL,
			Name:    page.Name,
			Snippet: page.Snippet,
		})
	}

	return items, nil
}

func truncateForLog(body []byte, limit int) (string, bool) {
	if len(body) <= limit {
		return string(body), false
	}
	return string(body[:limit]), true
}
