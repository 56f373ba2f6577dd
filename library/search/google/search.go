// Package google wraps the Google Programmable Search (Custom Search JSON) API.
package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	appLog "github.com/Laisky/diagnostics-portal/library/log"
)

// SearchEngine provides access to the Google Programmable Search API.
type SearchEngine struct {
	apiKey   string
	cx       string
	endpoint string
	client   *http.Client
	logger   logSDK.Logger
}

const (
	httpRequestTimeout = 10 * time.Second
	// logBodyLimit caps the number of response bytes logged for debugging.
	logBodyLimit   = 4096
	searchEndpoint = "https://www.googleapis.com/customsearch/v1"
	// maxNum is the largest page size the Custom Search API accepts.
	maxNum = 10
)

// Option configures the SearchEngine instance.
type Option func(*SearchEngine)

// WithEndpoint overrides the Custom Search endpoint, primarily for testing.
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

// NewSearchEngine instantiates a Programmable Search client with the given credentials.
func NewSearchEngine(apiKey, cx string, opts ...Option) *SearchEngine {
	se := &SearchEngine{
		apiKey:   strings.TrimSpace(apiKey),
		cx:       strings.TrimSpace(cx),
		endpoint: searchEndpoint,
		client:   &http.Client{Timeout: httpRequestTimeout},
		logger:   appLog.Logger.Named("google_search"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(se)
		}
	}

	return se
}

// CustomSearchResponse models the subset of the Custom Search API payload we consume.
type CustomSearchResponse struct {
	Kind              string             `json:"kind"`
	SearchInformation *SearchInformation `json:"searchInformation,omitempty"`
	Items             []SearchResultItem `json:"items"`
}

// SearchInformation provides aggregate stats about a query.
type SearchInformation struct {
	SearchTime   float64 `json:"searchTime"`
	TotalResults string  `json:"totalResults"`
}

// SearchResultItem represents a single search result item.
type SearchResultItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	DisplayLink string `json:"displayLink"`
	Snippet     string `json:"snippet"`
}

// Search executes a Google Programmable Search query and returns the parsed response.
// num is clamped to the API limit of 10; zero leaves the API default.
func (se *SearchEngine) Search(ctx context.Context, query string, num int) (*CustomSearchResponse, error) {
	if strings.TrimSpace(se.apiKey) == "" {
		return nil, errors.New("google api key is not configured")
	}
	if strings.TrimSpace(se.cx) == "" {
		return nil, errors.New("google search engine id (cx) is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, se.endpoint, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request to `%s`", se.endpoint)
	}

	params := req.URL.Query()
	params.Set("key", se.apiKey)
	params.Set("cx", se.cx)
	params.Set("q", query)
	if num > 0 {
		if num > maxNum {
			num = maxNum
		}
		params.Set("num", strconv.Itoa(num))
	}
	req.URL.RawQuery = params.Encode()

	logger := se.logger
	if logger == nil {
		logger = appLog.Logger.Named("google_search")
	}

	logger.Debug("outgoing http request",
		zap.String("method", req.Method),
		zap.String("endpoint", se.endpoint),
		zap.String("query", query),
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
		zap.String("method", req.Method),
		zap.Int("status", resp.StatusCode),
		zap.String("body", truncatedBody),
		zap.Bool("body_truncated", truncated),
		zap.Duration("cost", time.Since(startAt)),
		zap.String("query", query),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("google search returned status %d: %s", resp.StatusCode, truncatedBody)
	}

	result := new(CustomSearchResponse)
	if err := json.Unmarshal(body, result); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal JSON response")
	}

	if len(result.Items) == 0 {
		logger.Warn("google search returned no results",
			zap.String("query", query),
			zap.Int("status", resp.StatusCode),
		)
	}

	return result, nil
}

func truncateForLog(body []byte, limit int) (string, bool) {
	if len(body) <= limit {
		return string(body), false
	}
	return string(body[:limit]), true
}
