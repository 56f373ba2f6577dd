// Package service implements the web search orchestrator.
package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/diagnostics-portal/internal/web/websearch/dto"
	"github.com/Laisky/diagnostics-portal/library/log"
	"github.com/Laisky/diagnostics-portal/library/search"
)

const (
	searchTermParam  = "searchTerm"
	defaultDebounce  = 500 * time.Millisecond
	minRefreshLength = 2
)

// ContentSearcher runs one content search.
type ContentSearcher interface {
	Search(ctx context.Context, query search.Query) (*search.ResultSet, error)
}

// DeepSearchChecker reports whether deep search is enabled for a product.
type DeepSearchChecker interface {
	IsEnabled(ctx context.Context, pesID string, isPublic bool) (bool, error)
}

// ResourceIdentity resolves the PES id of the current resource.
type ResourceIdentity interface {
	PesID(ctx context.Context) (string, error)
}

// TelemetrySink accepts fire-and-forget events.
type TelemetrySink interface {
	LogEvent(ctx context.Context, name string, props map[string]string)
}

// Navigator reads and merges the visible query string.
type Navigator interface {
	QueryParams() url.Values
	MergeQueryParams(params map[string]string)
}

// Emitter receives the displayed results after every successful search.
type Emitter func(results []dto.SearchResult)

// Dependencies are the collaborators of a Component.
// Only Searcher is required.
type Dependencies struct {
	Searcher   ContentSearcher
	DeepSearch DeepSearchChecker
	Identity   ResourceIdentity
	Telemetry  TelemetrySink
	Navigator  Navigator
	Emitter    Emitter
}

// Option customises a Component.
type Option func(*Component)

// WithLogger overrides the component logger.
func WithLogger(logger logSDK.Logger) Option {
	return func(c *Component) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSearchTerm sets the initial term.
func WithSearchTerm(term string) Option {
	return func(c *Component) {
		c.searchTerm = term
	}
}

// WithSearchID sets a correlation id. Embedded components reuse it.
func WithSearchID(id string) Option {
	return func(c *Component) {
		c.searchID = id
	}
}

// WithEmbedded marks the component as a child widget.
// Embedded components never touch the query string and keep the given search id.
func WithEmbedded(embedded bool) Option {
	return func(c *Component) {
		c.embedded = embedded
	}
}

// WithPublic marks the hosting site as public for the deep search check.
func WithPublic(isPublic bool) Option {
	return func(c *Component) {
		c.isPublic = isPublic
	}
}

// WithConfiguration pins the search configuration instead of deriving it from the PES id.
func WithConfiguration(cfg dto.Configuration) Option {
	return func(c *Component) {
		cloned := cfg.Clone()
		c.config = &cloned
	}
}

// WithPreferredSites sets the PES id to preferred sites table used for the default configuration.
func WithPreferredSites(preferred map[string][]string) Option {
	return func(c *Component) {
		c.preferredSites = preferred
	}
}

// WithNumArticlesExpanded sets how many articles are expanded by default.
func WithNumArticlesExpanded(n int) Option {
	return func(c *Component) {
		if n > 0 {
			c.numArticlesExpanded = n
		}
	}
}

// WithDebounce sets the delay applied by Refresh.
func WithDebounce(d time.Duration) Option {
	return func(c *Component) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithWaitFunc replaces the timer used for debounce and retry delays, primarily for testing.
func WithWaitFunc(wait search.WaitFunc) Option {
	return func(c *Component) {
		if wait != nil {
			c.wait = wait
		}
	}
}

// WithRetry sets the retry count and delay for every collaborator call.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Component) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// Component orchestrates one web search widget.
//
// Every trigger bumps a generation number and derives a context from the
// component lifetime. Results are applied only when the generation still
// matches and the component is open, so late completions are dropped.
type Component struct {
	deps   Dependencies
	logger logSDK.Logger

	embedded       bool
	isPublic       bool
	preferredSites map[string][]string
	debounce       time.Duration
	maxRetries     int
	retryDelay     time.Duration
	wait           search.WaitFunc

	lifetime context.Context
	shutdown context.CancelFunc

	mu                      sync.Mutex
	closed                  bool
	generation              uint64
	refreshSeq              uint64
	cancelInflight          context.CancelFunc
	config                  *dto.Configuration
	pesID                   string
	searchTerm              string
	searchTermDisplay       string
	searchID                string
	results                 []dto.SearchResult
	state                   dto.State
	showPreLoader           bool
	showSearchTermPractices bool
	deepSearchEnabled       bool
	numArticlesExpanded     int
	viewRemainingArticles   bool
}

// NewComponent returns an idle, embedded component.
func NewComponent(deps Dependencies, opts ...Option) (*Component, error) {
	if deps.Searcher == nil {
		return nil, errors.New("content searcher is required")
	}

	lifetime, shutdown := context.WithCancel(context.Background())
	c := &Component{
		deps:                deps,
		logger:              log.Logger.Named("websearch"),
		embedded:            true,
		debounce:            defaultDebounce,
		maxRetries:          search.DefaultMaxRetries,
		retryDelay:          search.DefaultRetryDelay,
		wait:                search.Wait,
		lifetime:            lifetime,
		shutdown:            shutdown,
		state:               dto.StateIdle,
		numArticlesExpanded: dto.DefaultNumArticlesExpanded,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Init syncs the term from the query string, resolves the product,
// checks deep search and then refreshes.
func (c *Component) Init(ctx context.Context) dto.View {
	if c.deps.Navigator != nil {
		params := c.deps.Navigator.QueryParams()
		if _, ok := params[searchTermParam]; ok {
			c.SetSearchTerm(params.Get(searchTermParam))
		}
	}

	c.resolvePesID(ctx)
	c.checkDeepSearch(ctx)

	view, _ := c.Refresh(ctx)
	return view
}

// Refresh waits for the debounce delay and triggers a search when the term
// has at least two characters. A newer Refresh supersedes a waiting one.
// The bool reports whether a search ran.
func (c *Component) Refresh(ctx context.Context) (dto.View, bool) {
	c.mu.Lock()
	term := c.searchTerm
	c.refreshSeq++
	seq := c.refreshSeq
	c.mu.Unlock()

	if utf8.RuneCountInString(term) < minRefreshLength {
		return c.View(), false
	}

	if err := c.wait(ctx, c.debounce); err != nil {
		c.logger.Debug("refresh cancelled", zap.Error(err))
		return c.View(), false
	}

	c.mu.Lock()
	superseded := seq != c.refreshSeq || c.closed
	c.mu.Unlock()
	if superseded {
		return c.View(), false
	}

	return c.TriggerSearch(ctx), true
}

// TriggerSearch runs the general and preferred searches, merges and ranks
// their pages, and returns the resulting view. It never fails: exhausted
// retries count as an empty result and an empty merge shows guidance.
func (c *Component) TriggerSearch(ctx context.Context) dto.View {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}

	term := c.searchTerm
	if !c.embedded && c.deps.Navigator != nil {
		c.deps.Navigator.MergeQueryParams(map[string]string{searchTermParam: term})
	}

	c.resetLocked()
	if !c.embedded || c.searchID == "" {
		c.searchID = uuid.NewString()
	}
	if c.config == nil {
		cfg := dto.DefaultConfiguration(c.pesID, c.preferredSites)
		c.config = &cfg
	}
	cfg := c.config.Clone()
	searchID := c.searchID

	if c.cancelInflight != nil {
		c.cancelInflight()
	}
	c.generation++
	gen := c.generation
	taskCtx, cancel := context.WithCancel(ctx)
	stopLink := context.AfterFunc(c.lifetime, cancel)
	c.cancelInflight = cancel
	c.state = dto.StateSearching
	c.showPreLoader = true
	c.mu.Unlock()

	defer func() {
		stopLink()
		cancel()
	}()

	logger := c.logger.With(
		zap.String("search_id", searchID),
		zap.String("term", term),
	)

	general := search.Query{
		Term:           term,
		MaxResults:     cfg.MaxResults,
		UseStack:       cfg.UseStack,
		PreferredSites: []string{},
	}

	var generalRes, preferredRes *search.ResultSet
	var g errgroup.Group
	g.Go(func() error {
		generalRes = c.fetch(taskCtx, logger, taskGeneral, general)
		return nil
	})
	if len(cfg.PreferredSites) > 0 {
		preferred := general
		preferred.PreferredSites = cfg.PreferredSites
		g.Go(func() error {
			preferredRes = c.fetch(taskCtx, logger, taskPreferred, preferred)
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	if c.closed || gen != c.generation {
		defer c.mu.Unlock()
		logger.Debug("drop stale search results")
		return c.snapshotLocked()
	}

	c.state = dto.StateMerging
	merged := MergeResults(generalRes, preferredRes)
	c.showPreLoader = false
	if merged.HasPages() {
		c.results = RankResultsBySource(toSearchResults(merged.Pages()))
		c.state = dto.StateDisplayed
	} else {
		c.searchTermDisplay = term
		c.showSearchTermPractices = true
		c.state = dto.StateFailed
	}
	view := c.snapshotLocked()
	c.mu.Unlock()

	searchOutcomes.WithLabelValues(string(view.State)).Inc()
	logger.Info("search finished",
		zap.String("state", string(view.State)),
		zap.Int("results", len(view.Results)))

	if view.State == dto.StateDisplayed && c.deps.Emitter != nil {
		c.deps.Emitter(cloneResults(view.Results))
	}
	c.logEvent(ctx, dto.EventWebQueryResults, map[string]string{
		"searchId": searchID,
		"query":    term,
		"results":  sanitizedResultsJSON(logger, view.Results),
		"ts":       unixTimestamp(),
	})

	return view
}

// SelectResult records a click on article.
func (c *Component) SelectResult(ctx context.Context, article dto.SearchResult) {
	payload, err := json.Marshal(article)
	if err != nil {
		c.logger.Warn("marshal clicked article", zap.Error(err))
		return
	}

	c.mu.Lock()
	searchID := c.searchID
	c.mu.Unlock()

	c.logEvent(ctx, dto.EventWebQueryResultClicked, map[string]string{
		"searchId": searchID,
		"article":  string(payload),
		"ts":       unixTimestamp(),
	})
}

// ToggleRemainingArticles flips whether the collapsed articles are shown.
func (c *Component) ToggleRemainingArticles() dto.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.viewRemainingArticles = !c.viewRemainingArticles
	return c.snapshotLocked()
}

// ClearSearchTerm empties the input term.
func (c *Component) ClearSearchTerm() {
	c.SetSearchTerm("")
}

// SetSearchTerm replaces the input term without searching.
func (c *Component) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.searchTerm = term
}

// View returns a snapshot of the presentation state.
func (c *Component) View() dto.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Close cancels in-flight work. Completions arriving later are ignored.
func (c *Component) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.shutdown()
	if c.cancelInflight != nil {
		c.cancelInflight()
	}
}

// fetch runs one search task with retries. Exhausted retries yield nil.
func (c *Component) fetch(ctx context.Context, logger logSDK.Logger, task string, query search.Query) *search.ResultSet {
	var result *search.ResultSet
	err := c.newRetrier(task).Do(ctx, func(ctx context.Context) error {
		rs, err := c.deps.Searcher.Search(ctx, query)
		if err != nil {
			return err
		}

		result = rs
		return nil
	})
	if err != nil {
		logger.Warn("search task failed", zap.String("task", task), zap.Error(err))
		return nil
	}

	return result
}

// resolvePesID keeps the previous PES id when the lookup fails.
func (c *Component) resolvePesID(ctx context.Context) {
	if c.deps.Identity == nil {
		return
	}

	pesID, err := c.deps.Identity.PesID(ctx)
	if err != nil {
		c.logger.Warn("resolve pes id, keep previous", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pesID = strings.TrimSpace(pesID)
}

// checkDeepSearch treats any failure as disabled.
func (c *Component) checkDeepSearch(ctx context.Context) {
	if c.deps.DeepSearch == nil {
		return
	}

	c.mu.Lock()
	pesID := c.pesID
	c.mu.Unlock()

	var enabled bool
	err := c.newRetrier(taskDeepSearch).Do(ctx, func(ctx context.Context) error {
		ok, err := c.deps.DeepSearch.IsEnabled(ctx, pesID, c.isPublic)
		if err != nil {
			return err
		}

		enabled = ok
		return nil
	})
	if err != nil {
		c.logger.Warn("check deep search, treat as disabled", zap.Error(err))
		enabled = false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.deepSearchEnabled = enabled
	if enabled {
		c.numArticlesExpanded = dto.DeepSearchArticlesExpanded
	}
}

func (c *Component) newRetrier(task string) *search.Retrier {
	return search.NewRetrier(
		search.WithMaxRetries(c.maxRetries),
		search.WithRetryDelay(c.retryDelay),
		search.WithWaitFunc(c.wait),
		search.WithAttemptHook(observeAttempt(task)),
	)
}

func (c *Component) logEvent(ctx context.Context, name string, props map[string]string) {
	if c.deps.Telemetry == nil {
		return
	}

	c.deps.Telemetry.LogEvent(ctx, name, props)
}

func (c *Component) resetLocked() {
	c.results = []dto.SearchResult{}
	c.showPreLoader = false
	c.showSearchTermPractices = false
	c.searchTermDisplay = ""
}

func (c *Component) snapshotLocked() dto.View {
	return dto.View{
		SearchTerm:              c.searchTerm,
		SearchTermDisplay:       c.searchTermDisplay,
		SearchID:                c.searchID,
		Results:                 cloneResults(c.results),
		State:                   c.state,
		ShowPreLoader:           c.showPreLoader,
		ShowSearchTermPractices: c.showSearchTermPractices,
		DeepSearchEnabled:       c.deepSearchEnabled,
		NumArticlesExpanded:     c.numArticlesExpanded,
		ViewRemainingArticles:   c.viewRemainingArticles,
	}
}

// sanitizedResultsJSON replaces semicolons in titles and descriptions,
// since downstream telemetry splits on them.
func sanitizedResultsJSON(logger logSDK.Logger, results []dto.SearchResult) string {
	sanitized := make([]dto.SearchResult, 0, len(results))
	for _, result := range results {
		sanitized = append(sanitized, dto.SearchResult{
			Title:       strings.ReplaceAll(result.Title, ";", " "),
			Description: strings.ReplaceAll(result.Description, ";", " "),
			Link:        result.Link,
		})
	}

	payload, err := json.Marshal(sanitized)
	if err != nil {
		logger.Warn("marshal telemetry results", zap.Error(err))
		return "[]"
	}

	return string(payload)
}

func unixTimestamp() string {
	return strconv.FormatInt(gutils.Clock.GetUTCNow().Unix(), 10)
}

func cloneResults(results []dto.SearchResult) []dto.SearchResult {
	return append([]dto.SearchResult{}, results...)
}
