// Package dto defines the web search view types.
package dto

import "strings"

// Default presentation values.
const (
	DefaultMaxResults          = 5
	DefaultNumArticlesExpanded = 5
	// DeepSearchArticlesExpanded is used once deep search is enabled.
	DeepSearchArticlesExpanded = 2
)

// Telemetry event names.
const (
	EventWebQueryResults       = "WebQueryResults"
	EventWebQueryResultClicked = "WebQueryResultClicked"
)

// State is the search state machine position.
type State string

const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateMerging   State = "merging"
	StateDisplayed State = "displayed"
	// StateFailed shows no-results guidance instead of a list.
	StateFailed State = "failed"
)

// SearchResult is one displayed article.
type SearchResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Configuration controls one search invocation.
type Configuration struct {
	MaxResults     int      `json:"MaxResults"`
	UseStack       bool     `json:"UseStack"`
	PreferredSites []string `json:"PreferredSites"`
}

// DefaultConfiguration builds the configuration for a product.
// preferred maps a PES id to its preferred sites.
func DefaultConfiguration(pesID string, preferred map[string][]string) Configuration {
	cfg := Configuration{
		MaxResults:     DefaultMaxResults,
		UseStack:       true,
		PreferredSites: []string{},
	}

	pesID = strings.TrimSpace(pesID)
	if pesID == "" {
		return cfg
	}

	for _, site := range preferred[pesID] {
		if site = strings.TrimSpace(site); site != "" {
			cfg.PreferredSites = append(cfg.PreferredSites, site)
		}
	}

	return cfg
}

// Clone returns a copy that shares no slices with c.
func (c Configuration) Clone() Configuration {
	c.PreferredSites = append([]string{}, c.PreferredSites...)
	return c
}

// View is a snapshot of the component's presentation state.
type View struct {
	SearchTerm              string         `json:"searchTerm"`
	SearchTermDisplay       string         `json:"searchTermDisplay"`
	SearchID                string         `json:"searchId"`
	Results                 []SearchResult `json:"searchResults"`
	State                   State          `json:"state"`
	ShowPreLoader           bool           `json:"showPreLoader"`
	ShowSearchTermPractices bool           `json:"showSearchTermPractices"`
	DeepSearchEnabled       bool           `json:"deepSearchEnabled"`
	NumArticlesExpanded     int            `json:"numArticlesExpanded"`
	ViewRemainingArticles   bool           `json:"viewRemainingArticles"`
}
