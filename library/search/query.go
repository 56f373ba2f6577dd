package search

import (
	"strings"
)

const stackOverflowSite = "stackoverflow.com"

// Query is one content-search request.
type Query struct {
	// Term is the user supplied search text.
	Term string `json:"term"`
	// MaxResults caps how many pages the engine should return.
	MaxResults int `json:"max_results"`
	// UseStack allows Stack Overflow pages in the results.
	UseStack bool `json:"use_stack"`
	// PreferredSites scopes the query to these sites when not empty.
	PreferredSites []string `json:"preferred_sites,omitempty"`
}

// Compose renders the engine query text.
//
// Preferred sites become a `(site:a OR site:b)` group, and UseStack=false
// appends `-site:stackoverflow.com`.
func (q Query) Compose() string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(q.Term))

	sites := make([]string, 0, len(q.PreferredSites))
	for _, site := range q.PreferredSites {
		if normalized := NormalizeSite(site); normalized != "" {
			sites = append(sites, "site:"+normalized)
		}
	}
	if len(sites) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(sites, " OR "))
		sb.WriteString(")")
	}

	if !q.UseStack {
		sb.WriteString(" -site:")
		sb.WriteString(stackOverflowSite)
	}

	return sb.String()
}

// NormalizeSite strips scheme and trailing slashes so that
// `https://azure.github.io/AppService/` becomes `azure.github.io/AppService`.
func NormalizeSite(site string) string {
	trimmed := strings.TrimSpace(site)
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	}
	return strings.TrimRight(trimmed, "/")
}
