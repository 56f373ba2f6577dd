package service

import (
	"net/url"
	"strings"

	"github.com/Laisky/diagnostics-portal/internal/web/websearch/dto"
	"github.com/Laisky/diagnostics-portal/library/search"
)

// MergeResults combines the general and preferred result sets.
//
// The general pages come first. Preferred pages are appended unless their URL
// is already present, so the first occurrence of a URL wins. A general set
// without pages is replaced by an empty page section. Inputs are not modified.
func MergeResults(general, preferred *search.ResultSet) *search.ResultSet {
	merged := &search.ResultSet{WebPages: &search.WebPages{Value: []search.SearchResultItem{}}}
	if general.HasPages() {
		merged.WebPages.Value = append(merged.WebPages.Value, general.Pages()...)
	}

	if !preferred.HasPages() {
		return merged
	}

	seen := make(map[string]struct{}, len(merged.WebPages.Value))
	for _, item := range merged.WebPages.Value {
		seen[item.URL] = struct{}{}
	}
	for _, item := range preferred.Pages() {
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}
		merged.WebPages.Value = append(merged.WebPages.Value, item)
	}

	return merged
}

// toSearchResults maps provider records into displayed articles.
func toSearchResults(items []search.SearchResultItem) []dto.SearchResult {
	results := make([]dto.SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, dto.SearchResult{
			Title:       item.Name,
			Description: item.Snippet,
			Link:        item.URL,
		})
	}

	return results
}

// RankResultsBySource moves the first result of every host to the front.
// Both the leading firsts and the trailing repeats keep their input order.
func RankResultsBySource(results []dto.SearchResult) []dto.SearchResult {
	if len(results) == 0 {
		return []dto.SearchResult{}
	}

	seen := map[string]struct{}{}
	firsts := make([]dto.SearchResult, 0, len(results))
	var repeats []dto.SearchResult
	for _, result := range results {
		source := sourceOf(result.Link)
		if _, ok := seen[source]; ok {
			repeats = append(repeats, result)
			continue
		}

		seen[source] = struct{}{}
		firsts = append(firsts, result)
	}

	return append(firsts, repeats...)
}

// sourceOf returns the lowercased hostname of link.
// Links without a host are their own source.
func sourceOf(link string) string {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return link
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return link
	}

	return host
}
