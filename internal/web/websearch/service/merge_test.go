package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/diagnostics-portal/internal/web/websearch/dto"
	"github.com/Laisky/diagnostics-portal/library/search"
)

func urlsOf(rs *search.ResultSet) []string {
	out := []string{}
	for _, item := range rs.Pages() {
		out = append(out, item.URL)
	}
	return out
}

// TestMergeResultsDedupByURL verifies later duplicates are dropped and order is kept.
func TestMergeResultsDedupByURL(t *testing.T) {
	general := pages("a", "b")
	preferred := pages("b", "c")

	merged := MergeResults(general, preferred)
	require.Equal(t, []string{"a", "b", "c"}, urlsOf(merged))
	require.Equal(t, []string{"a", "b"}, urlsOf(general))
}

// TestMergeResultsEmptyGeneral verifies a missing page section falls back to the preferred pages.
func TestMergeResultsEmptyGeneral(t *testing.T) {
	merged := MergeResults(&search.ResultSet{}, pages("c", "d"))
	require.NotNil(t, merged.WebPages)
	require.Equal(t, []string{"c", "d"}, urlsOf(merged))

	require.Equal(t, []dto.SearchResult{
		{Title: "name c", Description: "snippet c", Link: "c"},
		{Title: "name d", Description: "snippet d", Link: "d"},
	}, toSearchResults(merged.Pages()))

	merged = MergeResults(nil, nil)
	require.NotNil(t, merged.WebPages)
	require.Empty(t, merged.Pages())
	require.False(t, merged.HasPages())
}

func TestMergeResultsDropsDuplicatesWithinPreferred(t *testing.T) {
	merged := MergeResults(pages("a", "a"), pages("c", "c", "a"))
	require.Equal(t, []string{"a", "a", "c"}, urlsOf(merged))
}

// TestRankResultsBySource verifies first results per host lead and repeats trail in order.
func TestRankResultsBySource(t *testing.T) {
	in := []dto.SearchResult{
		{Title: "1", Link: "https://A.com/1"},
		{Title: "2", Link: "https://a.com/2"},
		{Title: "3", Link: "https://b.com/3"},
		{Title: "4", Link: "https://a.com:8443/4"},
		{Title: "5", Link: "https://b.com/5"},
	}

	out := RankResultsBySource(in)

	titles := []string{}
	for _, r := range out {
		titles = append(titles, r.Title)
	}
	require.Equal(t, []string{"1", "3", "2", "4", "5"}, titles)

	require.Empty(t, RankResultsBySource(nil))
	require.NotNil(t, RankResultsBySource(nil))
}

func TestRankResultsBySourceWithoutHost(t *testing.T) {
	in := []dto.SearchResult{
		{Link: "not a url"},
		{Link: "not a url"},
		{Link: "other"},
	}

	out := RankResultsBySource(in)
	require.Equal(t, []string{"not a url", "other", "not a url"}, links(out))
}
