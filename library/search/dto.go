package search

// SearchResultItem captures a single entry returned by a search provider.
type SearchResultItem struct {
	URL     string `json:"url"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// WebPages is the page list of a ResultSet.
type WebPages struct {
	Value []SearchResultItem `json:"value"`
}

// ResultSet is the content-search response shape: `{webPages: {value: [...]}}`.
// WebPages is nil when the provider returned no page section at all.
type ResultSet struct {
	WebPages *WebPages `json:"webPages,omitempty"`
}

// NewResultSet wraps items into a ResultSet.
func NewResultSet(items []SearchResultItem) *ResultSet {
	return &ResultSet{WebPages: &WebPages{Value: items}}
}

// Pages returns the page entries, or nil when the set or its page section is missing.
func (r *ResultSet) Pages() []SearchResultItem {
	if r == nil || r.WebPages == nil {
		return nil
	}
	return r.WebPages.Value
}

// HasPages reports whether the set carries at least one page.
func (r *ResultSet) HasPages() bool {
	return len(r.Pages()) > 0
}
