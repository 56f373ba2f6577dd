package service

import (
	"net/url"
	"sync"
)

// QueryNavigator keeps the query string in memory.
// The HTTP controller seeds it from the request and returns the merged result.
type QueryNavigator struct {
	mu     sync.Mutex
	params url.Values
}

// NewQueryNavigator copies params.
func NewQueryNavigator(params url.Values) *QueryNavigator {
	return &QueryNavigator{params: cloneValues(params)}
}

// QueryParams returns a copy of the current parameters.
func (n *QueryNavigator) QueryParams() url.Values {
	n.mu.Lock()
	defer n.mu.Unlock()

	return cloneValues(n.params)
}

// MergeQueryParams overwrites the given keys and keeps the rest.
func (n *QueryNavigator) MergeQueryParams(params map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for key, val := range params {
		n.params.Set(key, val)
	}
}

// Encode renders the current query string.
func (n *QueryNavigator) Encode() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.params.Encode()
}

func cloneValues(params url.Values) url.Values {
	cloned := url.Values{}
	for key, vals := range params {
		cloned[key] = append([]string{}, vals...)
	}

	return cloned
}
