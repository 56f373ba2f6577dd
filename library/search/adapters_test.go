package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/diagnostics-portal/library/search/google"
)

func TestGoogleEngineAdapterConvertsItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "10", r.URL.Query().Get("num"))
		require.Equal(t, "cx-id", r.URL.Query().Get("cx"))
		require.Equal(t, "tls handshake (site:learn.microsoft.com)", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"kind":"customsearch#search","items":[
			{"title":"TLS","link":"https://learn.microsoft.com/tls","snippet":"handshake"}
		]}`))
	}))
	defer server.Close()

	engine := google.NewSearchEngine("key", "cx-id",
		google.WithEndpoint(server.URL),
		google.WithHTTPClient(server.Client()),
	)
	adapter, err := NewGoogleEngineAdapter(engine)
	require.NoError(t, err)
	require.Equal(t, googleProgrammableEngineName, adapter.Name())

	items, err := adapter.Search(context.Background(), Query{
		Term:           "tls handshake",
		MaxResults:     25,
		UseStack:       true,
		PreferredSites: []string{"learn.microsoft.com"},
	})
	require.NoError(t, err)
	require.Equal(t, []SearchResultItem{
		{URL: "https://learn.microsoft.com/tls", Name: "TLS", Snippet: "handshake"},
	}, items)
}

func TestGoogleEngineAdapterRequiresEngine(t *testing.T) {
	_, err := NewGoogleEngineAdapter(nil)
	require.Error(t, err)
}
