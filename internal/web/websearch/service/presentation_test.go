package service

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinkText(t *testing.T) {
	require.Equal(t, "", LinkText(""))
	require.Equal(t, "https://a.com/x", LinkText("https://a.com/x"))
	require.Equal(t, "https://learn.microsoft.c...", LinkText("https://learn.microsoft.com/azure/app-service"))
	require.Equal(t, "https://abcdefghijkl.com...", LinkText("https://abcdefghijkl.com"))
}

func TestViewOrHideAnchorText(t *testing.T) {
	require.Equal(t, "View 3 more documents", ViewOrHideAnchorText(false, 5, 2))
	require.Equal(t, "Hide last 3  documents", ViewOrHideAnchorText(true, 5, 2))
	require.Equal(t, "View  more documents", ViewOrHideAnchorText(false, 0, 2))
	require.Equal(t, "Hide  documents", ViewOrHideAnchorText(true, 5, 0))
}

func TestQueryNavigator(t *testing.T) {
	src := url.Values{"a": {"1"}}
	nav := NewQueryNavigator(src)
	src.Set("a", "changed")

	nav.MergeQueryParams(map[string]string{"searchTerm": "disk io"})
	require.Equal(t, "1", nav.QueryParams().Get("a"))
	require.Equal(t, "a=1&searchTerm=disk+io", nav.Encode())
}
