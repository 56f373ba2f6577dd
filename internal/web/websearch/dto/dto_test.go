package dto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfiguration(t *testing.T) {
	preferred := map[string][]string{
		"14748": {"learn.microsoft.com", " ", "techcommunity.microsoft.com"},
	}

	cfg := DefaultConfiguration("14748", preferred)
	require.Equal(t, 5, cfg.MaxResults)
	require.True(t, cfg.UseStack)
	require.Equal(t, []string{"learn.microsoft.com", "techcommunity.microsoft.com"}, cfg.PreferredSites)

	cfg = DefaultConfiguration("", preferred)
	require.Empty(t, cfg.PreferredSites)
	require.NotNil(t, cfg.PreferredSites)

	cloned := cfg.Clone()
	cloned.PreferredSites = append(cloned.PreferredSites, "x")
	require.Empty(t, cfg.PreferredSites)
}
