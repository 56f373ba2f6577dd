package controller

import (
	"strings"
	"time"

	gconfig "github.com/Laisky/go-config/v2"

	"github.com/Laisky/diagnostics-portal/library/search"
)

const defaultDebounce = 500 * time.Millisecond

// Settings tunes the per-request components.
type Settings struct {
	PreferredSites map[string][]string
	PesIDs         map[string]string
	IsPublic       bool
	Debounce       time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

// DefaultSettings mirrors the component defaults.
func DefaultSettings() Settings {
	return Settings{
		PreferredSites: map[string][]string{},
		PesIDs:         map[string]string{},
		Debounce:       defaultDebounce,
		MaxRetries:     search.DefaultMaxRetries,
		RetryDelay:     search.DefaultRetryDelay,
	}
}

// SettingsFromConfig reads settings.websearch.
func SettingsFromConfig() Settings {
	s := DefaultSettings()

	for pesID := range gconfig.Shared.GetStringMap("settings.websearch.preferred_sites") {
		sites := gconfig.Shared.GetStringSlice("settings.websearch.preferred_sites." + pesID)
		if len(sites) > 0 {
			s.PreferredSites[strings.TrimSpace(pesID)] = sites
		}
	}
	for provider := range gconfig.Shared.GetStringMap("settings.websearch.pes_ids") {
		if id := gconfig.Shared.GetString("settings.websearch.pes_ids." + provider); id != "" {
			s.PesIDs[provider] = id
		}
	}

	s.IsPublic = gconfig.Shared.GetBool("settings.websearch.is_public")
	if gconfig.S.Get("settings.websearch.max_retry") != nil {
		s.MaxRetries = gconfig.Shared.GetInt("settings.websearch.max_retry")
	}
	if gconfig.S.Get("settings.websearch.retry_delay_ms") != nil {
		s.RetryDelay = time.Duration(gconfig.Shared.GetInt("settings.websearch.retry_delay_ms")) * time.Millisecond
	}
	if gconfig.S.Get("settings.websearch.debounce_ms") != nil {
		s.Debounce = time.Duration(gconfig.Shared.GetInt("settings.websearch.debounce_ms")) * time.Millisecond
	}

	return s
}
