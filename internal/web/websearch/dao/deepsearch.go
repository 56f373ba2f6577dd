package dao

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
)

// DeepSearchStore is the redis side of RedisDeepSearch.
type DeepSearchStore interface {
	IsDeepSearchEnabled(ctx context.Context, pesID string) (bool, error)
}

// RedisDeepSearch looks the product up in the redis allowlist.
// Public sites never get deep search.
type RedisDeepSearch struct {
	store DeepSearchStore
}

// NewRedisDeepSearch returns a checker over store.
func NewRedisDeepSearch(store DeepSearchStore) *RedisDeepSearch {
	return &RedisDeepSearch{store: store}
}

// IsEnabled implements service.DeepSearchChecker.
func (d *RedisDeepSearch) IsEnabled(ctx context.Context, pesID string, isPublic bool) (bool, error) {
	pesID = strings.TrimSpace(pesID)
	if isPublic || pesID == "" {
		return false, nil
	}

	enabled, err := d.store.IsDeepSearchEnabled(ctx, pesID)
	if err != nil {
		return false, errors.Wrapf(err, "check deep search for %q", pesID)
	}

	return enabled, nil
}

// ConfigDeepSearch checks a static allowlist of PES ids.
type ConfigDeepSearch struct {
	enabled map[string]struct{}
}

// NewConfigDeepSearch returns a checker enabling pesIDs.
func NewConfigDeepSearch(pesIDs []string) *ConfigDeepSearch {
	enabled := make(map[string]struct{}, len(pesIDs))
	for _, id := range pesIDs {
		if id = strings.TrimSpace(id); id != "" {
			enabled[id] = struct{}{}
		}
	}

	return &ConfigDeepSearch{enabled: enabled}
}

// IsEnabled implements service.DeepSearchChecker.
func (d *ConfigDeepSearch) IsEnabled(ctx context.Context, pesID string, isPublic bool) (bool, error) {
	if isPublic {
		return false, nil
	}

	_, ok := d.enabled[strings.TrimSpace(pesID)]
	return ok, nil
}
