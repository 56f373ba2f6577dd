// Package service implements the detector categorization registry.
package service

import (
	"context"
	"sort"
	"sync"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/diagnostics-portal/internal/web/detectors/model"
	"github.com/Laisky/diagnostics-portal/library/log"
)

// CategorySource pushes snapshots of the category list.
// The channel is closed when the source has nothing more to send.
type CategorySource interface {
	Subscribe(ctx context.Context) (<-chan []model.Category, error)
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithLogger overrides the registry logger.
func WithLogger(logger logSDK.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry buckets detector ids and menu items into categories.
//
// Detector categories are keyed by whatever ids the category feed reports.
// Menu lists start with the six list categories and grow on first access.
type Registry struct {
	mu        sync.RWMutex
	detectors map[model.CategoryID][]string
	lists     map[model.CategoryID][]model.MenuItem
	logger    logSDK.Logger
}

// NewRegistry returns a registry with every list category seeded empty.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		detectors: map[model.CategoryID][]string{},
		lists:     map[model.CategoryID][]model.MenuItem{},
		logger:    log.Logger.Named("detector_registry"),
	}
	for _, id := range model.ListCategories() {
		r.lists[id] = []model.MenuItem{}
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// AddDetectorToCategory appends detectorID to the category, creating it if absent.
// Duplicates are kept.
func (r *Registry) AddDetectorToCategory(detectorID string, id model.CategoryID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.detectors[id] = append(r.detectors[id], detectorID)
}

// ListNotEmpty reports whether the menu list for id has at least one item.
func (r *Registry) ListNotEmpty(id model.CategoryID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.lists[id]) > 0
}

// GetList returns a copy of the menu list for id.
// A missing list is created empty.
func (r *Registry) GetList(id model.CategoryID) []model.MenuItem {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.lists[id]
	if !ok {
		list = []model.MenuItem{}
		r.lists[id] = list
	}

	return cloneItems(list)
}

// PeekList returns a copy of the menu list for id and whether it exists.
// Unlike GetList it never creates the list.
func (r *Registry) PeekList(id model.CategoryID) ([]model.MenuItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list, ok := r.lists[id]
	if !ok {
		return []model.MenuItem{}, false
	}

	return cloneItems(list), true
}

// PushDetectorToCategory appends item to the menu list for id, creating it if absent.
func (r *Registry) PushDetectorToCategory(item model.MenuItem, id model.CategoryID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lists[id] = append(r.lists[id], item.Clone())
}

// AddListToCategory replaces the menu list for id.
func (r *Registry) AddListToCategory(list []model.MenuItem, id model.CategoryID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lists[id] = cloneItems(list)
}

// GetOrphanDetectors returns a copy of the detector ids for id,
// or an empty slice when the category was never registered.
// Unlike GetList it never creates the category.
func (r *Registry) GetOrphanDetectors(id model.CategoryID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	detectors, ok := r.detectors[id]
	if !ok {
		return []string{}
	}

	return append([]string{}, detectors...)
}

// SeedCategories makes sure every category id exists in the detector map.
// Existing detector lists are left untouched.
func (r *Registry) SeedCategories(categories []model.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, category := range categories {
		if category.ID == "" {
			continue
		}
		if _, ok := r.detectors[category.ID]; !ok {
			r.detectors[category.ID] = []string{}
		}
	}
}

// Categories returns the sorted detector category ids.
func (r *Registry) Categories() []model.CategoryID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]model.CategoryID, 0, len(r.detectors))
	for id := range r.detectors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Watch seeds the registry from every snapshot the source pushes.
// It returns nil once the feed is closed, or the context error on cancellation.
func (r *Registry) Watch(ctx context.Context, source CategorySource) error {
	if source == nil {
		return errors.New("category source is nil")
	}

	feed, err := source.Subscribe(ctx)
	if err != nil {
		return errors.Wrap(err, "subscribe category source")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case categories, ok := <-feed:
			if !ok {
				r.logger.Debug("category feed closed")
				return nil
			}

			r.SeedCategories(categories)
			r.logger.Debug("seeded categories", zap.Int("n", len(categories)))
		}
	}
}

func cloneItems(items []model.MenuItem) []model.MenuItem {
	cloned := make([]model.MenuItem, len(items))
	for i, item := range items {
		cloned[i] = item.Clone()
	}

	return cloned
}
