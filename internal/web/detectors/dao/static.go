// Package dao provides category feeds for the detector registry.
package dao

import (
	"context"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"

	"github.com/Laisky/diagnostics-portal/internal/web/detectors/model"
)

const categoriesConfigKey = "settings.detectors.categories"

// StaticSource emits a fixed category list once and closes the feed.
type StaticSource struct {
	categories []model.Category
}

// NewStaticSource returns a source over categories.
func NewStaticSource(categories []model.Category) *StaticSource {
	return &StaticSource{categories: append([]model.Category{}, categories...)}
}

// NewStaticSourceFromConfig reads settings.detectors.categories.
func NewStaticSourceFromConfig() (*StaticSource, error) {
	categories, err := ParseCategories(gconfig.S.Get(categoriesConfigKey))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", categoriesConfigKey)
	}

	return NewStaticSource(categories), nil
}

// Subscribe implements service.CategorySource.
func (s *StaticSource) Subscribe(ctx context.Context) (<-chan []model.Category, error) {
	feed := make(chan []model.Category, 1)
	feed <- append([]model.Category{}, s.categories...)
	close(feed)

	return feed, nil
}

// ParseCategories converts a raw config list into categories.
// Each entry is either a bare id string or a map with id, name and description.
func ParseCategories(raw any) ([]model.Category, error) {
	if raw == nil {
		return nil, nil
	}

	entries, ok := raw.([]any)
	if !ok {
		return nil, errors.Errorf("expect list, got %T", raw)
	}

	categories := make([]model.Category, 0, len(entries))
	for i, entry := range entries {
		switch v := entry.(type) {
		case string:
			id, err := model.ParseCategoryID(v)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %d", i)
			}
			categories = append(categories, model.Category{ID: id, Name: id.String()})
		case map[string]any:
			category, err := categoryFromMap(v)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %d", i)
			}
			categories = append(categories, category)
		case map[any]any:
			converted := make(map[string]any, len(v))
			for key, val := range v {
				converted[fmt.Sprint(key)] = val
			}
			category, err := categoryFromMap(converted)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %d", i)
			}
			categories = append(categories, category)
		default:
			return nil, errors.Errorf("entry %d: unsupported type %T", i, entry)
		}
	}

	return categories, nil
}

func categoryFromMap(m map[string]any) (model.Category, error) {
	id, err := model.ParseCategoryID(stringField(m, "id"))
	if err != nil {
		return model.Category{}, err
	}

	name := stringField(m, "name")
	if name == "" {
		name = id.String()
	}

	return model.Category{
		ID:          id,
		Name:        name,
		Description: stringField(m, "description"),
	}, nil
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}

	return strings.TrimSpace(fmt.Sprint(v))
}
