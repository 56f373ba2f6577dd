// Package model defines the detector categorization types.
package model

import (
	"strings"

	"github.com/Laisky/errors/v2"
)

// CategoryID identifies a detector category or a menu list.
type CategoryID string

// Menu lists seeded for every registry.
const (
	CategoryWindowsAvailabilityAndPerformance CategoryID = "WindowsAvailabilityAndPerformance"
	CategoryConfigurationAndManagement        CategoryID = "ConfigurationAndManagement"
	CategorySSLAndDomains                     CategoryID = "SSLandDomains"
	CategoryBestPractices                     CategoryID = "BestPractices"
	CategoryNavigator                         CategoryID = "navigator"
	CategoryDiagnosticTools                   CategoryID = "DiagnosticTools"
)

// ListCategories returns the menu lists every registry starts with.
func ListCategories() []CategoryID {
	return []CategoryID{
		CategoryWindowsAvailabilityAndPerformance,
		CategoryConfigurationAndManagement,
		CategorySSLAndDomains,
		CategoryBestPractices,
		CategoryNavigator,
		CategoryDiagnosticTools,
	}
}

// ParseCategoryID trims raw and rejects blank ids.
func ParseCategoryID(raw string) (CategoryID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", errors.New("category id cannot be empty")
	}

	return CategoryID(id), nil
}

func (id CategoryID) String() string {
	return string(id)
}

// Category is one entry of the category feed.
type Category struct {
	ID          CategoryID `bson:"id" json:"id"`
	Name        string     `bson:"name" json:"name"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
}

// MenuItem is a navigation entry shown in a category list.
type MenuItem struct {
	Label      string     `json:"label"`
	DetectorID string     `json:"detector_id,omitempty"`
	Route      string     `json:"route,omitempty"`
	Expanded   bool       `json:"expanded"`
	Children   []MenuItem `json:"children,omitempty"`
}

// Clone returns a deep copy of the item.
func (m MenuItem) Clone() MenuItem {
	cloned := m
	if m.Children != nil {
		cloned.Children = make([]MenuItem, len(m.Children))
		for i, child := range m.Children {
			cloned.Children[i] = child.Clone()
		}
	}

	return cloned
}
