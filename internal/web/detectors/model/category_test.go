package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCategoryID(t *testing.T) {
	id, err := ParseCategoryID("  availability ")
	require.NoError(t, err)
	require.Equal(t, CategoryID("availability"), id)

	_, err = ParseCategoryID("   ")
	require.Error(t, err)
}

func TestMenuItemCloneIsDeep(t *testing.T) {
	item := MenuItem{Label: "root", Children: []MenuItem{{Label: "child"}}}
	cloned := item.Clone()
	cloned.Children[0].Label = "changed"

	require.Equal(t, "child", item.Children[0].Label)
	require.Len(t, ListCategories(), 6)
}

func TestListCategoriesKeys(t *testing.T) {
	require.Equal(t, []CategoryID{
		"WindowsAvailabilityAndPerformance",
		"ConfigurationAndManagement",
		"SSLandDomains",
		"BestPractices",
		"navigator",
		"DiagnosticTools",
	}, ListCategories())
}
