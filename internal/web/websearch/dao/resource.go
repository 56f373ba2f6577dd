package dao

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
)

// defaultPesIDs maps ARM provider types to support product ids.
var defaultPesIDs = map[string]string{
	"microsoft.web/sites":                        "14748",
	"microsoft.web/hostingenvironments":          "16533",
	"microsoft.containerservice/managedclusters": "16450",
	"microsoft.apimanagement/service":            "16226",
	"microsoft.logic/workflows":                  "16072",
}

// ResourceResolver maps an ARM resource id to its PES id.
type ResourceResolver struct {
	resourceID string
	pesIDs     map[string]string
}

// NewResourceResolver returns a resolver for resourceID.
// overrides take precedence over the built-in provider table.
func NewResourceResolver(resourceID string, overrides map[string]string) *ResourceResolver {
	pesIDs := make(map[string]string, len(defaultPesIDs)+len(overrides))
	for provider, id := range defaultPesIDs {
		pesIDs[provider] = id
	}
	for provider, id := range overrides {
		pesIDs[strings.ToLower(strings.TrimSpace(provider))] = strings.TrimSpace(id)
	}

	return &ResourceResolver{resourceID: resourceID, pesIDs: pesIDs}
}

// PesID implements service.ResourceIdentity.
func (r *ResourceResolver) PesID(ctx context.Context) (string, error) {
	provider, err := ProviderType(r.resourceID)
	if err != nil {
		return "", err
	}

	pesID, ok := r.pesIDs[provider]
	if !ok || pesID == "" {
		return "", errors.Errorf("no pes id for provider %q", provider)
	}

	return pesID, nil
}

// ProviderType extracts the lowercased `namespace/type` from an ARM resource id,
// e.g. `/subscriptions/s/resourceGroups/g/providers/Microsoft.Web/sites/app`
// yields `microsoft.web/sites`.
func ProviderType(resourceID string) (string, error) {
	segments := strings.Split(strings.Trim(strings.TrimSpace(resourceID), "/"), "/")
	for i, segment := range segments {
		if !strings.EqualFold(segment, "providers") {
			continue
		}
		if i+2 >= len(segments) || segments[i+1] == "" || segments[i+2] == "" {
			break
		}

		return strings.ToLower(segments[i+1] + "/" + segments[i+2]), nil
	}

	return "", errors.Errorf("invalid resource id %q", resourceID)
}
