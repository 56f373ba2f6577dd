package mcp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactMCPBodyMasksSubscription(t *testing.T) {
	raw := `{"params":{"arguments":{"resource_id":"/subscriptions/1234-abcd/resourceGroups/rg/providers/Microsoft.Web/sites/app"}}}`
	out := redactMCPBody(raw)
	require.NotContains(t, out, "1234-abcd")
	require.Contains(t, out, "/subscriptions/[redacted]/resourceGroups/rg")
}

func TestRedactMCPBodyNonJSON(t *testing.T) {
	require.Equal(t, "", redactMCPBody(""))
	require.Equal(t, "id=/subscriptions/[redacted]/x", redactMCPBody("id=/subscriptions/abc/x"))
}

func TestRedactHookPayload(t *testing.T) {
	require.Equal(t, "", redactHookPayload(nil))
	out := redactHookPayload(map[string]any{"resource_id": "/SUBSCRIPTIONS/secret/rg"})
	require.NotContains(t, out, "secret")
}
