package dao

import (
	"context"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"

	rdb "github.com/Laisky/diagnostics-portal/library/db/redis"
	"github.com/Laisky/diagnostics-portal/library/log"
)

type testQueue struct {
	events []*rdb.TelemetryEvent
	err    error
}

func (q *testQueue) PushTelemetryEvent(ctx context.Context, evt *rdb.TelemetryEvent) error {
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, evt)
	return nil
}

type testStore struct {
	enabled map[string]bool
	err     error
	calls   int
}

func (s *testStore) IsDeepSearchEnabled(ctx context.Context, pesID string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.enabled[pesID], nil
}

func TestRedisSinkQueuesEvents(t *testing.T) {
	queue := &testQueue{}
	sink := NewRedisSink(queue, log.Logger)

	sink.LogEvent(context.Background(), "WebQueryResults", map[string]string{"searchId": "sid"})

	require.Len(t, queue.events, 1)
	require.Equal(t, "WebQueryResults", queue.events[0].Name)
	require.Equal(t, "sid", queue.events[0].Properties["searchId"])
	require.False(t, queue.events[0].CreatedAt.IsZero())
}

func TestRedisSinkSwallowsErrors(t *testing.T) {
	sink := NewRedisSink(&testQueue{err: errors.New("connection refused")}, log.Logger)
	require.NotPanics(t, func() {
		sink.LogEvent(context.Background(), "WebQueryResults", nil)
	})
}

func TestMultiSinkFansOut(t *testing.T) {
	first, second := &testQueue{}, &testQueue{}
	sink := MultiSink{
		NewRedisSink(first, log.Logger),
		nil,
		NewLoggerSink(log.Logger),
		NewRedisSink(second, log.Logger),
	}

	sink.LogEvent(context.Background(), "WebQueryResultClicked", map[string]string{"article": "{}"})
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
}

func TestRedisDeepSearch(t *testing.T) {
	store := &testStore{enabled: map[string]bool{"14748": true}}
	checker := NewRedisDeepSearch(store)
	ctx := context.Background()

	ok, err := checker.IsEnabled(ctx, "14748", false)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = checker.IsEnabled(ctx, "14748", true)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = checker.IsEnabled(ctx, " ", false)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, store.calls)

	store.err = errors.New("timeout")
	_, err = checker.IsEnabled(ctx, "14748", false)
	require.Error(t, err)
}

func TestConfigDeepSearch(t *testing.T) {
	checker := NewConfigDeepSearch([]string{"14748", " "})
	ctx := context.Background()

	ok, _ := checker.IsEnabled(ctx, "14748", false)
	require.True(t, ok)
	ok, _ = checker.IsEnabled(ctx, "16450", false)
	require.False(t, ok)
	ok, _ = checker.IsEnabled(ctx, "14748", true)
	require.False(t, ok)
}

func TestResourceResolver(t *testing.T) {
	ctx := context.Background()
	id := "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Web/sites/my-app"

	pesID, err := NewResourceResolver(id, nil).PesID(ctx)
	require.NoError(t, err)
	require.Equal(t, "14748", pesID)

	pesID, err = NewResourceResolver(id, map[string]string{"Microsoft.Web/Sites": "99999"}).PesID(ctx)
	require.NoError(t, err)
	require.Equal(t, "99999", pesID)

	_, err = NewResourceResolver("/subscriptions/sub/providers/Microsoft.Unknown/things/x", nil).PesID(ctx)
	require.Error(t, err)

	_, err = NewResourceResolver("", nil).PesID(ctx)
	require.Error(t, err)
}

func TestProviderType(t *testing.T) {
	provider, err := ProviderType("subscriptions/s/resourceGroups/g/providers/Microsoft.ContainerService/managedClusters/aks")
	require.NoError(t, err)
	require.Equal(t, "microsoft.containerservice/managedclusters", provider)

	_, err = ProviderType("/subscriptions/s/providers/Microsoft.Web")
	require.Error(t, err)
}
