// Package redis wraps go-redis for the telemetry queue and feature flags.
package redis

import (
	"context"

	"github.com/Laisky/errors/v2"
	gredis "github.com/Laisky/go-redis/v2"
	"github.com/redis/go-redis/v9"
)

// listPusher is the part of gredis.Utils used for the telemetry queue.
type listPusher interface {
	RPush(ctx context.Context, key string, payloads []interface{}, opts ...gredis.RPushOptionFunc) error
}

// DB is a wrapper for go-redis
type DB struct {
	db     *gredis.Utils
	rdb    *redis.Client
	pusher listPusher
}

// NewDB creates a new DB instance
func NewDB(opt *redis.Options) *DB {
	rdb := redis.NewClient(opt)
	rutils := gredis.NewRedisUtils(rdb)

	return &DB{
		db:     rutils,
		rdb:    rdb,
		pusher: rutils,
	}
}

// PushTelemetryEvent appends evt as JSON to the list of its event name.
// The list is trimmed to the newest TelemetryQueueTrimSize entries once it
// reaches TelemetryQueueMaxLength.
func (db *DB) PushTelemetryEvent(ctx context.Context, evt *TelemetryEvent) error {
	if evt == nil || evt.Name == "" {
		return errors.New("telemetry event name is empty")
	}

	payload, err := evt.MarshalBinary()
	if err != nil {
		return errors.WithStack(err)
	}

	key := KeyPrefixTelemetry + evt.Name
	if err := db.pusher.RPush(ctx, key, []interface{}{payload},
		db.db.WithMaxLength(TelemetryQueueMaxLength),
		db.db.WithTrimSize(TelemetryQueueTrimSize),
	); err != nil {
		return errors.Wrapf(err, "rpush %q", key)
	}

	return nil
}

// IsDeepSearchEnabled reports whether pesID is in the deep search allowlist set.
func (db *DB) IsDeepSearchEnabled(ctx context.Context, pesID string) (bool, error) {
	ok, err := db.rdb.SIsMember(ctx, KeyDeepSearchPesIDs, pesID).Result()
	if err != nil {
		return false, errors.Wrap(err, "sismember deep search pes ids")
	}

	return ok, nil
}

// Close closes the underlying client.
func (db *DB) Close() error {
	return db.rdb.Close()
}
