// Package dao implements the web search collaborators.
package dao

import (
	"context"
	"sort"

	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	rdb "github.com/Laisky/diagnostics-portal/library/db/redis"
)

// TelemetryQueue is the redis side of RedisSink.
type TelemetryQueue interface {
	PushTelemetryEvent(ctx context.Context, evt *rdb.TelemetryEvent) error
}

// LoggerSink writes events to the log.
type LoggerSink struct {
	logger logSDK.Logger
}

// NewLoggerSink returns a sink writing to logger.
func NewLoggerSink(logger logSDK.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// LogEvent implements service.TelemetrySink.
func (s *LoggerSink) LogEvent(ctx context.Context, name string, props map[string]string) {
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys)+1)
	fields = append(fields, zap.String("event", name))
	for _, key := range keys {
		fields = append(fields, zap.String(key, props[key]))
	}

	s.logger.Info("telemetry", fields...)
}

// RedisSink queues events into redis lists.
// Push failures are logged, never returned.
type RedisSink struct {
	queue  TelemetryQueue
	logger logSDK.Logger
}

// NewRedisSink returns a sink over queue.
func NewRedisSink(queue TelemetryQueue, logger logSDK.Logger) *RedisSink {
	return &RedisSink{queue: queue, logger: logger}
}

// LogEvent implements service.TelemetrySink.
func (s *RedisSink) LogEvent(ctx context.Context, name string, props map[string]string) {
	evt := &rdb.TelemetryEvent{
		Name:       name,
		Properties: props,
		CreatedAt:  gutils.Clock.GetUTCNow(),
	}

	if err := s.queue.PushTelemetryEvent(context.WithoutCancel(ctx), evt); err != nil {
		s.logger.Warn("push telemetry event", zap.String("event", name), zap.Error(err))
	}
}

// Sink is the consumer side contract shared by every sink here.
type Sink interface {
	LogEvent(ctx context.Context, name string, props map[string]string)
}

// MultiSink fans events out to every sink in order.
type MultiSink []Sink

// LogEvent implements service.TelemetrySink.
func (m MultiSink) LogEvent(ctx context.Context, name string, props map[string]string) {
	for _, sink := range m {
		if sink != nil {
			sink.LogEvent(ctx, name, props)
		}
	}
}
