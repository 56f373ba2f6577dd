package redis

import (
	"encoding/json"
	"time"

	"github.com/Laisky/errors/v2"
)

// TelemetryEvent is one telemetry record queued for the analytics pipeline.
type TelemetryEvent struct {
	Name       string            `json:"name"`
	Properties map[string]string `json:"properties"`
	CreatedAt  time.Time         `json:"created_at"`
}

// MarshalBinary encodes the event as JSON, the list entry format read by consumers.
func (e TelemetryEvent) MarshalBinary() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "marshal telemetry event")
	}

	return payload, nil
}
