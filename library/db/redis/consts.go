package redis

const (
	keyPrefix = "diagnostics/"

	// KeyPrefixTelemetry is the list key prefix for telemetry events, suffixed by event name.
	KeyPrefixTelemetry = keyPrefix + "telemetry/"
	// KeyDeepSearchPesIDs is the set of product ids with deep search enabled.
	KeyDeepSearchPesIDs = keyPrefix + "deep_search/pes_ids"

	// TelemetryQueueMaxLength is the list length that triggers a trim.
	TelemetryQueueMaxLength = 100000
	// TelemetryQueueTrimSize is how many of the newest events survive a trim.
	TelemetryQueueTrimSize = 90000
)
