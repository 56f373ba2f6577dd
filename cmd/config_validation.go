package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/spf13/cast"

	detectorDao "github.com/Laisky/diagnostics-portal/internal/web/detectors/dao"
)

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig validates startup configuration from the shared config source.
// It returns an error when any configured value is malformed or violates constraints.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// It accepts a value getter and returns nil when all configured values are valid.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateRedisConfig(get, &validationErrs)
	validateMongoConfig(get, &validationErrs)
	validateWebsearchConfig(get, &validationErrs)
	validateDetectorsConfig(get, &validationErrs)
	validateWebConfig(get, &validationErrs)
	validateMCPConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateRedisConfig validates redis-related startup configuration values.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateRedisConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.db.redis.db", 0, errs)
	validateOptionalString(get, "settings.db.redis.addr", errs)
}

// validateMongoConfig requires a database name once an address is configured.
func validateMongoConfig(get configGetter, errs *[]string) {
	raw := get("settings.db.mongo.addr")
	if raw == nil {
		return
	}

	addr, err := parseStrictString(raw)
	if err != nil {
		appendValidationError(errs, "settings.db.mongo.addr must be a string")
		return
	}
	if strings.TrimSpace(addr) == "" {
		return
	}

	validateRequiredString(get, "settings.db.mongo.db", errs)
}

// validateWebsearchConfig validates web search tuning and engine configuration.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateWebsearchConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.websearch.max_retry", 0, errs)
	validateOptionalIntMin(get, "settings.websearch.retry_delay_ms", 0, errs)
	validateOptionalIntMin(get, "settings.websearch.debounce_ms", 0, errs)
	validateOptionalBool(get, "settings.websearch.is_public", errs)
	validateOptionalStringList(get, "settings.websearch.deep_search.enabled_pes_ids", errs)

	if raw := get("settings.websearch.preferred_sites"); raw != nil {
		sites := toStringMap(raw)
		if sites == nil {
			appendValidationError(errs, "settings.websearch.preferred_sites must be an object")
		}
		for pesID, list := range sites {
			if _, ok := toStringSlice(list); !ok {
				appendValidationError(errs, "settings.websearch.preferred_sites.%s must be a list of strings", pesID)
			}
		}
	}

	if raw := get("settings.websearch.pes_ids"); raw != nil {
		ids := toStringMap(raw)
		if ids == nil {
			appendValidationError(errs, "settings.websearch.pes_ids must be an object")
		}
		for provider, id := range ids {
			if text, err := parseStrictString(id); err != nil || strings.TrimSpace(text) == "" {
				appendValidationError(errs, "settings.websearch.pes_ids.%s must be a non-empty string", provider)
			}
		}
	}

	rawEngines := get("settings.websearch.engines")
	if rawEngines == nil {
		return
	}

	engines := toStringMap(rawEngines)
	if engines == nil {
		appendValidationError(errs, "settings.websearch.engines must be an object")
		return
	}

	for engineName, engineVal := range engines {
		engineCfg := toStringMap(engineVal)
		if engineCfg == nil {
			appendValidationError(errs, "settings.websearch.engines.%s must be an object", engineName)
			continue
		}

		enabled := false
		if enabledVal, ok := engineCfg["enabled"]; ok {
			parsed, parseOK := parseStrictBool(enabledVal)
			if !parseOK {
				appendValidationError(errs, "settings.websearch.engines.%s.enabled must be a boolean", engineName)
			} else {
				enabled = parsed
			}
		}

		if priorityVal, ok := engineCfg["priority"]; ok {
			if priority, parseErr := parseStrictInt(priorityVal); parseErr != nil {
				appendValidationError(errs, "settings.websearch.engines.%s.priority must be an integer >= 1", engineName)
			} else if priority < 1 {
				appendValidationError(errs, "settings.websearch.engines.%s.priority must be >= 1", engineName)
			}
		}

		if endpointVal, ok := engineCfg["endpoint"]; ok {
			endpoint, parseErr := parseStrictString(endpointVal)
			if parseErr != nil || (strings.TrimSpace(endpoint) != "" && !isAbsoluteURL(endpoint)) {
				appendValidationError(errs, "settings.websearch.engines.%s.endpoint must be a valid absolute URL", engineName)
			}
		}

		if !enabled {
			continue
		}

		switch engineName {
		case engineBing:
			validateRequiredStringInMap(errs, engineCfg, "settings.websearch.engines.bing.api_key")
		case engineGoogle:
			validateRequiredStringInMap(errs, engineCfg, "settings.websearch.engines.google.api_key")
			validateRequiredStringInMap(errs, engineCfg, "settings.websearch.engines.google.cx")
		case engineSerpGoogle:
			validateRequiredStringInMap(errs, engineCfg, "settings.websearch.engines.serp_google.api_key")
		default:
			appendValidationError(errs, "settings.websearch.engines.%s is not a supported engine", engineName)
		}
	}
}

// validateDetectorsConfig validates the static category list and the mongo poll interval.
func validateDetectorsConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.detectors.poll_interval_seconds", 1, errs)

	if raw := get("settings.detectors.categories"); raw != nil {
		if _, err := detectorDao.ParseCategories(raw); err != nil {
			appendValidationError(errs, "settings.detectors.categories: %v", err)
		}
	}
}

// validateWebConfig validates the CORS host allowlist.
func validateWebConfig(get configGetter, errs *[]string) {
	raw := get("settings.web.cors_allowed_hosts")
	if raw == nil {
		return
	}

	hosts, ok := toStringSlice(raw)
	if !ok {
		appendValidationError(errs, "settings.web.cors_allowed_hosts must be a list of strings")
		return
	}
	for _, host := range hosts {
		if !isValidHost(host) {
			appendValidationError(errs, "settings.web.cors_allowed_hosts entry %q must be a valid host", host)
		}
	}
}

// validateMCPConfig validates the MCP endpoint toggle.
func validateMCPConfig(get configGetter, errs *[]string) {
	validateOptionalBool(get, "settings.mcp.enabled", errs)
}

// validateOptionalBool validates an optionally configured boolean key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalBool(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, ok := parseStrictBool(raw); !ok {
		appendValidationError(errs, "%s must be a boolean", key)
	}
}

// validateOptionalIntMin validates an optionally configured integer key with a minimum constraint.
// It accepts a getter, the key, a minimum value, and an error collector pointer and appends validation errors.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateRequiredStringInMap validates that a required map field is a non-empty string.
// It accepts an error collector pointer, a source map, and the field path label, and appends validation errors.
func validateRequiredStringInMap(errs *[]string, source map[string]any, fieldPath string) {
	parts := strings.Split(fieldPath, ".")
	key := parts[len(parts)-1]
	value, ok := source[key]
	if !ok {
		appendValidationError(errs, "%s is required", fieldPath)
		return
	}

	text, parseErr := parseStrictString(value)
	if parseErr != nil || strings.TrimSpace(text) == "" {
		appendValidationError(errs, "%s must be a non-empty string", fieldPath)
	}
}

// parseStrictBool parses a value as boolean using strict conversion rules.
// It accepts a raw value and returns the parsed boolean and whether parsing succeeded.
func parseStrictBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		if math.Trunc(v) != v {
			return false, false
		}
		return int64(v) != 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false, false
		}
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// parseStrictInt parses a value as a strict integer.
// It accepts a raw value and returns the parsed int and an error when parsing fails.
func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictString parses a value as a strict string.
// It accepts a raw value and returns the parsed string and an error when parsing fails.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

// isValidHost validates a host string without scheme or path components.
// It accepts a host string and returns true when the host is syntactically acceptable.
func isValidHost(host string) bool {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return false
	}
	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "/") {
		return false
	}
	return true
}

// appendValidationError appends a formatted validation error to the collector.
// It accepts an error slice pointer, a format string, and format arguments, and has no return value.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}

// validateOptionalString validates that an optionally configured key is a string.
func validateOptionalString(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, err := parseStrictString(raw); err != nil {
		appendValidationError(errs, "%s must be a string", key)
	}
}

// validateRequiredString validates that key is set to a non-empty string.
func validateRequiredString(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		appendValidationError(errs, "%s is required", key)
		return
	}

	text, err := parseStrictString(raw)
	if err != nil || strings.TrimSpace(text) == "" {
		appendValidationError(errs, "%s must be a non-empty string", key)
	}
}

// validateOptionalStringList validates that an optionally configured key is a list of strings.
func validateOptionalStringList(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, ok := toStringSlice(raw); !ok {
		appendValidationError(errs, "%s must be a list of strings", key)
	}
}

// isAbsoluteURL reports whether raw parses with both scheme and host.
func isAbsoluteURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

// toStringMap converts yaml-decoded objects into map[string]any.
// It returns nil when value is not an object.
func toStringMap(value any) map[string]any {
	// cast decodes a string as JSON; config objects never arrive as text
	if _, isText := value.(string); isText {
		return nil
	}
	out, err := cast.ToStringMapE(value)
	if err != nil {
		return nil
	}
	return out
}

// toStringSlice converts yaml-decoded lists into []string.
// Scalar entries such as unquoted numeric PES ids are stringified.
func toStringSlice(value any) ([]string, bool) {
	// cast splits a bare string on whitespace; require an actual list
	if _, isText := value.(string); isText {
		return nil, false
	}
	out, err := cast.ToStringSliceE(value)
	if err != nil {
		return nil, false
	}
	return out, true
}
