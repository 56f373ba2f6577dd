package mcp

import (
	"encoding/json"
	"regexp"
)

const (
	httpLogBodyLimit = 4096
	redactedValue    = "[redacted]"
)

// subscriptionPattern matches the subscription segment of an ARM resource id.
var subscriptionPattern = regexp.MustCompile(`(?i)(/subscriptions/)[^/"]+`)

// redactMCPBody masks subscription ids inside MCP payloads.
func redactMCPBody(raw string) string {
	if raw == "" {
		return raw
	}
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return redactSubscriptions(raw)
	}
	out, err := json.Marshal(redactMCPValue(payload))
	if err != nil {
		return redactSubscriptions(raw)
	}
	return string(out)
}

func redactMCPValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		output := make(map[string]any, len(v))
		for key, item := range v {
			output[key] = redactMCPValue(item)
		}
		return output
	case []any:
		result := make([]any, 0, len(v))
		for _, item := range v {
			result = append(result, redactMCPValue(item))
		}
		return result
	case string:
		return redactSubscriptions(v)
	default:
		return value
	}
}

func redactSubscriptions(s string) string {
	return subscriptionPattern.ReplaceAllString(s, "${1}"+redactedValue)
}

// redactHookPayload serializes a hook payload for logging with subscription ids masked.
func redactHookPayload(payload any) string {
	if payload == nil {
		return ""
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	body, _ := truncateForLog(raw, httpLogBodyLimit)
	return redactMCPBody(body)
}
