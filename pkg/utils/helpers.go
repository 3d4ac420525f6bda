package utils

import "time"

// ParseDurationOr safely parses a duration string like "5m", falling back
// when it is empty or malformed.
func ParseDurationOr(d string, fallback time.Duration) time.Duration {
	if d == "" {
		return fallback
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return fallback
	}
	return duration
}
