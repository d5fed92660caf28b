package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var ttlPattern = regexp.MustCompile(`^(\d+)(ms|s|m|h|d)$`)

// ParseTTL parses expiry strings of the form <int><ms|s|m|h|d>, e.g. "15m"
// or "7d". The day unit is why time.ParseDuration is not used here.
func ParseTTL(s string) (time.Duration, error) {
	match := ttlPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, fmt.Errorf("invalid time format: %q", s)
	}

	value, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time value: %q", s)
	}

	switch match[2] {
	case "ms":
		return time.Duration(value) * time.Millisecond, nil
	case "s":
		return time.Duration(value) * time.Second, nil
	case "m":
		return time.Duration(value) * time.Minute, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	case "d":
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown time unit: %q", s)
	}
}
