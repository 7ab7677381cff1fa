package task

import (
	"slices"
	"strings"
	"time"
)

// SupportedTypes is the allow-set accepted at the boundary. Every entry has a
// handler in DefaultHandlers.
var SupportedTypes = []string{"foo", "bar", "baz"}

func ValidateType(taskType string) (string, error) {
	trimmed := strings.TrimSpace(taskType)
	if !slices.Contains(SupportedTypes, trimmed) {
		return "", ErrUnsupportedType
	}
	return trimmed, nil
}

// ParseStartAt parses an RFC3339 timestamp and converts it to UTC.
func ParseStartAt(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidStartAt
	}
	return t.UTC(), nil
}
