package gitlib

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidTimeFormat is returned when a time string cannot be parsed.
	ErrInvalidTimeFormat = errors.New("cannot parse time")
	// ErrParentNotFound is returned when the first parent of a commit cannot be loaded.
	ErrParentNotFound = errors.New("parent commit not found")
)

// ParseTime parses a time string in various formats:
// - Duration relative to now (e.g. "24h")
// - RFC3339 (e.g. "2024-01-01T00:00:00Z")
// - Date only (e.g. "2024-01-01").
func ParseTime(s string) (time.Time, error) {
	return parseTimeAt(s, time.Now())
}

func parseTimeAt(s string, now time.Time) (time.Time, error) {
	d, durationErr := time.ParseDuration(s)
	if durationErr == nil {
		return now.Add(-d), nil
	}

	parsedTime, rfc3339Err := time.Parse(time.RFC3339, s)
	if rfc3339Err == nil {
		return parsedTime, nil
	}

	parsedTime, dateOnlyErr := time.Parse(time.DateOnly, s)
	if dateOnlyErr == nil {
		return parsedTime, nil
	}

	return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimeFormat, s)
}
