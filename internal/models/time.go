package models

import (
	"strings"
	"time"
)

// TimeLayout is the wire format of every timestamp: UTC, millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// accepted input layouts, tried in order
var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a date-time string. Values without a zone are read as UTC.
// The result is UTC and truncated to milliseconds so that it survives a
// FormatTime round trip unchanged.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Millis(t), true
		}
	}
	return time.Time{}, false
}

// Millis normalizes t to UTC with millisecond precision.
func Millis(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
