// internal/domain/models/timeparse.go
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// timeLayouts are the date/time encodings observed from the backend, most
// specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime converts a decoded JSON value into a UTC time.
// Strings are tried against timeLayouts; numbers are Unix milliseconds.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
		return time.Time{}, false
	case float64:
		if t <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)).UTC(), true
	case json.Number:
		ms, err := t.Int64()
		if err != nil || ms <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// ParseWallTime is ParseTime for strings that carry a UTC offset, except the
// date and clock are kept as written and labelled UTC. It yields the
// calendar date the backend recorded rather than the UTC instant.
func ParseWallTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return ParseTime(v)
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			y, mo, d := ts.Date()
			h, mi, sec := ts.Clock()
			return time.Date(y, mo, d, h, mi, sec, ts.Nanosecond(), time.UTC), true
		}
	}
	return time.Time{}, false
}

// HasClock reports whether a raw date string carries a time of day, as
// opposed to a bare calendar date.
func HasClock(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	return len(s) > len("2006-01-02") && (strings.Contains(s, "T") || strings.Contains(s, " "))
}
