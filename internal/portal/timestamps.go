package portal

import (
	"errors"
	"strings"
	"time"
)

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// The backend serializes LocalDateTime without an offset.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a wire timestamp. Values without an offset are read
// in loc (time.Local when nil). Failures are reported as *ParseError.
func ParseTimestamp(field, raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, &ParseError{Field: field, Value: raw, Err: errors.New("empty timestamp")}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.In(loc), nil
		}
	}
	var lastErr error
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &ParseError{Field: field, Value: raw, Err: lastErr}
}
