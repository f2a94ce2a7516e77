package messaging

import (
	"strings"
	"time"
)

// Timestamp layouts seen on the wire, most common first. Naive layouts
// are assumed UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02_150405",
}

// ParseTimestamp parses a bridge timestamp in any of the known formats
// and normalizes it to UTC. The second return is false when no layout
// matched; callers fall back to the current time.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
