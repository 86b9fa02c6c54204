package sources

import (
	"strings"
	"sync"
	"time"
)

var (
	easternOnce sync.Once
	eastern     *time.Location
)

// Eastern returns the US/Eastern location the wires publish in. Falls back
// to UTC if the timezone database is unavailable.
func Eastern() *time.Location {
	easternOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
		eastern = loc
	})
	return eastern
}

// ParseSourceTime tries each layout in order against the (trimmed) date
// string, interpreting the result in US/Eastern. A trailing " ET" marker is
// stripped first since Go layouts cannot express it.
func ParseSourceTime(value string, layouts ...string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	value = strings.TrimSuffix(value, " ET")
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, Eastern()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FallbackNow is the publication timestamp used when a source date cannot be
// parsed: capture time in Eastern, truncated to the minute. Downstream
// sorting only needs approximate recency, so this is an accepted
// approximation rather than a hard failure.
func FallbackNow() time.Time {
	return time.Now().In(Eastern()).Truncate(time.Minute)
}
