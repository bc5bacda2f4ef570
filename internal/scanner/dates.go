package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order against ParseDateString's input. Formats
// are listed most-specific first so a full timestamp isn't mistaken for a
// bare year.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"2006-01",
}

// ParseDateString parses the handful of ID3/MusicBrainz release-date shapes
// tag readers hand back: a bare year, year-month, full date, or a full
// timestamp with a 'Z' or +hhmm/-hhmm offset (T5). Returns ok=false for
// anything else, e.g. free-text like "Some point in the 21st Century".
func ParseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if year, err := strconv.Atoi(s); err == nil && len(s) == 4 {
		if year < 1000 || year > 9999 {
			return time.Time{}, false
		}
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ReleaseYear extracts just the year from a release date string, for
// populating Album.ReleaseYear during ingestion.
func ReleaseYear(s string) (int, bool) {
	t, ok := ParseDateString(s)
	if !ok {
		return 0, false
	}
	return t.Year(), true
}

// FormatReleaseDate renders a parsed date back out as an ISO-ish string,
// used when an ArtworkRef/TrackRef needs to round-trip a ReleaseDate field
// that was only ever seen as a parsed time.Time internally.
func FormatReleaseDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), t.Month(), t.Day())
}
