package domain

import (
	"net/http"
	"strings"
	"time"
)

// CalendarDateLayout renders a date the way the add endpoint reports it, e.g. "Mon Oct 19 2026".
const CalendarDateLayout = "Mon Jan 02 2006"

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	http.TimeFormat,
	time.RFC1123,
	time.RFC1123Z,
	CalendarDateLayout,
}

// ParseDate accepts the date shapes clients send: ISO calendar dates,
// RFC 3339 timestamps, HTTP dates and the calendar text the API emits.
// Values without a zone are read as UTC.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return NormalizeDate(t), true
		}
	}
	return time.Time{}, false
}

// NormalizeDate drops sub-second precision and converts to UTC. Stored dates
// go through this so range bounds and rendered text agree.
func NormalizeDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// FormatCalendarDate renders t as calendar text.
func FormatCalendarDate(t time.Time) string {
	return t.UTC().Format(CalendarDateLayout)
}

// FormatHTTPDate renders t in the HTTP header date format.
func FormatHTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
