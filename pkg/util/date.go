package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTime tries RFC3339, plain dates (2006-01-02) and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseQuarter turns a label like "2019Q3" (also "2019-Q3", "Q3 2019") into
// the last calendar day of that quarter, UTC.
func ParseQuarter(label string) (time.Time, error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	s = strings.NewReplacer("-", "", " ", "", "_", "").Replace(s)

	var yearPart, qPart string
	switch {
	case strings.HasPrefix(s, "Q") && len(s) == 6:
		qPart, yearPart = s[1:2], s[2:]
	case len(s) == 6 && s[4] == 'Q':
		yearPart, qPart = s[:4], s[5:]
	default:
		return time.Time{}, fmt.Errorf("invalid quarter label %q", label)
	}

	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid quarter year %q: %w", label, err)
	}
	q, err := strconv.Atoi(qPart)
	if err != nil || q < 1 || q > 4 {
		return time.Time{}, fmt.Errorf("invalid quarter number %q", label)
	}
	return QuarterEnd(year, q), nil
}

// QuarterEnd returns the last day of quarter q (1-4) of year.
func QuarterEnd(year, q int) time.Time {
	firstOfNext := time.Date(year, time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1)
}

// QuarterLabel formats t as "2006Q1".
func QuarterLabel(t time.Time) string {
	q := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("%dQ%d", t.Year(), q)
}

// Days converts a whole number of days into a duration.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
