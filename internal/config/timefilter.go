package config

import (
	"fmt"
	"strconv"
	"time"
	"unicode"

	"github.com/sh1zen/wisu/internal/filter"
)

// Relative units. Months and years are fixed spans, not calendar
// arithmetic.
const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

var dateLayouts = []string{"02-01-2006", "02/01/2006", "2006-01-02"}

// ParseTimeSpec interprets a modification-time filter:
//
//	7d          modified within the last 7 days
//	<7d         modified more than 7 days ago
//	>01-06-2024 modified on or after the date
//	<01-06-2024 modified strictly before the date
//
// Relative specs are a count plus one of s, m, h, d, w, M, y.
// Absolute dates accept dd-mm-yyyy, dd/mm/yyyy and yyyy-mm-dd, at
// local midnight. Without a prefix the filter keeps newer entries.
func ParseTimeSpec(spec string, now time.Time) (filter.TimeRange, error) {
	rest := spec
	older := false
	switch {
	case len(rest) > 0 && rest[0] == '<':
		older = true
		rest = rest[1:]
	case len(rest) > 0 && rest[0] == '>':
		rest = rest[1:]
	}
	if rest == "" {
		return filter.TimeRange{}, fmt.Errorf("empty time filter %q", spec)
	}

	cut, err := parseCutoff(rest, now)
	if err != nil {
		return filter.TimeRange{}, fmt.Errorf("time filter %q: %w", spec, err)
	}
	if older {
		return filter.TimeRange{Before: cut}, nil
	}
	return filter.TimeRange{After: cut}, nil
}

func parseCutoff(s string, now time.Time) (time.Time, error) {
	if isRelative(s) {
		n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("bad count %q", s[:len(s)-1])
		}
		var unit time.Duration
		switch s[len(s)-1] {
		case 's':
			unit = time.Second
		case 'm':
			unit = time.Minute
		case 'h':
			unit = time.Hour
		case 'd':
			unit = day
		case 'w':
			unit = week
		case 'M':
			unit = month
		case 'y':
			unit = year
		default:
			return time.Time{}, fmt.Errorf("unknown unit %q", s[len(s)-1:])
		}
		return now.Add(-time.Duration(n) * unit), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// isRelative matches one or more digits followed by a single unit
// letter.
func isRelative(s string) bool {
	if len(s) < 2 {
		return false
	}
	for _, r := range s[:len(s)-1] {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	last := s[len(s)-1]
	return last < '0' || last > '9'
}
