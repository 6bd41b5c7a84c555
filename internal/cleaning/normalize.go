//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cleaning

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	numericPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	datePattern    = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`)
)

// NormalizeLocation canonicalizes a district name the same way
// staging.normalize_location does: NFKC, whitespace to spaces, uppercase,
// keep only A-Z, 0-9 and space, collapse spaces and trim.
// NormalizeLocation(NormalizeLocation(s)) == NormalizeLocation(s).
func NormalizeLocation(s string) string {
	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToUpper(s) {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsNumeric reports whether v would cast to NUMERIC (surrounding
// whitespace allowed). NaN and infinities are not numeric.
func IsNumeric(v string) bool {
	return numericPattern.MatchString(strings.TrimSpace(v))
}

// ParseDate mirrors staging.try_date: YYYY-MM-DD with a valid calendar day.
// A time part after a space or T is ignored.
func ParseDate(v string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
