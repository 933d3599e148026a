// Package schedule implements the schedule extraction and layout engine:
// it turns a loosely structured 2-D grid of text cells into a normalized
// program (halls and time-boxed sessions), lays sessions out on a
// time-by-hall matrix, and detects time conflicts between session sets.
//
// The package is pure: no I/O, no goroutines, no shared mutable state.
// Every produced value is immutable after construction, so independent
// parses may run concurrently without coordination.
package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

// minStartMinutes is the floor (09:00) below which clock values are rejected.
// The source documents reuse early-morning slots for unrelated header
// content; accepting them would corrupt hall detection.
const minStartMinutes = 9 * 60

var (
	clockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
	canonRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// NormalizeTime parses a free-form time string ("H:MM", "HH:MM", or
// "HH:MM:SS", surrounding whitespace allowed) into the canonical form used
// everywhere else in this package: hour without a leading zero, minutes
// always two digits. The empty string signals "not a time" — returned for
// malformed input, a zero hour, or any value before the 09:00 floor.
func NormalizeTime(v string) string {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return ""
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if hh == 0 || hh*60+mm < minStartMinutes {
		return ""
	}
	return strconv.Itoa(hh) + ":" + m[2]
}

// Minutes converts a canonical "H:MM" string to minutes since midnight.
// Returns -1 for anything that is not in canonical form, so comparisons
// against real times (all ≥ 540) fail safely.
func Minutes(hhmm string) int {
	m := canonRe.FindStringSubmatch(hhmm)
	if m == nil {
		return -1
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return hh*60 + mm
}
