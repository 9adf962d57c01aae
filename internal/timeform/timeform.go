// Package timeform normalizes the time-of-day shapes accepted at the
// boundary into the canonical "HH:MM:SS" form. No other package reasons
// about raw time strings.
package timeform

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimeFormat reports an unparsable or out-of-range time value.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// Canonical is the persisted and compared time-of-day layout.
const Canonical = "15:04:05"

// datetime layouts tried, most specific first. Offsets are parsed but
// discarded: values are taken as local wall-clock time, no conversion.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Normalize converts a raw time-of-day or date-time value to "HH:MM:SS".
// Accepted shapes: "HH:MM:SS", "HH:MM" (seconds default to 00), a
// single-digit hour, a fractional-second suffix (truncated, not rounded),
// and full date-time values whose date and offset are dropped. Anything
// else, or any out-of-range component, returns ErrInvalidTimeFormat.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidTimeFormat
	}

	if looksLikeDatetime(s) {
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(Canonical), nil
			}
		}
		return "", ErrInvalidTimeFormat
	}

	parts := strings.Split(s, ":")
	var hh, mm, ss string
	switch len(parts) {
	case 2:
		hh, mm, ss = parts[0], parts[1], "00"
	case 3:
		hh, mm, ss = parts[0], parts[1], parts[2]
		// A fractional suffix is only declared on the seconds component;
		// it is truncated to whole seconds, not rounded.
		if dot := strings.IndexByte(ss, '.'); dot >= 0 {
			frac := ss[dot+1:]
			if frac == "" || !allDigits(frac) {
				return "", ErrInvalidTimeFormat
			}
			ss = ss[:dot]
		}
	default:
		return "", ErrInvalidTimeFormat
	}

	h, ok := component(hh, 1, 2)
	if !ok || h > 23 {
		return "", ErrInvalidTimeFormat
	}
	m, ok := component(mm, 2, 2)
	if !ok || m > 59 {
		return "", ErrInvalidTimeFormat
	}
	sec, ok := component(ss, 2, 2)
	if !ok || sec > 59 {
		return "", ErrInvalidTimeFormat
	}

	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec), nil
}

// SecondOfDay converts a canonical "HH:MM:SS" value to seconds since
// midnight for window comparisons. The input must already be canonical.
func SecondOfDay(canonical string) (int, error) {
	if len(canonical) != 8 || canonical[2] != ':' || canonical[5] != ':' {
		return 0, ErrInvalidTimeFormat
	}
	h, hok := component(canonical[0:2], 2, 2)
	m, mok := component(canonical[3:5], 2, 2)
	s, sok := component(canonical[6:8], 2, 2)
	if !hok || !mok || !sok || h > 23 || m > 59 || s > 59 {
		return 0, ErrInvalidTimeFormat
	}
	return h*3600 + m*60 + s, nil
}

func looksLikeDatetime(s string) bool {
	if strings.ContainsRune(s, 'T') {
		return true
	}
	// "YYYY-MM-DD hh:mm:ss" style.
	return strings.ContainsRune(s, '-') && strings.ContainsRune(s, ' ')
}

func component(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen || !allDigits(s) {
		return 0, false
	}
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
