package payload

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// CleanTicketNumber keeps only the digits of raw. If none remain, the
// trimmed raw value is returned so that non-numeric numbers still group.
func CleanTicketNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return strings.TrimSpace(raw)
	}
	return b.String()
}

// Priority maps free-form priorities to Syncro's labels.
func Priority(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "urgent":
		return "0 Urgent"
	case "high":
		return "1 High"
	case "low":
		return "3 Low"
	default:
		return "2 Normal"
	}
}

// Visibility reports whether a labor entry should be hidden. The second
// result is false when raw expresses no preference.
func Visibility(raw string) (hidden bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "private", "internal", "hidden":
		return true, true
	case "public", "customer", "external":
		return false, true
	}
	return false, false
}

// Billable reads a billable status. The second result is false when raw
// expresses no preference.
func Billable(raw string) (billable bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "billable", "billed":
		return true, true
	case "non-billable", "non billable", "not billable", "unbillable":
		return false, true
	}
	return false, false
}

// ParseDuration reads a minute count such as "30" or "30.0". Fractions are
// truncated; the result must be positive.
func ParseDuration(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: duration is empty", ErrInvalid)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q is not a number", ErrInvalid, raw)
	}
	if f < 1 || f > 1<<31 {
		return 0, fmt.Errorf("%w: duration %q must be positive", ErrInvalid, raw)
	}
	return int(f), nil
}

// SequenceNumber reads a labor sequence value; blanks and garbage sort as 0.
func SequenceNumber(raw string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f > 1<<31 || f < -(1<<31) {
		return 0
	}
	return int(f)
}

// CompareTicketNumbers orders ticket numbers numerically when both are
// numeric and lexically otherwise.
func CompareTicketNumbers(a, b string) int {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
