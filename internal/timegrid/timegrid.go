// Package timegrid defines the canonical ordered set of bookable time
// labels for one calendar day and the conversions between a 12-hour
// label and its minute-of-day value. Labels do not sort correctly as
// strings ("10:00 A.M." < "9:00 A.M." lexically), so every comparison
// anywhere in the application must go through ToMinutes or IndexOf.
package timegrid

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidTimeLabel is returned when a string does not match the
// expected "H:MM A.M./P.M." pattern. Labels are never silently coerced.
var ErrInvalidTimeLabel = errors.New("invalid time label")

// slots lists every bookable half-hour label of a day in order. The
// zero-padded "A.M."/"P.M." form is the canonical rendering; parsing is
// lenient about padding and dots.
var slots = []string{
	"07:30 A.M.", "08:00 A.M.", "08:30 A.M.", "09:00 A.M.",
	"09:30 A.M.", "10:00 A.M.", "10:30 A.M.", "11:00 A.M.",
	"11:30 A.M.", "12:00 P.M.", "12:30 P.M.", "01:00 P.M.",
	"01:30 P.M.", "02:00 P.M.", "02:30 P.M.", "03:00 P.M.",
	"03:30 P.M.", "04:00 P.M.", "04:30 P.M.", "05:00 P.M.",
	"05:30 P.M.", "06:00 P.M.", "06:30 P.M.", "07:00 P.M.",
	"07:30 P.M.", "08:00 P.M.", "08:30 P.M.", "09:00 P.M.",
}

// labelPattern accepts "7:30 AM", "07:30 A.M.", "11:00 pm" and the
// like: hour 1-12, two-digit minute, AM/PM marker with optional dots.
var labelPattern = regexp.MustCompile(`^(1[0-2]|0?[1-9]):([0-5][0-9])\s*(AM|PM)$`)

// index maps the normalized form of each slot label to its position.
var index = func() map[string]int {
	m := make(map[string]int, len(slots))
	for i, s := range slots {
		m[normalize(s)] = i
	}
	return m
}()

// normalize reduces a label to the uppercase, dot-free, zero-padded
// form matched by labelPattern and keyed in the index, e.g. both
// "07:30 a.m." and "7:30 AM" become "07:30 AM".
func normalize(label string) string {
	s := strings.ToUpper(strings.TrimSpace(label))
	s = strings.ReplaceAll(s, ".", "")
	if strings.Index(s, ":") == 1 {
		s = "0" + s
	}
	return s
}

// Slots returns the ordered grid labels. The result is a copy; callers
// may modify it freely.
func Slots() []string {
	out := make([]string, len(slots))
	copy(out, slots)
	return out
}

// Size returns the number of slots in the grid.
func Size() int { return len(slots) }

// IndexOf returns the position of label in the grid, or -1 when the
// label is not a grid slot. Padding and dot variations are accepted.
func IndexOf(label string) int {
	if i, ok := index[normalize(label)]; ok {
		return i
	}
	return -1
}

// ToMinutes parses a 12-hour label and returns minutes since midnight.
// Noon and midnight follow clock convention: 12:xx A.M. maps to hour 0,
// 12:xx P.M. stays hour 12. Returns ErrInvalidTimeLabel when the label
// does not match the expected pattern.
func ToMinutes(label string) (int, error) {
	m := labelPattern.FindStringSubmatch(normalize(label))
	if m == nil {
		return 0, ErrInvalidTimeLabel
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	switch {
	case m[3] == "AM" && hour == 12:
		hour = 0
	case m[3] == "PM" && hour != 12:
		hour += 12
	}
	return hour*60 + minute, nil
}

// Canonical returns the grid's rendering of label. It fails with
// ErrInvalidTimeLabel for anything that is not a grid slot, which also
// rejects well-formed times that fall outside the bookable day.
func Canonical(label string) (string, error) {
	i := IndexOf(label)
	if i < 0 {
		return "", ErrInvalidTimeLabel
	}
	return slots[i], nil
}
