package timegrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinutes(t *testing.T) {
	cases := []struct {
		label string
		want  int
	}{
		{"07:30 A.M.", 7*60 + 30},
		{"7:30 AM", 7*60 + 30},
		{"12:00 P.M.", 12 * 60},
		{"12:30 P.M.", 12*60 + 30},
		{"12:00 A.M.", 0},
		{"01:00 P.M.", 13 * 60},
		{"9:00 p.m.", 21 * 60},
	}
	for _, tc := range cases {
		got, err := ToMinutes(tc.label)
		require.NoError(t, err, tc.label)
		assert.Equal(t, tc.want, got, tc.label)
	}
}

func TestToMinutesRejectsMalformedLabels(t *testing.T) {
	for _, label := range []string{
		"", "9:00", "13:00 P.M.", "09:60 A.M.", "0:30 A.M.",
		"nine o'clock", "09:00AMPM", "9:0 AM",
	} {
		_, err := ToMinutes(label)
		assert.ErrorIs(t, err, ErrInvalidTimeLabel, label)
	}
}

// Grid order and minute order must agree everywhere, otherwise interval
// comparisons and end-time narrowing disagree about "later".
func TestGridOrderMatchesMinuteOrder(t *testing.T) {
	labels := Slots()
	prev := -1
	for i, label := range labels {
		min, err := ToMinutes(label)
		require.NoError(t, err, label)
		assert.Greater(t, min, prev, "slot %d (%s) not strictly later", i, label)
		assert.Equal(t, i, IndexOf(label))
		prev = min
	}
}

func TestGridIsHalfHourAligned(t *testing.T) {
	for _, label := range Slots() {
		min, err := ToMinutes(label)
		require.NoError(t, err)
		assert.Zero(t, min%30, label)
	}
}

func TestIndexOfUnknownLabel(t *testing.T) {
	// Well-formed but outside the bookable day.
	assert.Equal(t, -1, IndexOf("06:00 A.M."))
	assert.Equal(t, -1, IndexOf("10:00 P.M."))
	assert.Equal(t, -1, IndexOf("garbage"))
}

func TestCanonical(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"9:00 am", "09:00 A.M."},
		{"9:00 A.M.", "09:00 A.M."},
		{"1:00 P.M.", "01:00 P.M."},
		{"7:30 AM", "07:30 A.M."},
		{"09:00 A.M.", "09:00 A.M."},
	}
	for _, tc := range cases {
		got, err := Canonical(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := Canonical("06:45 A.M.")
	assert.ErrorIs(t, err, ErrInvalidTimeLabel)
}

// Unpadded hours must resolve to the same slot as the canonical
// zero-padded rendering; the booking flow receives both forms.
func TestIndexOfAcceptsUnpaddedHour(t *testing.T) {
	assert.Equal(t, IndexOf("09:00 A.M."), IndexOf("9:00 A.M."))
	assert.Equal(t, IndexOf("01:00 P.M."), IndexOf("1:00 P.M."))
	assert.NotEqual(t, -1, IndexOf("9:00 A.M."))
}
