package schedule

import (
	"time"

	"github.com/labmate/labmate/internal/model"
	"github.com/labmate/labmate/internal/timegrid"
)

// State describes where a reservation is in its lifetime. Active
// reservations occupy their slot; once the window has passed they are
// Expired and the sweep removes them from the store (Purged). There is
// no cancelled state: user cancellation deletes the record outright.
type State int

const (
	StateActive State = iota
	StateExpired
	StatePurged
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateExpired:
		return "EXPIRED"
	case StatePurged:
		return "PURGED"
	default:
		return "UNKNOWN"
	}
}

// ExpiresAt returns the instant the reservation's window ends in loc:
// the reservation's calendar day with the hour and minute overwritten
// from the parsed end time. The year/month/day are read from the stored
// value without zone conversion, so a DATE scanned at UTC midnight and
// a date constructed at local midnight both yield the same calendar day.
func ExpiresAt(r model.Reservation, loc *time.Location) (time.Time, error) {
	min, err := timegrid.ToMinutes(r.EndTime)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := r.ReservationDate.Date()
	return time.Date(y, m, d, min/60, min%60, 0, 0, loc), nil
}

// IsExpired reports whether the reservation's window has fully passed
// at now. A reservation ending exactly at now counts as expired; the
// interval is half-open, so the seat is already free. Reservations with
// an unparsable end time are never reported expired, leaving them in
// place for manual inspection instead of silently deleting them.
func IsExpired(r model.Reservation, now time.Time, loc *time.Location) bool {
	exp, err := ExpiresAt(r, loc)
	if err != nil {
		return false
	}
	return !exp.After(now)
}

// StateAt returns the reservation's lifecycle state at now. Purged is
// never returned here: a purged reservation no longer exists in the
// store to be asked about.
func StateAt(r model.Reservation, now time.Time, loc *time.Location) State {
	if IsExpired(r, now, loc) {
		return StateExpired
	}
	return StateActive
}
