// Package schedule holds the reservation scheduling engine: conflict
// detection over half-open time intervals, the reservation lifecycle,
// and the recurring sweep that evicts expired reservations. All time
// comparisons run in minute-of-day space via the timegrid package.
package schedule

import (
	"errors"

	"github.com/labmate/labmate/internal/model"
	"github.com/labmate/labmate/internal/timegrid"
)

// ErrInvalidTimeRange is returned when a requested end time does not
// fall strictly after the start time.
var ErrInvalidTimeRange = errors.New("end time must be after start time")

// overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back intervals do not overlap.
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// IsAvailable reports whether the candidate [startTime, endTime) window
// on seatNumber is free of conflicts. The existing slice must already
// be scoped to the candidate's room and date; reservations for other
// seats are ignored. Stored reservations whose labels no longer parse
// are skipped rather than treated as blocking.
//
// This check is the fast path that produces precise error messages; the
// store's unique key on (room, seat, date, start) remains the
// correctness backstop for concurrent requests.
func IsAvailable(seatNumber int, startTime, endTime string, existing []model.Reservation) (bool, error) {
	startMin, err := timegrid.ToMinutes(startTime)
	if err != nil {
		return false, err
	}
	endMin, err := timegrid.ToMinutes(endTime)
	if err != nil {
		return false, err
	}
	if endMin <= startMin {
		return false, ErrInvalidTimeRange
	}
	for _, r := range existing {
		if r.SeatNumber != seatNumber {
			continue
		}
		otherStart, err := timegrid.ToMinutes(r.StartTime)
		if err != nil {
			continue
		}
		otherEnd, err := timegrid.ToMinutes(r.EndTime)
		if err != nil {
			continue
		}
		if overlaps(startMin, endMin, otherStart, otherEnd) {
			return false, nil
		}
	}
	return true, nil
}

// ValidEndTimes returns the end-time labels a user may still pick after
// choosing startTime on seatNumber. The choices run from the slot right
// after the start up to and including the start of the next reservation
// on that seat (the boundary), or to the end of the grid when no later
// reservation exists. An empty result is a valid terminal state, not an
// error: the very next slot is already taken.
func ValidEndTimes(seatNumber int, startTime string, existing []model.Reservation) ([]string, error) {
	startIdx := timegrid.IndexOf(startTime)
	if startIdx < 0 {
		return nil, timegrid.ErrInvalidTimeLabel
	}
	slots := timegrid.Slots()

	// Earliest later reservation on the same seat bounds the choices.
	boundary := len(slots)
	for _, r := range existing {
		if r.SeatNumber != seatNumber {
			continue
		}
		idx := timegrid.IndexOf(r.StartTime)
		if idx > startIdx && idx < boundary {
			boundary = idx
		}
	}

	out := make([]string, 0, boundary-startIdx)
	for i := startIdx + 1; i <= boundary && i < len(slots); i++ {
		out = append(out, slots[i])
	}
	return out, nil
}
