package service

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownRoom is returned when the requested room key resolves to no
// laboratory.
var ErrUnknownRoom = errors.New("unknown laboratory room")

// ErrUnknownUser is returned when the booking owner id resolves to no
// user.
var ErrUnknownUser = errors.New("unknown user")

// ErrNotFound is returned by cancellation or lookup of a nonexistent
// reservation id.
var ErrNotFound = errors.New("reservation not found")

// ErrSeatOutOfRange is returned when the seat number is below 1 or
// above the laboratory's capacity.
var ErrSeatOutOfRange = errors.New("seat number out of range")

// SeatConflictError reports that a requested interval overlaps an
// existing reservation. It carries the full slot coordinates so callers
// can render a precise message.
type SeatConflictError struct {
	Room       string
	SeatNumber int
	Date       time.Time
	StartTime  string
	EndTime    string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %d in %s is already reserved on %s between %s and %s",
		e.SeatNumber, e.Room, e.Date.Format("2006-01-02"), e.StartTime, e.EndTime)
}
