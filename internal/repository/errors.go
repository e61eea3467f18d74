// Package repository defines sentinel errors shared across the data
// access layer. Higher layers compare against these with errors.Is to
// distinguish failure scenarios: the service translates ErrDuplicateSlot
// into a seat conflict, handlers translate not-found sentinels into 404s.
package repository

import "errors"

// ErrDuplicateSlot is returned when an insert trips the compound unique
// key on (laboratory_room, seat_number, reservation_date, start_time).
// This is the store-level backstop for concurrent bookings that both
// passed the in-memory availability check.
var ErrDuplicateSlot = errors.New("duplicate reservation slot")

// ErrEmailExists is returned when registering a user with an email that
// is already taken.
var ErrEmailExists = errors.New("email already exists")
