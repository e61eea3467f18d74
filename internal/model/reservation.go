package model

import "time"

// Reservation records one booked seat in a laboratory for a half-hour
// aligned time window on a single calendar day.
//
// Fields:
//  ID              – opaque identifier assigned at creation (UUID).
//  UserID          – user who owns the reservation. Ownership is always
//                    recorded; IsAnonymous only controls display.
//  StudentName     – display name snapshot taken at booking time, so the
//                    listing survives later edits or deletion of the user.
//  LaboratoryRoom  – room key of the laboratory (denormalized).
//  SeatNumber      – bookable seat position, 1..capacity of the laboratory.
//  IsAnonymous     – hide the owner's name when listing the reservation.
//  BookingDate     – when the reservation record was created (audit field).
//  ReservationDate – calendar day the seat is occupied. Date-only; the
//                    time of day lives in StartTime/EndTime.
//  StartTime       – 12-hour grid label, e.g. "09:00 A.M.".
//  EndTime         – 12-hour grid label; the interval is half-open, the
//                    seat is free again at EndTime.
type Reservation struct {
	ID              string    // reservations.id
	UserID          uint64    // reservations.user_id
	StudentName     string    // reservations.student_name
	LaboratoryRoom  string    // reservations.laboratory_room
	SeatNumber      int       // reservations.seat_number
	IsAnonymous     bool      // reservations.is_anonymous
	BookingDate     time.Time // reservations.booking_date
	ReservationDate time.Time // reservations.reservation_date (DATE column)
	StartTime       string    // reservations.start_time
	EndTime         string    // reservations.end_time
}
