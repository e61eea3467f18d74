// Package queue defines message payloads exchanged over the message
// broker and the background consumer that records them.
package queue

// Lifecycle event kinds published to the reservation queue.
const (
	KindCreated   = "reservation.created"
	KindCancelled = "reservation.cancelled"
	KindExpired   = "reservation.expired"
)

// QueueName is the durable queue all reservation lifecycle events go to.
const QueueName = "reservation.events"

// ReservationEvent is published whenever a reservation is created,
// cancelled, or purged by the expiry sweep. It carries enough for
// downstream consumers to log or notify without querying the primary
// database. StudentName is blank for anonymous bookings.
type ReservationEvent struct {
	Kind           string `json:"kind"`
	ReservationID  string `json:"reservation_id"`
	UserID         uint64 `json:"user_id"`
	StudentName    string `json:"student_name,omitempty"`
	LaboratoryRoom string `json:"laboratory_room"`
	SeatNumber     int    `json:"seat_number"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	OccurredAt     string `json:"occurred_at"`
}
