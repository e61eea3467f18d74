package model

// Laboratory is a bookable room. Capacity is the highest seat number a
// reservation in this room may use; seats are numbered from 1.
//
// Fields:
//  ID       – primary key identifier.
//  Hall     – building or wing the room belongs to.
//  Room     – unique room key, e.g. "GK404B". Reservations reference
//             rooms by this key.
//  Capacity – number of seats in the room.
type Laboratory struct {
	ID       uint64 // laboratories.id
	Hall     string // laboratories.hall
	Room     string // laboratories.room
	Capacity int    // laboratories.capacity
}
