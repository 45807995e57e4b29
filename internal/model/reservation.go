package model

import "time"

// Reservation groups the tickets a user booked in one transaction.
// Reservations are listed newest first.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the reservation.
//  CreatedAt – creation timestamp (UTC).
//  Tickets   – tickets created together with the reservation.
type Reservation struct {
    ID        uint64    // reservations.id
    UserID    uint64    // reservations.user_id
    CreatedAt time.Time // reservations.created_at
    Tickets   []Ticket
}

// Ticket is one seat (Row, Seat) booked for a performance.  The triple
// (Row, Seat, PerformanceID) is unique.
type Ticket struct {
    ID            uint64 // tickets.id
    Row           int    // tickets.row
    Seat          int    // tickets.seat
    PerformanceID uint64 // tickets.performance_id
    ReservationID uint64 // tickets.reservation_id
}
