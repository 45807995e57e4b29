// Package queue defines the reservation events exchanged over RabbitMQ and
// the publisher and consumer that move them.
package queue

import (
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// ReservationCreatedQueue is the durable queue reservation events go to.
const ReservationCreatedQueue = "reservation.created"

// ReservationCreatedEvent is published after a reservation and its tickets
// have been committed.  It carries enough for consumers to log or notify
// without querying the database.
type ReservationCreatedEvent struct {
	ReservationID uint64        `json:"reservation_id"`
	UserID        uint64        `json:"user_id"`
	CreatedAt     string        `json:"created_at"`
	Tickets       []TicketEntry `json:"tickets"`
}

// TicketEntry is one booked seat inside a ReservationCreatedEvent.
type TicketEntry struct {
	TicketID      uint64 `json:"ticket_id"`
	PerformanceID uint64 `json:"performance_id"`
	Row           int    `json:"row"`
	Seat          int    `json:"seat"`
}

// NewReservationCreatedEvent builds the event for a committed reservation.
func NewReservationCreatedEvent(r *model.Reservation) ReservationCreatedEvent {
	ev := ReservationCreatedEvent{
		ReservationID: r.ID,
		UserID:        r.UserID,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
		Tickets:       make([]TicketEntry, 0, len(r.Tickets)),
	}
	for _, t := range r.Tickets {
		ev.Tickets = append(ev.Tickets, TicketEntry{
			TicketID:      t.ID,
			PerformanceID: t.PerformanceID,
			Row:           t.Row,
			Seat:          t.Seat,
		})
	}
	return ev
}
