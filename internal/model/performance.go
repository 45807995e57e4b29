package model

import "time"

// Performance is a single scheduled showing of a Play in a TheatreHall.
type Performance struct {
    ID            uint64    // performances.id
    PlayID        uint64    // performances.play_id
    TheatreHallID uint64    // performances.theatre_hall_id
    ShowTime      time.Time // performances.show_time (UTC)
}

// PerformanceSummary is the list representation of a performance: the play
// title, the hall it runs in and how many of its seats are already booked.
type PerformanceSummary struct {
    Performance
    PlayTitle     string
    Hall          TheatreHall
    TicketsBooked int
}

// TicketsAvailable is the hall capacity minus the booked tickets.  It is
// derived on every read and never stored.
func (p PerformanceSummary) TicketsAvailable() int {
    return p.Hall.Capacity() - p.TicketsBooked
}
