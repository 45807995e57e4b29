package model

// TheatreHall is a physical venue with a fixed grid of Rows x SeatsInRow
// seats.  Both dimensions are strictly positive.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – unique hall name (max 63 chars).
//  Rows       – number of seat rows.
//  SeatsInRow – seats per row.
type TheatreHall struct {
    ID         uint64 // theatre_halls.id
    Name       string // theatre_halls.name
    Rows       int    // theatre_halls.rows
    SeatsInRow int    // theatre_halls.seats_in_row
}

// Capacity is the total number of seats in the hall.
func (h TheatreHall) Capacity() int {
    return h.Rows * h.SeatsInRow
}
