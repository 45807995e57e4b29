package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestActorFullName(t *testing.T) {
    assert.Equal(t, "Ian McKellen", Actor{FirstName: "Ian", LastName: "McKellen"}.FullName())
}

func TestTicketsAvailable(t *testing.T) {
    p := PerformanceSummary{
        Hall:          TheatreHall{Rows: 10, SeatsInRow: 15},
        TicketsBooked: 3,
    }
    assert.Equal(t, 150, p.Hall.Capacity())
    assert.Equal(t, 147, p.TicketsAvailable())
}
