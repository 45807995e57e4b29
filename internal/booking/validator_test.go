package booking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-booking/internal/model"
)

var hall = model.TheatreHall{ID: 1, Name: "Main", Rows: 10, SeatsInRow: 15}

func TestValidateSeat(t *testing.T) {
	tests := []struct {
		name   string
		row    int
		seat   int
		fields []string
	}{
		{name: "first seat", row: 1, seat: 1},
		{name: "last seat", row: 10, seat: 15},
		{name: "row zero", row: 0, seat: 5, fields: []string{"row"}},
		{name: "row past end", row: 11, seat: 5, fields: []string{"row"}},
		{name: "seat past end", row: 5, seat: 16, fields: []string{"seat"}},
		{name: "negative seat", row: 5, seat: -1, fields: []string{"seat"}},
		{name: "both invalid", row: 11, seat: 16, fields: []string{"row", "seat"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidateSeat(tc.row, tc.seat, hall)
			var got []string
			for _, err := range errs {
				var re *RangeError
				require.ErrorAs(t, err, &re)
				got = append(got, re.Field)
			}
			assert.Equal(t, tc.fields, got)
		})
	}
}

func TestRangeErrorMessageNamesRange(t *testing.T) {
	err := ValidateRange("row", 11, 10)
	require.Error(t, err)
	assert.Equal(t, "row must be in range [1, 10], got 11", err.Error())
}

func TestCheckTicketKeysByPrefix(t *testing.T) {
	err := CheckTicket("tickets[2].", 11, 3, hall)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"row must be in range [1, 10], got 11"}, ve.Fields["tickets[2].row"])
	assert.NotContains(t, ve.Fields, "tickets[2].seat")

	var re *RangeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 10, re.Max)

	assert.NoError(t, CheckTicket("", 3, 3, hall))
}

func TestValidationErrorString(t *testing.T) {
	v := NewValidationError()
	v.Add("b", "second")
	v.Add("a", "first")
	v.Add("a", "again")

	assert.Equal(t, "validation failed: a: first; again, b: second", v.Error())
	assert.Nil(t, NewValidationError().OrNil())
}

func TestConflictErrorUnwrapsFromAggregate(t *testing.T) {
	v := NewValidationError()
	v.AddErr("tickets[0]", &ConflictError{Row: 5, Seat: 5, PerformanceID: 7})

	var ce *ConflictError
	require.ErrorAs(t, v, &ce)
	assert.Equal(t, uint64(7), ce.PerformanceID)
}

func TestMissingPK(t *testing.T) {
	assert.Equal(t, `invalid pk "42" - object does not exist`, MissingPK(42))
}
