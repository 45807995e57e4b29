package booking

import "github.com/iliyamo/theatre-booking/internal/model"

// ValidateRange checks value against the inclusive range [1, max].
func ValidateRange(field string, value, max int) error {
	if value < 1 || value > max {
		return &RangeError{Field: field, Value: value, Max: max}
	}
	return nil
}

// ValidateSeat checks a ticket's coordinates against the hall grid.  Both
// coordinates are checked; the returned slice is empty for a valid seat.
func ValidateSeat(row, seat int, hall model.TheatreHall) []error {
	var errs []error
	if err := ValidateRange("row", row, hall.Rows); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateRange("seat", seat, hall.SeatsInRow); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// CheckTicket validates a single ticket and returns a ValidationError keyed
// by prefix+field ("row", "tickets[0].row", ...), or nil.
func CheckTicket(prefix string, row, seat int, hall model.TheatreHall) error {
	v := NewValidationError()
	CollectTicket(v, prefix, row, seat, hall)
	return v.OrNil()
}

// CollectTicket adds the seat failures of one ticket to v.
func CollectTicket(v *ValidationError, prefix string, row, seat int, hall model.TheatreHall) {
	for _, err := range ValidateSeat(row, seat, hall) {
		if re, ok := err.(*RangeError); ok {
			v.AddErr(prefix+re.Field, re)
		}
	}
}
