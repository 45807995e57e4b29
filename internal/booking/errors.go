// Package booking holds the seat rules for tickets: a seat must lie inside
// its hall's grid, and a seat can be booked at most once per performance.
package booking

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RangeError reports a seat coordinate outside its hall.
type RangeError struct {
	Field string // "row" or "seat"
	Value int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be in range [1, %d], got %d", e.Field, e.Max, e.Value)
}

// ConflictError reports a seat that is already booked for the performance.
type ConflictError struct {
	Row           int
	Seat          int
	PerformanceID uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seat (row %d, seat %d) is already booked for performance %d", e.Row, e.Seat, e.PerformanceID)
}

// MissingPK is the message for an id that references no row.
func MissingPK(id uint64) string {
	return fmt.Sprintf("invalid pk %q - object does not exist", strconv.FormatUint(id, 10))
}

// ValidationError collects field-level messages keyed by field path, e.g.
// "tickets[1].row".  Causes keeps the typed errors in insertion order so
// callers can use errors.As on the aggregate.
type ValidationError struct {
	Fields map[string][]string
	Causes []error
}

// NewValidationError returns an empty aggregate.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// FieldError is a shorthand for a single-message ValidationError.
func FieldError(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

// Add records a plain message for field.
func (v *ValidationError) Add(field, msg string) {
	v.Fields[field] = append(v.Fields[field], msg)
}

// AddErr records err's message for field and keeps err as a cause.
func (v *ValidationError) AddErr(field string, err error) {
	v.Add(field, err.Error())
	v.Causes = append(v.Causes, err)
}

// Empty reports whether no field failed.
func (v *ValidationError) Empty() bool { return len(v.Fields) == 0 }

// OrNil returns v when it holds failures and nil otherwise.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Unwrap exposes the typed causes to errors.Is and errors.As.
func (v *ValidationError) Unwrap() []error { return v.Causes }
