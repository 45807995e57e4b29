package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/theatre-booking/internal/booking"
	"github.com/iliyamo/theatre-booking/internal/database"
	"github.com/iliyamo/theatre-booking/internal/model"
)

const ticketColumns = "t.id, t.`row`, t.seat, t.performance_id, t.reservation_id"

// TicketRepo stores booked seats.  Seat uniqueness per performance is left to
// the uq_ticket_seat index.
type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateTx inserts t using q.  A taken seat is reported as a
// *booking.ConflictError; unknown performance or reservation ids as
// ErrInvalidReference.
func (r *TicketRepo) CreateTx(ctx context.Context, q database.Tx, t *model.Ticket) error {
	if q == nil {
		q = r.db
	}
	res, err := q.ExecContext(ctx,
		"INSERT INTO tickets (`row`, seat, performance_id, reservation_id) VALUES (?, ?, ?, ?)",
		t.Row, t.Seat, t.PerformanceID, t.ReservationID)
	if err != nil {
		if IsDuplicate(err) {
			return &booking.ConflictError{Row: t.Row, Seat: t.Seat, PerformanceID: t.PerformanceID}
		}
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// List returns tickets ordered by id.  Unless all is set only tickets in
// reservations of userID are returned.
func (r *TicketRepo) List(ctx context.Context, userID uint64, all bool) ([]model.Ticket, error) {
	query := "SELECT " + ticketColumns + " FROM tickets t"
	var args []any
	if !all {
		query += " JOIN reservations r ON r.id = t.reservation_id WHERE r.user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY t.id"
	return r.query(ctx, r.db, query, args...)
}

// Get returns the ticket when it belongs to userID (or all is set), otherwise
// ErrNotFound.
func (r *TicketRepo) Get(ctx context.Context, id, userID uint64, all bool) (*model.Ticket, error) {
	query := "SELECT " + ticketColumns + " FROM tickets t JOIN reservations r ON r.id = t.reservation_id WHERE t.id = ?"
	args := []any{id}
	if !all {
		query += " AND r.user_id = ?"
		args = append(args, userID)
	}
	var t model.Ticket
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&t.ID, &t.Row, &t.Seat, &t.PerformanceID, &t.ReservationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByPerformance returns the booked seats of a performance by row and seat.
func (r *TicketRepo) ListByPerformance(ctx context.Context, performanceID uint64) ([]model.Ticket, error) {
	return r.query(ctx, r.db,
		"SELECT "+ticketColumns+" FROM tickets t WHERE t.performance_id = ? ORDER BY t.`row`, t.seat",
		performanceID)
}

// ListByReservations returns the tickets of the given reservations keyed by
// reservation id, in insertion order.
func (r *TicketRepo) ListByReservations(ctx context.Context, reservationIDs []uint64) (map[uint64][]model.Ticket, error) {
	out := make(map[uint64][]model.Ticket, len(reservationIDs))
	if len(reservationIDs) == 0 {
		return out, nil
	}
	tickets, err := r.query(ctx, r.db,
		"SELECT "+ticketColumns+" FROM tickets t WHERE t.reservation_id IN ("+placeholders(len(reservationIDs))+") ORDER BY t.id",
		appendIDs(nil, reservationIDs)...)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		out[t.ReservationID] = append(out[t.ReservationID], t)
	}
	return out, nil
}

// Delete removes the ticket if it belongs to userID (or all is set).
func (r *TicketRepo) Delete(ctx context.Context, id, userID uint64, all bool) error {
	var (
		res sql.Result
		err error
	)
	if all {
		res, err = r.db.ExecContext(ctx, "DELETE FROM tickets WHERE id = ?", id)
	} else {
		res, err = r.db.ExecContext(ctx,
			"DELETE t FROM tickets t JOIN reservations r ON r.id = t.reservation_id WHERE t.id = ? AND r.user_id = ?",
			id, userID)
	}
	if err != nil {
		return err
	}
	return affected(res.RowsAffected())
}

func (r *TicketRepo) query(ctx context.Context, q database.Tx, query string, args ...any) ([]model.Ticket, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()
	out := make([]model.Ticket, 0)
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.Row, &t.Seat, &t.PerformanceID, &t.ReservationID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
