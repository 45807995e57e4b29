package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/theatre-booking/internal/database"
	"github.com/iliyamo/theatre-booking/internal/model"
)

// ReservationRepo stores reservations.  Tickets are attached through
// TicketRepo.
type ReservationRepo struct {
	db      *sql.DB
	tickets *TicketRepo
}

func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db, tickets: NewTicketRepo(db)}
}

// CreateTx inserts the reservation row using q and sets ID and CreatedAt.
func (r *ReservationRepo) CreateTx(ctx context.Context, q database.Tx, res *model.Reservation) error {
	if q == nil {
		q = r.db
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	out, err := q.ExecContext(ctx,
		"INSERT INTO reservations (user_id, created_at) VALUES (?, ?)",
		res.UserID, res.CreatedAt)
	if err != nil {
		return classify(err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// ListByUser returns one page of the user's reservations, newest first, with
// tickets loaded, and the total number of reservations the user has.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.Reservation, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE user_id = ?", userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, created_at FROM reservations WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachTickets(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetForUser returns the reservation with its tickets when userID owns it,
// otherwise ErrNotFound.
func (r *ReservationRepo) GetForUser(ctx context.Context, id, userID uint64) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at FROM reservations WHERE id = ? AND user_id = ?",
		id, userID).Scan(&res.ID, &res.UserID, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	list := []model.Reservation{res}
	if err := r.attachTickets(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// OwnerOf returns the user id owning the reservation or ErrNotFound.
func (r *ReservationRepo) OwnerOf(ctx context.Context, id uint64) (uint64, error) {
	var owner uint64
	err := r.db.QueryRowContext(ctx, "SELECT user_id FROM reservations WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return owner, err
}

// Delete removes the user's reservation; its tickets cascade.
func (r *ReservationRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reservations WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	return affected(res.RowsAffected())
}

func (r *ReservationRepo) attachTickets(ctx context.Context, list []model.Reservation) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uint64, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	byRes, err := r.tickets.ListByReservations(ctx, ids)
	if err != nil {
		return err
	}
	for i := range list {
		list[i].Tickets = byRes[list[i].ID]
		if list[i].Tickets == nil {
			list[i].Tickets = []model.Ticket{}
		}
	}
	return nil
}
