package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/theatre-booking/internal/database"
	"github.com/iliyamo/theatre-booking/internal/model"
)

// summarySelect joins each performance with its play title and hall and
// counts the booked tickets.  Availability is derived from these columns on
// every read.
const summarySelect = "SELECT p.id, p.play_id, p.theatre_hall_id, p.show_time, pl.title, " +
	"h.id, h.name, h.`rows`, h.seats_in_row, " +
	"(SELECT COUNT(*) FROM tickets t WHERE t.performance_id = p.id) AS booked " +
	"FROM performances p " +
	"JOIN plays pl ON pl.id = p.play_id " +
	"JOIN theatre_halls h ON h.id = p.theatre_hall_id"

// PerformanceRepo reads and writes scheduled performances.
type PerformanceRepo struct {
	db *sql.DB
}

func NewPerformanceRepo(db *sql.DB) *PerformanceRepo { return &PerformanceRepo{db: db} }

// ListSummaries returns performances newest show time first.  When ids is
// non-empty only those performances are returned.
func (r *PerformanceRepo) ListSummaries(ctx context.Context, ids ...uint64) ([]model.PerformanceSummary, error) {
	query := summarySelect
	var args []any
	if len(ids) > 0 {
		query += " WHERE p.id IN (" + placeholders(len(ids)) + ")"
		args = appendIDs(args, ids)
	}
	query += " ORDER BY p.show_time DESC, p.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list performances: %w", err)
	}
	defer rows.Close()

	out := make([]model.PerformanceSummary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSummary returns one performance summary or ErrNotFound.
func (r *PerformanceRepo) GetSummary(ctx context.Context, id uint64) (*model.PerformanceSummary, error) {
	s, err := scanSummary(r.db.QueryRowContext(ctx, summarySelect+" WHERE p.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// HallForPerformance resolves the hall a performance runs in.  q may be a
// transaction so the lookup shares the caller's snapshot.
func (r *PerformanceRepo) HallForPerformance(ctx context.Context, q database.Tx, performanceID uint64) (*model.TheatreHall, error) {
	if q == nil {
		q = r.db
	}
	var h model.TheatreHall
	err := q.QueryRowContext(ctx,
		"SELECT h.id, h.name, h.`rows`, h.seats_in_row FROM performances p JOIN theatre_halls h ON h.id = p.theatre_hall_id WHERE p.id = ?",
		performanceID).Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Create inserts p.  Unknown play or hall ids yield ErrInvalidReference.
func (r *PerformanceRepo) Create(ctx context.Context, p *model.Performance) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO performances (play_id, theatre_hall_id, show_time) VALUES (?, ?, ?)",
		p.PlayID, p.TheatreHallID, p.ShowTime.UTC())
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *PerformanceRepo) Update(ctx context.Context, p *model.Performance) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE performances SET play_id = ?, theatre_hall_id = ?, show_time = ? WHERE id = ?",
		p.PlayID, p.TheatreHallID, p.ShowTime.UTC(), p.ID)
	if err != nil {
		return classify(err)
	}
	return affected(res.RowsAffected())
}

// Delete removes the performance and, by cascade, its tickets.
func (r *PerformanceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM performances WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affected(res.RowsAffected())
}

func scanSummary(s scanner) (model.PerformanceSummary, error) {
	var ps model.PerformanceSummary
	err := s.Scan(&ps.ID, &ps.PlayID, &ps.TheatreHallID, &ps.ShowTime, &ps.PlayTitle,
		&ps.Hall.ID, &ps.Hall.Name, &ps.Hall.Rows, &ps.Hall.SeatsInRow, &ps.TicketsBooked)
	return ps, err
}
