package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"

	"github.com/iliyamo/theatre-booking/internal/model"
)

const hallColumns = "id, name, `rows`, seats_in_row"

// HallRepo provides methods to create and retrieve theatre halls.
type HallRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

// List returns every hall ordered by id.
func (r *HallRepo) List(ctx context.Context) ([]model.TheatreHall, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+hallColumns+` FROM theatre_halls ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TheatreHall, 0)
	for rows.Next() {
		var h model.TheatreHall
		if err := rows.Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID retrieves a hall by its ID.  It returns ErrNotFound when no
// row is found.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.TheatreHall, error) {
	var h model.TheatreHall
	err := r.db.QueryRowContext(ctx, `SELECT `+hallColumns+` FROM theatre_halls WHERE id = ?`, id).
		Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// Create inserts a new hall and sets its ID.  Dimensions are validated by
// the caller; the table's CHECK constraints back them up.
func (r *HallRepo) Create(ctx context.Context, h *model.TheatreHall) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO theatre_halls (name, `rows`, seats_in_row) VALUES (?, ?, ?)",
		h.Name, h.Rows, h.SeatsInRow)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// Update overwrites name and dimensions.  Returns ErrNotFound when the hall
// does not exist.
func (r *HallRepo) Update(ctx context.Context, h *model.TheatreHall) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE theatre_halls SET name = ?, `rows` = ?, seats_in_row = ? WHERE id = ?",
		h.Name, h.Rows, h.SeatsInRow, h.ID)
	if err != nil {
		return classify(err)
	}
	return affected(res.RowsAffected())
}

// Delete removes the hall.  Its performances and their tickets cascade.
func (r *HallRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM theatre_halls WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(res.RowsAffected())
}
