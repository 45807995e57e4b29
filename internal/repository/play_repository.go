package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/theatre-booking/internal/database"
	"github.com/iliyamo/theatre-booking/internal/model"
)

// PlayFilter narrows List.  Each non-empty id set keeps plays linked to ANY of
// its ids; the sets combine with AND.  Title is a case-insensitive substring.
type PlayFilter struct {
	ActorIDs []uint64
	GenreIDs []uint64
	Title    string
}

// PlayRepo reads and writes plays together with their actor and genre links.
type PlayRepo struct {
	db *sql.DB
}

func NewPlayRepo(db *sql.DB) *PlayRepo { return &PlayRepo{db: db} }

// List returns the plays matching f ordered by id, with actors and genres
// loaded.
func (r *PlayRepo) List(ctx context.Context, f PlayFilter) ([]model.Play, error) {
	var (
		where []string
		args  []any
	)
	if len(f.ActorIDs) > 0 {
		where = append(where, "p.id IN (SELECT pa.play_id FROM play_actors pa WHERE pa.actor_id IN ("+placeholders(len(f.ActorIDs))+"))")
		args = appendIDs(args, f.ActorIDs)
	}
	if len(f.GenreIDs) > 0 {
		where = append(where, "p.id IN (SELECT pg.play_id FROM play_genres pg WHERE pg.genre_id IN ("+placeholders(len(f.GenreIDs))+"))")
		args = appendIDs(args, f.GenreIDs)
	}
	if t := strings.TrimSpace(f.Title); t != "" {
		where = append(where, "LOWER(p.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(t)+"%")
	}

	query := "SELECT p.id, p.title, p.description, p.image FROM plays p"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plays: %w", err)
	}
	defer rows.Close()

	plays := make([]model.Play, 0)
	for rows.Next() {
		p, err := scanPlay(rows)
		if err != nil {
			return nil, err
		}
		plays = append(plays, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadLinks(ctx, plays); err != nil {
		return nil, err
	}
	return plays, nil
}

// GetByID returns the play with actors and genres, or ErrNotFound.
func (r *PlayRepo) GetByID(ctx context.Context, id uint64) (*model.Play, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, title, description, image FROM plays WHERE id = ?", id)
	p, err := scanPlay(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	plays := []model.Play{p}
	if err := r.loadLinks(ctx, plays); err != nil {
		return nil, err
	}
	return &plays[0], nil
}

// Create inserts the play and its links in one transaction.  Unknown actor or
// genre ids yield ErrInvalidReference; a taken title yields ErrDuplicate.
func (r *PlayRepo) Create(ctx context.Context, p *model.Play) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO plays (title, description, image) VALUES (?, ?, ?)",
			p.Title, p.Description, p.Image)
		if err != nil {
			return classify(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = uint64(id)
		return writeLinks(ctx, tx, p)
	})
}

// Update overwrites title and description and replaces the link sets.  The
// image is managed separately by SetImage.
func (r *PlayRepo) Update(ctx context.Context, p *model.Play) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE plays SET title = ?, description = ? WHERE id = ?",
			p.Title, p.Description, p.ID)
		if err != nil {
			return classify(err)
		}
		if err := affected(res.RowsAffected()); err != nil {
			return err
		}
		for _, q := range []string{
			"DELETE FROM play_actors WHERE play_id = ?",
			"DELETE FROM play_genres WHERE play_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, q, p.ID); err != nil {
				return err
			}
		}
		return writeLinks(ctx, tx, p)
	})
}

// SetImage stores the public path of the play's poster.
func (r *PlayRepo) SetImage(ctx context.Context, id uint64, path string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE plays SET image = ? WHERE id = ?", path, id)
	if err != nil {
		return err
	}
	return affected(res.RowsAffected())
}

// Delete removes the play; links and performances cascade.
func (r *PlayRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM plays WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affected(res.RowsAffected())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlay(s scanner) (model.Play, error) {
	var (
		p     model.Play
		image sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Title, &p.Description, &image); err != nil {
		return p, err
	}
	if image.Valid {
		p.Image = &image.String
	}
	return p, nil
}

func writeLinks(ctx context.Context, tx *sql.Tx, p *model.Play) error {
	for _, aid := range dedupe(p.ActorIDs) {
		if _, err := tx.ExecContext(ctx, "INSERT INTO play_actors (play_id, actor_id) VALUES (?, ?)", p.ID, aid); err != nil {
			return classify(err)
		}
	}
	for _, gid := range dedupe(p.GenreIDs) {
		if _, err := tx.ExecContext(ctx, "INSERT INTO play_genres (play_id, genre_id) VALUES (?, ?)", p.ID, gid); err != nil {
			return classify(err)
		}
	}
	return nil
}

// loadLinks fills Actors, Genres and the id slices of every play with two
// queries regardless of how many plays there are.
func (r *PlayRepo) loadLinks(ctx context.Context, plays []model.Play) error {
	if len(plays) == 0 {
		return nil
	}
	ids := make([]uint64, len(plays))
	index := make(map[uint64]int, len(plays))
	for i := range plays {
		ids[i] = plays[i].ID
		index[plays[i].ID] = i
		plays[i].Actors = []model.Actor{}
		plays[i].Genres = []model.Genre{}
		plays[i].ActorIDs = []uint64{}
		plays[i].GenreIDs = []uint64{}
	}
	in := placeholders(len(ids))
	args := appendIDs(nil, ids)

	rows, err := r.db.QueryContext(ctx,
		"SELECT pa.play_id, a.id, a.first_name, a.last_name FROM play_actors pa JOIN actors a ON a.id = pa.actor_id WHERE pa.play_id IN ("+in+") ORDER BY a.id",
		args...)
	if err != nil {
		return fmt.Errorf("load play actors: %w", err)
	}
	for rows.Next() {
		var (
			playID uint64
			a      model.Actor
		)
		if err := rows.Scan(&playID, &a.ID, &a.FirstName, &a.LastName); err != nil {
			rows.Close()
			return err
		}
		p := &plays[index[playID]]
		p.Actors = append(p.Actors, a)
		p.ActorIDs = append(p.ActorIDs, a.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.QueryContext(ctx,
		"SELECT pg.play_id, g.id, g.name FROM play_genres pg JOIN genres g ON g.id = pg.genre_id WHERE pg.play_id IN ("+in+") ORDER BY g.id",
		args...)
	if err != nil {
		return fmt.Errorf("load play genres: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			playID uint64
			g      model.Genre
		)
		if err := rows.Scan(&playID, &g.ID, &g.Name); err != nil {
			return err
		}
		p := &plays[index[playID]]
		p.Genres = append(p.Genres, g)
		p.GenreIDs = append(p.GenreIDs, g.ID)
	}
	return rows.Err()
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func appendIDs(args []any, ids []uint64) []any {
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
