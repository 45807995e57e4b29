package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theatre-booking/internal/booking"
	"github.com/iliyamo/theatre-booking/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestGenreCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO genres (name) VALUES (?)")).
		WithArgs("Drama").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := NewGenreRepo(db).Create(context.Background(), &model.Genre{Name: "Drama"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenreDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM genres WHERE id = ?")).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewGenreRepo(db).Delete(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHallGetByID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM theatre_halls WHERE id = ?")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "rows", "seats_in_row"}).AddRow(1, "Main", 10, 15))

	hall, err := NewHallRepo(db).GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 150, hall.Capacity())
}

func TestPlayListFilters(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT p.id, p.title, p.description, p.image FROM plays p WHERE " +
			"p.id IN (SELECT pa.play_id FROM play_actors pa WHERE pa.actor_id IN (?, ?)) AND " +
			"p.id IN (SELECT pg.play_id FROM play_genres pg WHERE pg.genre_id IN (?)) ORDER BY p.id")).
		WithArgs(uint64(1), uint64(2), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "image"}).
			AddRow(4, "Hamlet", "Danish prince", nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM play_actors pa JOIN actors a")).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"play_id", "id", "first_name", "last_name"}).
			AddRow(4, 1, "Ian", "McKellen"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM play_genres pg JOIN genres g")).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"play_id", "id", "name"}).AddRow(4, 3, "Tragedy"))

	plays, err := NewPlayRepo(db).List(context.Background(), PlayFilter{ActorIDs: []uint64{1, 2}, GenreIDs: []uint64{3}})
	require.NoError(t, err)
	require.Len(t, plays, 1)
	assert.Nil(t, plays[0].Image)
	assert.Equal(t, []uint64{1}, plays[0].ActorIDs)
	assert.Equal(t, "Ian McKellen", plays[0].Actors[0].FullName())
	assert.Equal(t, "Tragedy", plays[0].Genres[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlayCreateUnknownActorRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO plays")).WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO play_actors")).
		WithArgs(uint64(7), uint64(99)).
		WillReturnError(&mysql.MySQLError{Number: 1452})
	mock.ExpectRollback()

	err := NewPlayRepo(db).Create(context.Background(), &model.Play{Title: "Hamlet", ActorIDs: []uint64{99, 99}})
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlayUpdateReplacesLinks(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE plays SET title = ?, description = ? WHERE id = ?")).
		WithArgs("Hamlet", "Prince", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM play_actors WHERE play_id = ?")).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM play_genres WHERE play_id = ?")).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO play_actors")).WithArgs(uint64(7), uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewPlayRepo(db).Update(context.Background(), &model.Play{ID: 7, Title: "Hamlet", Description: "Prince", ActorIDs: []uint64{3}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlayUpdateMissingRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE plays")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewPlayRepo(db).Update(context.Background(), &model.Play{ID: 70, Title: "Gone"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPerformanceSummaries(t *testing.T) {
	db, mock := newMock(t)
	show := time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.show_time DESC, p.id DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "play_id", "theatre_hall_id", "show_time", "title", "hid", "name", "rows", "seats_in_row", "booked"}).
			AddRow(1, 4, 2, show, "Hamlet", 2, "Main", 10, 15, 3))

	list, err := NewPerformanceRepo(db).ListSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Hamlet", list[0].PlayTitle)
	assert.Equal(t, 147, list[0].TicketsAvailable())
	assert.True(t, show.Equal(list[0].ShowTime))
}

func TestTicketCreateConflict(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tickets (`row`, seat, performance_id, reservation_id)")).
		WithArgs(5, 5, uint64(1), uint64(2)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '5-5-1' for key 'uq_ticket_seat'"})

	err := NewTicketRepo(db).CreateTx(context.Background(), nil, &model.Ticket{Row: 5, Seat: 5, PerformanceID: 1, ReservationID: 2})
	var conflict *booking.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 5, conflict.Row)
	assert.Equal(t, uint64(1), conflict.PerformanceID)
}

func TestTicketDeleteScopedToOwner(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE t FROM tickets t JOIN reservations r")).
		WithArgs(uint64(3), uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewTicketRepo(db).Delete(context.Background(), 3, 8, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReservationListByUser(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE user_id = ?")).
		WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")).
		WithArgs(uint64(8), 2, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "created_at"}).
			AddRow(11, 8, created).
			AddRow(10, 8, created.Add(-time.Hour)))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.reservation_id IN (?, ?) ORDER BY t.id")).
		WithArgs(uint64(11), uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "row", "seat", "performance_id", "reservation_id"}).
			AddRow(1, 1, 1, 4, 11).
			AddRow(2, 1, 2, 4, 11))

	list, total, err := NewReservationRepo(db).ListByUser(context.Background(), 8, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 2)
	assert.Len(t, list[0].Tickets, 2)
	assert.Empty(t, list[1].Tickets)
	assert.NotNil(t, list[1].Tickets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (email, password_hash, role) VALUES (?, ?, ?)")).
		WithArgs("a@b.c", "hash", model.RoleCustomer).
		WillReturnError(&mysql.MySQLError{Number: 1062})

	u := &model.User{Email: "  A@B.c ", PasswordHash: "hash"}
	err := NewUserRepo(db).Create(context.Background(), u)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.Equal(t, "a@b.c", u.Email)
}

func TestTokenValidateRevoked(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token_hash = ?")).
		WithArgs("h").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(1, time.Now().Add(time.Hour), time.Now()))

	_, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
