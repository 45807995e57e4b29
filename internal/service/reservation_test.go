package service

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
	"github.com/iliyamo/theatre-booking/internal/queue"
)

type recordingPublisher struct {
	events []queue.ReservationCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishReservationCreated(_ context.Context, ev queue.ReservationCreatedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

var hallQuery = regexp.QuoteMeta("FROM performances p JOIN theatre_halls h ON h.id = p.theatre_hall_id WHERE p.id = ?")

func hallRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "rows", "seats_in_row"}).AddRow(1, "Main", 10, 15)
}

func setup(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestCreateReservation(t *testing.T) {
	db, mock := setup(t)
	pub := &recordingPublisher{}
	svc := NewReservationService(db, pub)

	mock.ExpectBegin()
	mock.ExpectQuery(hallQuery).WithArgs(uint64(4)).WillReturnRows(hallRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations (user_id, created_at)")).
		WithArgs(uint64(8), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(20, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tickets")).
		WithArgs(1, 1, uint64(4), uint64(20)).
		WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tickets")).
		WithArgs(1, 2, uint64(4), uint64(20)).
		WillReturnResult(sqlmock.NewResult(101, 1))
	mock.ExpectCommit()

	res, err := svc.Create(context.Background(), 8, []TicketSpec{
		{Row: 1, Seat: 1, PerformanceID: 4},
		{Row: 1, Seat: 2, PerformanceID: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(20), res.ID)
	require.Len(t, res.Tickets, 2)
	assert.Equal(t, uint64(101), res.Tickets[1].ID)
	require.Len(t, pub.events, 1)
	assert.Equal(t, uint64(20), pub.events[0].ReservationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationEmpty(t *testing.T) {
	db, _ := setup(t)
	_, err := NewReservationService(db, nil).Create(context.Background(), 8, nil)

	var verr *booking.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"this list may not be empty"}, verr.Fields["tickets"])
}

func TestCreateReservationRangeErrorsPersistNothing(t *testing.T) {
	db, mock := setup(t)
	pub := &recordingPublisher{}

	mock.ExpectBegin()
	mock.ExpectQuery(hallQuery).WithArgs(uint64(4)).WillReturnRows(hallRows())
	mock.ExpectQuery(hallQuery).WithArgs(uint64(9)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := NewReservationService(db, pub).Create(context.Background(), 8, []TicketSpec{
		{Row: 1, Seat: 1, PerformanceID: 4},
		{Row: 11, Seat: 16, PerformanceID: 4},
		{Row: 1, Seat: 1, PerformanceID: 9},
	})

	var verr *booking.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"row must be in range [1, 10], got 11"}, verr.Fields["tickets[1].row"])
	assert.Equal(t, []string{"seat must be in range [1, 15], got 16"}, verr.Fields["tickets[1].seat"])
	assert.Contains(t, verr.Fields, "tickets[2].performance")
	assert.NotContains(t, verr.Fields, "tickets[0].row")

	var rangeErr *booking.RangeError
	assert.True(t, errors.As(err, &rangeErr))
	assert.Empty(t, pub.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationConflictRollsBack(t *testing.T) {
	db, mock := setup(t)
	pub := &recordingPublisher{}

	mock.ExpectBegin()
	mock.ExpectQuery(hallQuery).WithArgs(uint64(4)).WillReturnRows(hallRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).WillReturnResult(sqlmock.NewResult(20, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tickets")).WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tickets")).
		WithArgs(5, 5, uint64(4), uint64(20)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := NewReservationService(db, pub).Create(context.Background(), 8, []TicketSpec{
		{Row: 1, Seat: 1, PerformanceID: 4},
		{Row: 5, Seat: 5, PerformanceID: 4},
	})

	var conflict *booking.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 5, conflict.Seat)

	var verr *booking.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "tickets[1]")
	assert.Empty(t, pub.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationPublishFailureIgnored(t *testing.T) {
	db, mock := setup(t)
	pub := &recordingPublisher{err: errors.New("broker down")}

	mock.ExpectBegin()
	mock.ExpectQuery(hallQuery).WillReturnRows(hallRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tickets")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := NewReservationService(db, pub).Create(context.Background(), 8, []TicketSpec{{Row: 1, Seat: 1, PerformanceID: 4}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.ID)
	assert.Len(t, pub.events, 1)
}

// stalledPublisher never completes on its own, like a broker that accepts the
// connection and then goes quiet.
type stalledPublisher struct{ deadline bool }

func (p *stalledPublisher) PublishReservationCreated(ctx context.Context, _ queue.ReservationCreatedEvent) error {
	_, p.deadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestCreateReservationStalledPublisherBounded(t *testing.T) {
	db, mock := setup(t)
	pub := &stalledPublisher{}
	svc := NewReservationService(db, pub)
	svc.publishTimeout = 50 * time.Millisecond

	mock.ExpectBegin()
	mock.ExpectQuery(hallQuery).WillReturnRows(hallRows())
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tickets")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	start := time.Now()
	res, err := svc.Create(context.Background(), 8, []TicketSpec{{Row: 1, Seat: 1, PerformanceID: 4}})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.ID)
	assert.True(t, pub.deadline)
	assert.Less(t, time.Since(start), time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddTicketRejectsForeignReservation(t *testing.T) {
	db, mock := setup(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM reservations WHERE id = ?")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(99))

	_, err := NewReservationService(db, nil).AddTicket(context.Background(), 8, 3, TicketSpec{Row: 1, Seat: 1, PerformanceID: 4})

	var verr *booking.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "reservation")
}

func TestAddTicketOutOfRange(t *testing.T) {
	db, mock := setup(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM reservations WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(8))
	mock.ExpectQuery(hallQuery).WithArgs(uint64(4)).WillReturnRows(hallRows())

	_, err := NewReservationService(db, nil).AddTicket(context.Background(), 8, 3, TicketSpec{Row: 11, Seat: 1, PerformanceID: 4})

	var verr *booking.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"row must be in range [1, 10], got 11"}, verr.Fields["row"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
