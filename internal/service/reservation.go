// Package service holds the write paths that span several repositories and
// therefore need a shared transaction.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/theatre-booking/internal/booking"
	"github.com/iliyamo/theatre-booking/internal/database"
	"github.com/iliyamo/theatre-booking/internal/logger"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/queue"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// EventPublisher receives reservation events after commit.
type EventPublisher interface {
	PublishReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error
}

// TicketSpec is one requested seat.
type TicketSpec struct {
	Row           int
	Seat          int
	PerformanceID uint64
}

// ReservationService books seats.
type ReservationService struct {
	db           *sql.DB
	performances *repository.PerformanceRepo
	reservations *repository.ReservationRepo
	tickets      *repository.TicketRepo
	publisher    EventPublisher

	publishTimeout time.Duration
}

// DefaultPublishTimeout bounds the post-commit event publish.
const DefaultPublishTimeout = 2 * time.Second

// NewReservationService wires the repositories sharing db.  publisher may be
// nil, in which case no events are sent.
func NewReservationService(db *sql.DB, publisher EventPublisher) *ReservationService {
	return &ReservationService{
		db:           db,
		performances: repository.NewPerformanceRepo(db),
		reservations: repository.NewReservationRepo(db),
		tickets:      repository.NewTicketRepo(db),
		publisher:    publisher,

		publishTimeout: DefaultPublishTimeout,
	}
}

// Create books every spec for userID in one transaction.  Range failures for
// all specs are reported together and nothing is written; the first seat
// already taken aborts the whole reservation with a ConflictError cause.
func (s *ReservationService) Create(ctx context.Context, userID uint64, specs []TicketSpec) (*model.Reservation, error) {
	if len(specs) == 0 {
		return nil, booking.FieldError("tickets", "this list may not be empty")
	}

	var res *model.Reservation
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		verr := booking.NewValidationError()
		halls := make(map[uint64]*model.TheatreHall)
		for i, spec := range specs {
			prefix := fmt.Sprintf("tickets[%d].", i)
			hall, ok := halls[spec.PerformanceID]
			if !ok {
				var err error
				hall, err = s.performances.HallForPerformance(ctx, tx, spec.PerformanceID)
				if errors.Is(err, repository.ErrNotFound) {
					verr.Add(prefix+"performance", booking.MissingPK(spec.PerformanceID))
					continue
				}
				if err != nil {
					return fmt.Errorf("resolve hall: %w", err)
				}
				halls[spec.PerformanceID] = hall
			}
			booking.CollectTicket(verr, prefix, spec.Row, spec.Seat, *hall)
		}
		if !verr.Empty() {
			return verr
		}

		r := &model.Reservation{UserID: userID}
		if err := s.reservations.CreateTx(ctx, tx, r); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		r.Tickets = make([]model.Ticket, 0, len(specs))
		for i, spec := range specs {
			t := model.Ticket{Row: spec.Row, Seat: spec.Seat, PerformanceID: spec.PerformanceID, ReservationID: r.ID}
			if err := s.tickets.CreateTx(ctx, tx, &t); err != nil {
				var conflict *booking.ConflictError
				if errors.As(err, &conflict) {
					v := booking.NewValidationError()
					v.AddErr(fmt.Sprintf("tickets[%d]", i), conflict)
					return v
				}
				return fmt.Errorf("insert ticket %d: %w", i, err)
			}
			r.Tickets = append(r.Tickets, t)
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, res)
	return res, nil
}

// AddTicket books one more seat inside an existing reservation of userID.
// Errors are keyed by the request field names.
func (s *ReservationService) AddTicket(ctx context.Context, userID, reservationID uint64, spec TicketSpec) (*model.Ticket, error) {
	owner, err := s.reservations.OwnerOf(ctx, reservationID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && owner != userID) {
		return nil, booking.FieldError("reservation", booking.MissingPK(reservationID))
	}
	if err != nil {
		return nil, err
	}

	hall, err := s.performances.HallForPerformance(ctx, nil, spec.PerformanceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, booking.FieldError("performance", booking.MissingPK(spec.PerformanceID))
	}
	if err != nil {
		return nil, err
	}
	if err := booking.CheckTicket("", spec.Row, spec.Seat, *hall); err != nil {
		return nil, err
	}

	t := &model.Ticket{Row: spec.Row, Seat: spec.Seat, PerformanceID: spec.PerformanceID, ReservationID: reservationID}
	if err := s.tickets.CreateTx(ctx, nil, t); err != nil {
		var conflict *booking.ConflictError
		if errors.As(err, &conflict) {
			v := booking.NewValidationError()
			v.AddErr("non_field_errors", conflict)
			return nil, v
		}
		return nil, err
	}
	return t, nil
}

// publish runs after commit.  It outlives a cancelled request but is bounded
// by publishTimeout, so a stalled broker delays the response by at most that.
func (s *ReservationService) publish(ctx context.Context, res *model.Reservation) {
	if s.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	ev := queue.NewReservationCreatedEvent(res)
	if err := s.publisher.PublishReservationCreated(pctx, ev); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Uint64("reservation_id", res.ID).Msg("reservation event not published")
	}
}
