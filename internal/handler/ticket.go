package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/booking"
	"github.com/iliyamo/theatre-booking/internal/middleware"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
	"github.com/iliyamo/theatre-booking/internal/service"
)

// TicketHandler serves /v1/ticket.  Customers see and manage the tickets of
// their own reservations; admins see all.
type TicketHandler struct {
	Tickets      *repository.TicketRepo
	Performances *repository.PerformanceRepo
	Booking      *service.ReservationService
}

func NewTicketHandler(t *repository.TicketRepo, p *repository.PerformanceRepo, b *service.ReservationService) *TicketHandler {
	return &TicketHandler{Tickets: t, Performances: p, Booking: b}
}

type ticketReq struct {
	Row         *int    `json:"row"`
	Seat        *int    `json:"seat"`
	Performance *uint64 `json:"performance"`
	Reservation *uint64 `json:"reservation"`
}

func (h *TicketHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tickets, err := h.Tickets.List(ctx, caller(c), middleware.IsAdmin(c))
	if err != nil {
		return renderError(c, err)
	}
	perf, err := summariesFor(ctx, h.Performances, tickets)
	if err != nil {
		return renderError(c, err)
	}
	out := make([]ticketListView, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, newTicketListView(t, perf))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TicketHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tickets.Get(ctx, id, caller(c), middleware.IsAdmin(c))
	if err != nil {
		return renderError(c, err)
	}
	perf, err := summariesFor(ctx, h.Performances, []model.Ticket{*t})
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, newTicketListView(*t, perf))
}

// Create books a single seat inside one of the caller's reservations.
func (h *TicketHandler) Create(c echo.Context) error {
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	v := booking.NewValidationError()
	for field, missing := range map[string]bool{
		"row":         req.Row == nil,
		"seat":        req.Seat == nil,
		"performance": req.Performance == nil,
		"reservation": req.Reservation == nil,
	} {
		if missing {
			v.Add(field, "this field is required")
		}
	}
	if !v.Empty() {
		return renderError(c, v)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Booking.AddTicket(ctx, caller(c), *req.Reservation, service.TicketSpec{
		Row: *req.Row, Seat: *req.Seat, PerformanceID: *req.Performance,
	})
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusCreated, newTicketView(*t))
}

func (h *TicketHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tickets.Delete(ctx, id, caller(c), middleware.IsAdmin(c)); err != nil {
		return renderError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// summariesFor loads the list view of every performance the tickets refer to.
func summariesFor(ctx context.Context, repo *repository.PerformanceRepo, tickets []model.Ticket) (map[uint64]model.PerformanceSummary, error) {
	out := make(map[uint64]model.PerformanceSummary)
	if len(tickets) == 0 {
		return out, nil
	}
	seen := make(map[uint64]bool, len(tickets))
	ids := make([]uint64, 0, len(tickets))
	for _, t := range tickets {
		if !seen[t.PerformanceID] {
			seen[t.PerformanceID] = true
			ids = append(ids, t.PerformanceID)
		}
	}
	list, err := repo.ListSummaries(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		out[s.ID] = s
	}
	return out, nil
}
