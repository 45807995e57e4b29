package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/booking"
	"github.com/iliyamo/theatre-booking/internal/repository"
	"github.com/iliyamo/theatre-booking/internal/service"
)

// Reservation pages default to two items and never exceed a hundred.
const (
	reservationPageSize    = 2
	reservationMaxPageSize = 100
)

// ReservationHandler serves /v1/reservations, always scoped to the caller.
type ReservationHandler struct {
	Reservations *repository.ReservationRepo
	Performances *repository.PerformanceRepo
	Booking      *service.ReservationService
}

func NewReservationHandler(r *repository.ReservationRepo, p *repository.PerformanceRepo, b *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Reservations: r, Performances: p, Booking: b}
}

type reservationReq struct {
	Tickets []struct {
		Row         *int    `json:"row"`
		Seat        *int    `json:"seat"`
		Performance *uint64 `json:"performance"`
	} `json:"tickets"`
}

// List returns the caller's reservations newest first.
func (h *ReservationHandler) List(c echo.Context) error {
	pageNum, size, err := parsePage(c, reservationPageSize, reservationMaxPageSize)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, total, err := h.Reservations.ListByUser(ctx, caller(c), size, (pageNum-1)*size)
	if err != nil {
		return renderError(c, err)
	}
	out := page[reservationView]{Items: make([]reservationView, 0, len(list)), Total: total, Page: pageNum, PageSize: size}
	for _, r := range list {
		out.Items = append(out.Items, renderReservation(r, viewList, nil))
	}
	return c.JSON(http.StatusOK, out)
}

// Create books all requested tickets atomically.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	v := booking.NewValidationError()
	specs := make([]service.TicketSpec, 0, len(req.Tickets))
	for i, t := range req.Tickets {
		prefix := fmt.Sprintf("tickets[%d].", i)
		if t.Row == nil {
			v.Add(prefix+"row", "this field is required")
		}
		if t.Seat == nil {
			v.Add(prefix+"seat", "this field is required")
		}
		if t.Performance == nil {
			v.Add(prefix+"performance", "this field is required")
		}
		if t.Row != nil && t.Seat != nil && t.Performance != nil {
			specs = append(specs, service.TicketSpec{Row: *t.Row, Seat: *t.Seat, PerformanceID: *t.Performance})
		}
	}
	if !v.Empty() {
		return renderError(c, v)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Booking.Create(ctx, caller(c), specs)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusCreated, renderReservation(*res, viewList, nil))
}

func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Reservations.GetForUser(ctx, id, caller(c))
	if err != nil {
		return renderError(c, err)
	}
	perf, err := summariesFor(ctx, h.Performances, res.Tickets)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, renderReservation(*res, viewDetail, perf))
}

// Delete cancels the reservation and releases its seats.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Reservations.Delete(ctx, id, caller(c)); err != nil {
		return renderError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
