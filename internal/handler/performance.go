package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/booking"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// PerformanceHandler serves /v1/performances.
type PerformanceHandler struct {
	Performances *repository.PerformanceRepo
	Plays        *repository.PlayRepo
	Halls        *repository.HallRepo
	Tickets      *repository.TicketRepo
}

func NewPerformanceHandler(p *repository.PerformanceRepo, plays *repository.PlayRepo, halls *repository.HallRepo, t *repository.TicketRepo) *PerformanceHandler {
	return &PerformanceHandler{Performances: p, Plays: plays, Halls: halls, Tickets: t}
}

type performanceReq struct {
	Play        *uint64    `json:"play"`
	TheatreHall *uint64    `json:"theatre_hall"`
	ShowTime    *time.Time `json:"show_time"`
}

// List returns every performance with its current availability.
func (h *PerformanceHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Performances.ListSummaries(ctx)
	if err != nil {
		return renderError(c, err)
	}
	out := make([]performanceListView, 0, len(list))
	for _, p := range list {
		out = append(out, newPerformanceListView(p))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns the detail view: play detail, hall and booked tickets.
func (h *PerformanceHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Performances.GetSummary(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	play, err := h.Plays.GetByID(ctx, s.PlayID)
	if err != nil {
		return renderError(c, err)
	}
	tickets, err := h.Tickets.ListByPerformance(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	out := performanceDetailView{
		ID:          s.ID,
		ShowTime:    s.ShowTime.UTC(),
		Play:        renderPlay(*play, viewDetail).(playDetailView),
		TheatreHall: newHallView(s.Hall),
		Tickets:     make([]ticketView, 0, len(tickets)),
	}
	for _, t := range tickets {
		out.Tickets = append(out.Tickets, newTicketView(t))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PerformanceHandler) Create(c echo.Context) error {
	var req performanceReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p := model.Performance{}
	if err := h.apply(ctx, &p, req, false); err != nil {
		return renderError(c, err)
	}
	if err := h.Performances.Create(ctx, &p); err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusCreated, newPerformanceView(p))
}

func (h *PerformanceHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	var req performanceReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Performances.GetSummary(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	p := s.Performance
	if err := h.apply(ctx, &p, req, c.Request().Method == http.MethodPatch); err != nil {
		return renderError(c, err)
	}
	if err := h.Performances.Update(ctx, &p); err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, newPerformanceView(p))
}

func (h *PerformanceHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Performances.Delete(ctx, id); err != nil {
		return renderError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// apply validates req onto p, checking that referenced play and hall exist
// so the client gets a field error instead of a foreign key failure.
func (h *PerformanceHandler) apply(ctx context.Context, p *model.Performance, req performanceReq, partial bool) error {
	v := booking.NewValidationError()

	ref := func(field string, id *uint64, dst *uint64, exists func(uint64) error) error {
		if id == nil {
			if !partial {
				v.Add(field, "this field is required")
			}
			return nil
		}
		err := exists(*id)
		if errors.Is(err, repository.ErrNotFound) {
			v.Add(field, booking.MissingPK(*id))
			return nil
		}
		if err != nil {
			return err
		}
		*dst = *id
		return nil
	}
	if err := ref("play", req.Play, &p.PlayID, func(id uint64) error {
		_, err := h.Plays.GetByID(ctx, id)
		return err
	}); err != nil {
		return err
	}
	if err := ref("theatre_hall", req.TheatreHall, &p.TheatreHallID, func(id uint64) error {
		_, err := h.Halls.GetByID(ctx, id)
		return err
	}); err != nil {
		return err
	}

	switch {
	case req.ShowTime != nil:
		p.ShowTime = req.ShowTime.UTC()
	case !partial:
		v.Add("show_time", "this field is required")
	}
	return v.OrNil()
}
