package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/booking"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// ActorHandler serves /v1/actors.
type ActorHandler struct {
	Actors *repository.ActorRepo
}

func NewActorHandler(a *repository.ActorRepo) *ActorHandler { return &ActorHandler{Actors: a} }

type actorReq struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (h *ActorHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	actors, err := h.Actors.List(ctx)
	if err != nil {
		return renderError(c, err)
	}
	out := make([]actorView, 0, len(actors))
	for _, a := range actors {
		out = append(out, newActorView(a))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ActorHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.Actors.GetByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, newActorView(*a))
}

func (h *ActorHandler) Create(c echo.Context) error {
	var req actorReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	a := model.Actor{}
	if err := applyActor(&a, req, false); err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Actors.Create(ctx, &a); err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusCreated, newActorView(a))
}

func (h *ActorHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	var req actorReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	a, err := h.Actors.GetByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	if err := applyActor(a, req, c.Request().Method == http.MethodPatch); err != nil {
		return renderError(c, err)
	}
	if err := h.Actors.Update(ctx, a); err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, newActorView(*a))
}

func (h *ActorHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Actors.Delete(ctx, id); err != nil {
		return renderError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func applyActor(a *model.Actor, req actorReq, partial bool) error {
	v := booking.NewValidationError()
	set := func(field string, src *string, dst *string) {
		if src == nil {
			if !partial {
				v.Add(field, "this field is required")
			}
			return
		}
		*dst = strings.TrimSpace(*src)
		checkText(v, field, *dst, 255)
	}
	set("first_name", req.FirstName, &a.FirstName)
	set("last_name", req.LastName, &a.LastName)
	return v.OrNil()
}
