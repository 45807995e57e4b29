package handler // handler package contains the theatre hall handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/booking"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// HallHandler serves /v1/theaters.
type HallHandler struct {
	Halls *repository.HallRepo
}

func NewHallHandler(h *repository.HallRepo) *HallHandler { return &HallHandler{Halls: h} }

// hallBody is bound by Create and Update; nil fields are absent.
type hallBody struct {
	Name       *string `json:"name"`         // unique hall name
	Rows       *int    `json:"rows"`         // number of seating rows
	SeatsInRow *int    `json:"seats_in_row"` // seats per row
}

// List handles GET /v1/theaters.
func (h *HallHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	halls, err := h.Halls.List(ctx)
	if err != nil {
		return renderError(c, err)
	}
	out := make([]hallView, 0, len(halls))
	for _, hall := range halls {
		out = append(out, newHallView(hall))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/theaters/:id.
func (h *HallHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hall, err := h.Halls.GetByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, newHallView(*hall))
}

// Create handles POST /v1/theaters.
func (h *HallHandler) Create(c echo.Context) error {
	var body hallBody
	if err := c.Bind(&body); err != nil { // bind the incoming JSON
		return badRequest(c, "invalid body")
	}
	hall := model.TheatreHall{}
	if err := applyHall(&hall, body, false); err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Halls.Create(ctx, &hall); err != nil {
		return renderError(c, duplicateAs(err, "name", "theatre hall with this name already exists"))
	}
	return c.JSON(http.StatusCreated, newHallView(hall))
}

// Update handles PUT and PATCH /v1/theaters/:id.  Shrinking a hall does not
// touch tickets already booked outside the new grid.
func (h *HallHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	var body hallBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hall, err := h.Halls.GetByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	if err := applyHall(hall, body, c.Request().Method == http.MethodPatch); err != nil {
		return renderError(c, err)
	}
	if err := h.Halls.Update(ctx, hall); err != nil {
		return renderError(c, duplicateAs(err, "name", "theatre hall with this name already exists"))
	}
	return c.JSON(http.StatusOK, newHallView(*hall))
}

// Delete handles DELETE /v1/theaters/:id.
func (h *HallHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Halls.Delete(ctx, id); err != nil {
		return renderError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func applyHall(hall *model.TheatreHall, body hallBody, partial bool) error {
	v := booking.NewValidationError()
	if body.Name != nil {
		hall.Name = strings.TrimSpace(*body.Name)
		checkText(v, "name", hall.Name, 63)
	} else if !partial {
		v.Add("name", "this field is required")
	}
	positive := func(field string, src *int, dst *int) {
		switch {
		case src == nil:
			if !partial {
				v.Add(field, "this field is required")
			}
		case *src < 1:
			v.Add(field, "ensure this value is greater than or equal to 1")
		default:
			*dst = *src
		}
	}
	positive("rows", body.Rows, &hall.Rows)
	positive("seats_in_row", body.SeatsInRow, &hall.SeatsInRow)
	return v.OrNil()
}
