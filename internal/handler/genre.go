package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/booking"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// GenreHandler serves /v1/genres.
type GenreHandler struct {
	Genres *repository.GenreRepo
}

func NewGenreHandler(g *repository.GenreRepo) *GenreHandler { return &GenreHandler{Genres: g} }

type genreReq struct {
	Name *string `json:"name"`
}

func (h *GenreHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	genres, err := h.Genres.List(ctx)
	if err != nil {
		return renderError(c, err)
	}
	out := make([]genreView, 0, len(genres))
	for _, g := range genres {
		out = append(out, newGenreView(g))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *GenreHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	g, err := h.Genres.GetByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, newGenreView(*g))
}

func (h *GenreHandler) Create(c echo.Context) error {
	var req genreReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	g := model.Genre{}
	if err := applyGenre(&g, req, false); err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Genres.Create(ctx, &g); err != nil {
		return renderError(c, duplicateAs(err, "name", "genre with this name already exists"))
	}
	return c.JSON(http.StatusCreated, newGenreView(g))
}

// Update serves PUT (all fields required) and PATCH (partial).
func (h *GenreHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	var req genreReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	g, err := h.Genres.GetByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	if err := applyGenre(g, req, c.Request().Method == http.MethodPatch); err != nil {
		return renderError(c, err)
	}
	if err := h.Genres.Update(ctx, g); err != nil {
		return renderError(c, duplicateAs(err, "name", "genre with this name already exists"))
	}
	return c.JSON(http.StatusOK, newGenreView(*g))
}

func (h *GenreHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Genres.Delete(ctx, id); err != nil {
		return renderError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func applyGenre(g *model.Genre, req genreReq, partial bool) error {
	v := booking.NewValidationError()
	if req.Name != nil {
		g.Name = strings.TrimSpace(*req.Name)
		checkText(v, "name", g.Name, 63)
	} else if !partial {
		v.Add("name", "this field is required")
	}
	return v.OrNil()
}
