package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/booking"
	"github.com/iliyamo/theatre-booking/internal/logger"
	"github.com/iliyamo/theatre-booking/internal/middleware"
	"github.com/iliyamo/theatre-booking/internal/repository"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

var errInvalidID = errors.New("invalid id")

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// parseID reads the positive integer path parameter "id".
func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// parseIDList parses "1,2,3".  Empty input yields nil.
func parseIDList(raw string) ([]uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil || id == 0 {
			return nil, errInvalidID
		}
		out = append(out, id)
	}
	return out, nil
}

// caller returns the authenticated user id; JWTAuth guarantees it on every
// route that uses it.
func caller(c echo.Context) uint64 {
	id, _ := middleware.UserID(c)
	return id
}

// checkText records a message for field when value is blank or longer than
// max runes (max <= 0 disables the length check).
func checkText(v *booking.ValidationError, field, value string, max int) {
	switch {
	case strings.TrimSpace(value) == "":
		v.Add(field, "this field may not be blank")
	case max > 0 && utf8.RuneCountInString(value) > max:
		v.Add(field, "ensure this field has no more than "+strconv.Itoa(max)+" characters")
	}
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
}

// renderError maps domain and repository errors onto HTTP responses.
// Anything unrecognised is logged and reported as 500.
func renderError(c echo.Context, err error) error {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "fields": verr.Fields})
	case errors.Is(err, errInvalidID):
		return badRequest(c, "invalid id")
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c)
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrDuplicate):
		return badRequest(c, "duplicate value")
	case errors.Is(err, repository.ErrInvalidReference):
		return badRequest(c, "invalid reference")
	}
	logger.FromContext(c.Request().Context()).Error().Err(err).
		Str("route", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// duplicateAs rewrites ErrDuplicate into a field error so clients see which
// unique field clashed.
func duplicateAs(err error, field, msg string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return booking.FieldError(field, msg)
	}
	return err
}

// page is the envelope of paginated list responses.
type page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// parsePage reads ?page= and ?page_size=.  page_size is capped at maxSize.
func parsePage(c echo.Context, defSize, maxSize int) (pageNum, size int, err error) {
	pageNum, size = 1, defSize
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, booking.FieldError("page", "invalid page")
		}
		pageNum = n
	}
	if v := c.QueryParam("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, booking.FieldError("page_size", "invalid page size")
		}
		size = min(n, maxSize)
	}
	return pageNum, size, nil
}
