package middleware

// identity.go reads back what JWTAuth stored.  Rate limit and cache keys use
// the string form; handlers use the typed accessors.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated user's role or "".
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// IsAdmin reports whether the caller holds the ADMIN role.
func IsAdmin(c echo.Context) bool { return Role(c) == model.RoleAdmin }

// currentUserID is the key fragment for the caller, "anon" before JWTAuth.
func currentUserID(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
