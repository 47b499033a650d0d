package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// CallerIDKey is where the resolved caller identity lives in the echo context.
const CallerIDKey = "callerID"

// CallerIdentity reads the user id resolved by the upstream identity layer
// from the X-User-ID header. This service never parses credentials itself.
func CallerIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get("X-User-ID")
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing X-User-ID header")
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid X-User-ID header")
		}
		c.Set(CallerIDKey, uint(id))
		return next(c)
	}
}

// CallerID returns the identity stored by CallerIdentity.
func CallerID(c echo.Context) uint {
	id, _ := c.Get(CallerIDKey).(uint)
	return id
}
