// Package handler contains the HTTP handlers. Handlers bind and
// validate requests, call into the service layer with explicit ids, and
// translate typed service failures into HTTP responses.
package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// errNoUser is returned when the JWT middleware did not leave a usable
// user id in the context.
var errNoUser = errors.New("no authenticated user in context")

// getUserID extracts the authenticated user's id stored by the JWT
// middleware. JWT numeric claims decode as float64; string subjects are
// parsed for robustness.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case float64:
		if v > 0 {
			return uint64(v), nil
		}
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
			return id, nil
		}
	case uint64:
		if v > 0 {
			return v, nil
		}
	}
	return 0, errNoUser
}

// parseDate parses a "YYYY-MM-DD" date into midnight of the given zone.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}
