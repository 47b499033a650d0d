package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/withmates/activity-service/internal/service"
)

// httpError maps the service error taxonomy onto HTTP status codes. Capacity
// and reapplication failures get distinct codes so clients can offer the
// right follow-up action (or none, for the permanent ones).
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrActivityNotFound),
		errors.Is(err, service.ErrParticipantNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotCreator),
		errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrOwnActivity):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrDuplicateApplication):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPermanentlyDeclined),
		errors.Is(err, service.ErrAttemptLimitReached):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrActivityNotOpen),
		errors.Is(err, service.ErrActivityNotOpenYet),
		errors.Is(err, service.ErrInvalidSpots),
		errors.Is(err, service.ErrActivityDateInPast):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
