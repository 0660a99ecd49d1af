package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/zone_service/internal/auth"
	"github.com/Skotchmaster/zone_service/internal/service"
)

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrNoSession):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrAccessDenied):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrStoreNotReachable):
		return http.StatusConflict, "store is not reachable from your zone"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// fail logs err under event and writes the mapped status.
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "reason", err.Error())
	}
	return c.JSON(code, msg)
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.New("invalid " + name)
	}
	return id, nil
}
