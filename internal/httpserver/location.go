package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/service"
	"github.com/Skotchmaster/zone_service/internal/transport"
	"github.com/Skotchmaster/zone_service/pkg/logging"
)

type LocationHTTP struct {
	Svc *service.LocationService
}

func (h *LocationHTTP) UpdateLocation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.location")

	var req transport.LocationRequest
	if ok, err := bindValid(c, &req); !ok {
		l.Warn("update_location_error", "status", 400)
		return err
	}

	res, err := h.Svc.UpdateUserLocation(ctx, geo.Point{Lat: *req.Lat, Lng: *req.Lng})
	if err != nil {
		return fail(c, l, "update_location_error", err)
	}

	l.Info("location updated", "changed", res.Changed)
	return c.JSON(http.StatusOK, res)
}
