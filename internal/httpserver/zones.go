package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/i18n"
	"github.com/Skotchmaster/zone_service/internal/service"
	"github.com/Skotchmaster/zone_service/internal/transport"
	"github.com/Skotchmaster/zone_service/pkg/logging"
)

type ZonesHTTP struct {
	Svc *service.ZoneService
	Loc *service.LocationService
}

func locale(c echo.Context) string {
	if l := c.QueryParam("locale"); l != "" {
		return l
	}
	return i18n.DefaultLocale
}

func (h *ZonesHTTP) ListZones(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list.zones")

	zones, err := h.Svc.ListZones(ctx)
	if err != nil {
		return fail(c, l, "list_zones_error", err)
	}

	loc := locale(c)
	zones = paginate(c, zones)
	out := make([]transport.ZoneResponse, 0, len(zones))
	for _, z := range zones {
		out = append(out, transport.NewZoneResponse(z, loc))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ZonesHTTP) GetZone(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.zone")

	id, err := paramID(c, "id")
	if err != nil {
		l.Warn("get_zone_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid id")
	}

	z, err := h.Svc.GetZone(ctx, id)
	if err != nil {
		return fail(c, l, "get_zone_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewZoneResponse(*z, locale(c)))
}

func (h *ZonesHTTP) ZoneStores(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "zone.stores")

	id, err := paramID(c, "id")
	if err != nil {
		l.Warn("zone_stores_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid id")
	}

	ids, err := h.Svc.ZoneStores(ctx, id)
	if err != nil {
		return fail(c, l, "zone_stores_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"zone_id": id, "store_ids": ids})
}

func (h *ZonesHTTP) ResolveZone(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "resolve.zone")

	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if errLat != nil || errLng != nil {
		l.Warn("resolve_zone_error", "status", 400)
		return c.JSON(http.StatusBadRequest, "lat and lng query parameters required")
	}

	z, err := h.Loc.ResolveZone(ctx, geo.Point{Lat: lat, Lng: lng})
	if err != nil {
		return fail(c, l, "resolve_zone_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewZoneResponse(*z, locale(c)))
}
