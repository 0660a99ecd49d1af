package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/service"
	"github.com/Skotchmaster/zone_service/internal/transport"
	"github.com/Skotchmaster/zone_service/pkg/logging"
)

type AdminHTTP struct {
	Svc *service.ZoneService
}

// bindValid binds and validates req, answering 400 itself on failure.
func bindValid(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, transport.Describe(err))
	}
	return true, nil
}

func rawNames(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func (h *AdminHTTP) CreateZone(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create.zone")

	var req transport.CreateZoneRequest
	if ok, err := bindValid(c, &req); !ok {
		l.Warn("create_zone_error", "status", 400)
		return err
	}

	z, res, err := h.Svc.CreateZone(ctx, service.ZoneInput{
		Name:    req.Name,
		Names:   rawNames(req.Names),
		Polygon: geo.Polygon(req.Polygon),
	})
	if err != nil {
		return fail(c, l, "create_zone_error", err)
	}

	l.Info("zone created", "zone_id", z.ID, "assigned", res.Assigned)
	return c.JSON(http.StatusCreated, echo.Map{
		"zone": transport.NewZoneResponse(*z, locale(c)),
		"sync": res,
	})
}

func (h *AdminHTTP) UpdateZone(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update.zone")

	id, err := paramID(c, "id")
	if err != nil {
		l.Warn("update_zone_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid id")
	}

	var req transport.UpdateZoneRequest
	if ok, err := bindValid(c, &req); !ok {
		l.Warn("update_zone_error", "status", 400)
		return err
	}

	z, res, err := h.Svc.UpdateZone(ctx, id, service.ZoneUpdate{
		Name:    req.Name,
		Names:   rawNames(req.Names),
		Polygon: geo.Polygon(req.Polygon),
	})
	if err != nil {
		return fail(c, l, "update_zone_error", err)
	}

	l.Info("zone updated", "zone_id", z.ID, "resynced", res != nil)
	return c.JSON(http.StatusOK, echo.Map{
		"zone": transport.NewZoneResponse(*z, locale(c)),
		"sync": res,
	})
}

func (h *AdminHTTP) DeleteZone(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete.zone")

	id, err := paramID(c, "id")
	if err != nil {
		l.Warn("delete_zone_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid id")
	}

	res, err := h.Svc.DeleteZone(ctx, id)
	if err != nil {
		return fail(c, l, "delete_zone_error", err)
	}

	l.Info("zone deleted", "zone_id", id)
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) SyncZone(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.sync.zone")

	id, err := paramID(c, "id")
	if err != nil {
		l.Warn("sync_zone_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid id")
	}

	res, err := h.Svc.SyncZoneMembership(ctx, id)
	if err != nil {
		return fail(c, l, "sync_zone_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) AddStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.add.zone.store")

	id, err := paramID(c, "id")
	if err != nil {
		l.Warn("add_zone_store_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid id")
	}

	var req transport.ZoneStoreRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_zone_store_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.AddStoreToZone(ctx, id, req.StoreID)
	if err != nil {
		return fail(c, l, "add_zone_store_error", err)
	}

	l.Info("store linked to zone", "zone_id", id, "store_id", req.StoreID)
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) RemoveStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.remove.zone.store")

	id, err := paramID(c, "id")
	if err != nil {
		l.Warn("remove_zone_store_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid id")
	}
	storeID, err := paramID(c, "storeId")
	if err != nil {
		l.Warn("remove_zone_store_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid store id")
	}

	res, err := h.Svc.RemoveStoreFromZone(ctx, id, storeID)
	if err != nil {
		return fail(c, l, "remove_zone_store_error", err)
	}

	l.Info("store unlinked from zone", "zone_id", id, "store_id", storeID)
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) CreateStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create.store")

	var req transport.CreateStoreRequest
	if ok, err := bindValid(c, &req); !ok {
		l.Warn("create_store_error", "status", 400)
		return err
	}

	st, err := h.Svc.CreateStore(ctx, service.StoreInput{
		Name:         req.Name,
		Lat:          req.Lat,
		Lng:          req.Lng,
		Unrestricted: req.Unrestricted,
	})
	if err != nil {
		return fail(c, l, "create_store_error", err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *AdminHTTP) ListStores(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list.stores")

	stores, err := h.Svc.ListStores(ctx)
	if err != nil {
		return fail(c, l, "list_stores_error", err)
	}
	return c.JSON(http.StatusOK, paginate(c, stores))
}

func (h *AdminHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create.product")

	storeID, err := paramID(c, "id")
	if err != nil {
		l.Warn("create_product_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid id")
	}

	var req transport.CreateProductRequest
	if ok, err := bindValid(c, &req); !ok {
		l.Warn("create_product_error", "status", 400)
		return err
	}

	p, err := h.Svc.CreateProduct(ctx, storeID, service.ProductInput{Name: req.Name, Price: req.Price})
	if err != nil {
		return fail(c, l, "create_product_error", err)
	}
	return c.JSON(http.StatusCreated, p)
}
