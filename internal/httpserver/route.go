package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/zone_service/internal/transport"
	middleware "github.com/Skotchmaster/zone_service/pkg/middleware/auth"
)

type Deps struct {
	ZonesHandler    *ZonesHTTP
	AdminHandler    *AdminHTTP
	LocationHandler *LocationHTTP
	CartHandler     *CartHTTP
	JWTSecret       []byte
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = transport.NewValidator()
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAuthenticator(d.JWTSecret)

	zones := e.Group("/zones")
	zones.GET("", d.ZonesHandler.ListZones)
	zones.GET("/resolve", d.ZonesHandler.ResolveZone)
	zones.GET("/:id", d.ZonesHandler.GetZone)
	zones.GET("/:id/stores", d.ZonesHandler.ZoneStores)

	e.PUT("/me/location", d.LocationHandler.UpdateLocation, authMW.RequireAuth)

	cart := e.Group("/cart")
	cart.Use(authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)

	admin := e.Group("/admin")
	admin.Use(authMW.RequireAdmin)
	admin.POST("/zones", d.AdminHandler.CreateZone)
	admin.PATCH("/zones/:id", d.AdminHandler.UpdateZone)
	admin.DELETE("/zones/:id", d.AdminHandler.DeleteZone)
	admin.POST("/zones/:id/sync", d.AdminHandler.SyncZone)
	admin.POST("/zones/:id/stores", d.AdminHandler.AddStore)
	admin.DELETE("/zones/:id/stores/:storeId", d.AdminHandler.RemoveStore)
	admin.POST("/stores", d.AdminHandler.CreateStore)
	admin.GET("/stores", d.AdminHandler.ListStores)
	admin.POST("/stores/:id/products", d.AdminHandler.CreateProduct)
}
