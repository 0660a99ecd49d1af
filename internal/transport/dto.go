package transport

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/i18n"
	"github.com/Skotchmaster/zone_service/internal/models"
)

type CreateZoneRequest struct {
	Name    string          `json:"name"    validate:"required,max=200"`
	Names   json.RawMessage `json:"names"`
	Polygon []geo.Point     `json:"polygon" validate:"required,min=3,dive"`
}

type UpdateZoneRequest struct {
	Name    *string         `json:"name"    validate:"omitempty,min=1,max=200"`
	Names   json.RawMessage `json:"names"`
	Polygon []geo.Point     `json:"polygon" validate:"omitempty,min=3,dive"`
}

type ZoneStoreRequest struct {
	StoreID uuid.UUID `json:"store_id"`
}

type CreateStoreRequest struct {
	Name         string  `json:"name"         validate:"required,max=200"`
	Lat          float64 `json:"lat"          validate:"gte=-90,lte=90"`
	Lng          float64 `json:"lng"          validate:"gte=-180,lte=180"`
	Unrestricted bool    `json:"unrestricted"`
}

type CreateProductRequest struct {
	Name  string  `json:"name"  validate:"required,max=200"`
	Price float64 `json:"price" validate:"gte=0"`
}

type LocationRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  uint      `json:"quantity"`
}

// ZoneResponse is a zone with its name resolved for the requested locale.
type ZoneResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Names       i18n.Translations `json:"names"`
	Polygon     geo.Polygon       `json:"polygon"`
}

func NewZoneResponse(z models.Zone, locale string) ZoneResponse {
	names := i18n.NormalizeTranslations(z.Names)
	return ZoneResponse{
		ID:          z.ID,
		Name:        z.Name,
		DisplayName: i18n.LocalizedName(names, locale, z.Name),
		Names:       names,
		Polygon:     z.Polygon,
	}
}
