package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/i18n"
)

const (
	CartStatusShopping   = "shopping"
	CartStatusCheckedOut = "checked_out"
)

type Zone struct {
	ID        uuid.UUID         `gorm:"primaryKey"                          json:"id"`
	Name      string            `gorm:"not null"                            json:"name"`
	Names     i18n.Translations `gorm:"type:jsonb;serializer:json"          json:"names"`
	Polygon   geo.Polygon       `gorm:"type:jsonb;serializer:json;not null" json:"polygon"`
	CreatedAt time.Time         `                                           json:"created_at"`
	UpdatedAt time.Time         `                                           json:"updated_at"`
}

type Store struct {
	ID           uuid.UUID `gorm:"primaryKey"              json:"id"`
	Name         string    `gorm:"not null"                json:"name"`
	Lat          float64   `gorm:"not null"                json:"lat"`
	Lng          float64   `gorm:"not null"                json:"lng"`
	Unrestricted bool      `gorm:"not null;default:false"  json:"unrestricted"`
	CreatedAt    time.Time `                               json:"created_at"`
}

// ZoneStore links a store to a zone. The composite key keeps at most one
// link per pair.
type ZoneStore struct {
	ZoneID    uuid.UUID `gorm:"primaryKey"       json:"zone_id"`
	StoreID   uuid.UUID `gorm:"primaryKey;index" json:"store_id"`
	CreatedAt time.Time `                        json:"created_at"`
}

type User struct {
	ID     uuid.UUID  `gorm:"primaryKey"            json:"id"`
	Role   string     `gorm:"not null;default:user" json:"role"`
	ZoneID *uuid.UUID `gorm:"index"                 json:"zone_id"`
	Lat    *float64   `                             json:"lat"`
	Lng    *float64   `                             json:"lng"`
}

// Location returns the user's coordinate, if both parts are set.
func (u User) Location() (geo.Point, bool) {
	if u.Lat == nil || u.Lng == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *u.Lat, Lng: *u.Lng}, true
}

type Product struct {
	ID      uuid.UUID `gorm:"primaryKey"     json:"id"`
	StoreID uuid.UUID `gorm:"index;not null" json:"store_id"`
	Name    string    `gorm:"not null"       json:"name"`
	Price   float64   `gorm:"not null"       json:"price"`
}

type ShoppingCart struct {
	ID        uuid.UUID `gorm:"primaryKey"                json:"id"`
	UserID    uuid.UUID `gorm:"index;not null"            json:"user_id"`
	Status    string    `gorm:"not null;default:shopping" json:"status"`
	CreatedAt time.Time `                                 json:"created_at"`
}

type CartItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                              json:"id"`
	CartID    uuid.UUID `gorm:"uniqueIndex:idx_cart_product;not null"   json:"cart_id"`
	ProductID uuid.UUID `gorm:"uniqueIndex:idx_cart_product;not null"   json:"product_id"`
	Quantity  uint      `gorm:"default:1;check:quantity>0"              json:"quantity"`
}

func (z *Zone) BeforeCreate(tx *gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (c *ShoppingCart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&Zone{}, &Store{}, &ZoneStore{}, &User{}, &Product{}, &ShoppingCart{}, &CartItem{}}
}
