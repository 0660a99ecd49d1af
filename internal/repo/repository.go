// Package repo is the persistence layer of the zone service. Repository is
// implemented by GormRepo for postgres and by MemoryRepo for tests.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/models"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	// WithinTx runs fn against a repository bound to a single transaction.
	// Returning an error from fn rolls everything back.
	WithinTx(ctx context.Context, fn func(r Repository) error) error

	GetZone(ctx context.Context, id uuid.UUID) (*models.Zone, error)
	// ListZones returns every zone ordered by id.
	ListZones(ctx context.Context) ([]models.Zone, error)
	CreateZone(ctx context.Context, z *models.Zone) error
	UpdateZone(ctx context.Context, z *models.Zone) error
	DeleteZone(ctx context.Context, id uuid.UUID) error

	GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error)
	ListStores(ctx context.Context) ([]models.Store, error)
	CreateStore(ctx context.Context, s *models.Store) error
	LinkStore(ctx context.Context, zoneID, storeID uuid.UUID) (bool, error)
	UnlinkStore(ctx context.Context, zoneID, storeID uuid.UUID) (bool, error)
	ZoneStoreIDs(ctx context.Context, zoneID uuid.UUID) ([]uuid.UUID, error)
	UnrestrictedStoreIDs(ctx context.Context) ([]uuid.UUID, error)

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	// ListSyncCandidates returns users with a coordinate that are either
	// unassigned or assigned to zoneID.
	ListSyncCandidates(ctx context.Context, zoneID uuid.UUID) ([]models.User, error)
	ListUsersInZone(ctx context.Context, zoneID uuid.UUID) ([]models.User, error)
	SetUserZone(ctx context.Context, userID uuid.UUID, zoneID *uuid.UUID) error
	SetUserLocation(ctx context.Context, userID uuid.UUID, pt geo.Point) error

	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error

	ActiveCart(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error)
	EnsureActiveCart(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error)
	CartItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	AddCartItem(ctx context.Context, item *models.CartItem) error
	// DeleteCartItemsOutside deletes the items of cartID whose product
	// belongs to a store not in keepStoreIDs. An empty keep set empties the
	// cart.
	DeleteCartItemsOutside(ctx context.Context, cartID uuid.UUID, keepStoreIDs []uuid.UUID) (int64, error)
}
