package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/i18n"
	"github.com/Skotchmaster/zone_service/internal/models"
)

var square = geo.Polygon{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 10}, {Lat: 10, Lng: 10}, {Lat: 10, Lng: 0}}

func ptr(f float64) *float64 { return &f }

// testRepository runs the same behaviour checks against every Repository
// implementation.
func testRepository(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("zone crud", func(t *testing.T) {
		r := newRepo(t)
		z := &models.Zone{Name: "center", Names: i18n.Translations{"en": "Center", "ru": "Центр"}, Polygon: square}
		require.NoError(t, r.CreateZone(ctx, z))
		require.NotEqual(t, uuid.Nil, z.ID)

		got, err := r.GetZone(ctx, z.ID)
		require.NoError(t, err)
		assert.Equal(t, "center", got.Name)
		assert.Equal(t, "Центр", got.Names["ru"])
		assert.Equal(t, square, got.Polygon)

		got.Name = "downtown"
		got.Polygon = geo.Polygon{{Lat: 1, Lng: 1}, {Lat: 1, Lng: 2}, {Lat: 2, Lng: 2}}
		require.NoError(t, r.UpdateZone(ctx, got))

		again, err := r.GetZone(ctx, z.ID)
		require.NoError(t, err)
		assert.Equal(t, "downtown", again.Name)
		assert.Len(t, again.Polygon, 3)

		require.NoError(t, r.DeleteZone(ctx, z.ID))
		_, err = r.GetZone(ctx, z.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, r.DeleteZone(ctx, z.ID), ErrNotFound)
		assert.ErrorIs(t, r.UpdateZone(ctx, &models.Zone{ID: uuid.New(), Name: "x", Polygon: square}), ErrNotFound)
	})

	t.Run("zones listed by id", func(t *testing.T) {
		r := newRepo(t)
		for _, name := range []string{"a", "b", "c", "d"} {
			require.NoError(t, r.CreateZone(ctx, &models.Zone{Name: name, Polygon: square}))
		}
		zones, err := r.ListZones(ctx)
		require.NoError(t, err)
		require.Len(t, zones, 4)
		for i := 1; i < len(zones); i++ {
			assert.Less(t, zones[i-1].ID.String(), zones[i].ID.String())
		}
	})

	t.Run("store links are unique", func(t *testing.T) {
		r := newRepo(t)
		z := &models.Zone{Name: "z", Polygon: square}
		require.NoError(t, r.CreateZone(ctx, z))
		s := &models.Store{Name: "s"}
		require.NoError(t, r.CreateStore(ctx, s))

		created, err := r.LinkStore(ctx, z.ID, s.ID)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = r.LinkStore(ctx, z.ID, s.ID)
		require.NoError(t, err)
		assert.False(t, created)

		ids, err := r.ZoneStoreIDs(ctx, z.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{s.ID}, ids)

		removed, err := r.UnlinkStore(ctx, z.ID, s.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = r.UnlinkStore(ctx, z.ID, s.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		ids, err = r.ZoneStoreIDs(ctx, z.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("deleting a zone drops its links", func(t *testing.T) {
		r := newRepo(t)
		z := &models.Zone{Name: "z", Polygon: square}
		require.NoError(t, r.CreateZone(ctx, z))
		s := &models.Store{Name: "s"}
		require.NoError(t, r.CreateStore(ctx, s))
		_, err := r.LinkStore(ctx, z.ID, s.ID)
		require.NoError(t, err)

		require.NoError(t, r.DeleteZone(ctx, z.ID))
		ids, err := r.ZoneStoreIDs(ctx, z.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)

		_, err = r.GetStore(ctx, s.ID)
		require.NoError(t, err)
	})

	t.Run("unrestricted stores", func(t *testing.T) {
		r := newRepo(t)
		open := &models.Store{Name: "open", Unrestricted: true}
		closed := &models.Store{Name: "closed"}
		require.NoError(t, r.CreateStore(ctx, open))
		require.NoError(t, r.CreateStore(ctx, closed))

		ids, err := r.UnrestrictedStoreIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{open.ID}, ids)

		stores, err := r.ListStores(ctx)
		require.NoError(t, err)
		assert.Len(t, stores, 2)
	})

	t.Run("sync candidates", func(t *testing.T) {
		r := newRepo(t)
		z := &models.Zone{Name: "z", Polygon: square}
		other := &models.Zone{Name: "other", Polygon: square}
		require.NoError(t, r.CreateZone(ctx, z))
		require.NoError(t, r.CreateZone(ctx, other))

		free := &models.User{Lat: ptr(1), Lng: ptr(1)}
		mine := &models.User{Lat: ptr(2), Lng: ptr(2), ZoneID: &z.ID}
		elsewhere := &models.User{Lat: ptr(3), Lng: ptr(3), ZoneID: &other.ID}
		nowhere := &models.User{}
		for _, u := range []*models.User{free, mine, elsewhere, nowhere} {
			require.NoError(t, r.CreateUser(ctx, u))
		}

		users, err := r.ListSyncCandidates(ctx, z.ID)
		require.NoError(t, err)
		got := map[uuid.UUID]bool{}
		for _, u := range users {
			got[u.ID] = true
		}
		assert.Equal(t, map[uuid.UUID]bool{free.ID: true, mine.ID: true}, got)

		inZone, err := r.ListUsersInZone(ctx, z.ID)
		require.NoError(t, err)
		require.Len(t, inZone, 1)
		assert.Equal(t, mine.ID, inZone[0].ID)
	})

	t.Run("user zone and location", func(t *testing.T) {
		r := newRepo(t)
		z := &models.Zone{Name: "z", Polygon: square}
		require.NoError(t, r.CreateZone(ctx, z))
		u := &models.User{}
		require.NoError(t, r.CreateUser(ctx, u))

		require.NoError(t, r.SetUserLocation(ctx, u.ID, geo.Point{Lat: 5, Lng: 6}))
		require.NoError(t, r.SetUserZone(ctx, u.ID, &z.ID))

		got, err := r.GetUser(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ZoneID)
		assert.Equal(t, z.ID, *got.ZoneID)
		pt, ok := got.Location()
		require.True(t, ok)
		assert.Equal(t, geo.Point{Lat: 5, Lng: 6}, pt)

		require.NoError(t, r.SetUserZone(ctx, u.ID, nil))
		got, err = r.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ZoneID)

		assert.ErrorIs(t, r.SetUserZone(ctx, uuid.New(), nil), ErrNotFound)
		assert.ErrorIs(t, r.SetUserLocation(ctx, uuid.New(), geo.Point{}), ErrNotFound)
	})

	t.Run("cart items", func(t *testing.T) {
		r := newRepo(t)
		keep := &models.Store{Name: "keep"}
		drop := &models.Store{Name: "drop"}
		require.NoError(t, r.CreateStore(ctx, keep))
		require.NoError(t, r.CreateStore(ctx, drop))
		pKeep := &models.Product{StoreID: keep.ID, Name: "milk", Price: 1}
		pDrop := &models.Product{StoreID: drop.ID, Name: "bread", Price: 2}
		require.NoError(t, r.CreateProduct(ctx, pKeep))
		require.NoError(t, r.CreateProduct(ctx, pDrop))

		userID := uuid.New()
		_, err := r.ActiveCart(ctx, userID)
		assert.ErrorIs(t, err, ErrNotFound)

		cart, err := r.EnsureActiveCart(ctx, userID)
		require.NoError(t, err)
		same, err := r.EnsureActiveCart(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, cart.ID, same.ID)

		require.NoError(t, r.AddCartItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: pKeep.ID, Quantity: 1}))
		require.NoError(t, r.AddCartItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: pKeep.ID, Quantity: 2}))
		require.NoError(t, r.AddCartItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: pDrop.ID, Quantity: 1}))

		items, err := r.CartItems(ctx, cart.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		qty := map[uuid.UUID]uint{}
		for _, it := range items {
			qty[it.ProductID] = it.Quantity
		}
		assert.Equal(t, uint(3), qty[pKeep.ID])

		removed, err := r.DeleteCartItemsOutside(ctx, cart.ID, []uuid.UUID{keep.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		removed, err = r.DeleteCartItemsOutside(ctx, cart.ID, []uuid.UUID{keep.ID})
		require.NoError(t, err)
		assert.Zero(t, removed)

		removed, err = r.DeleteCartItemsOutside(ctx, cart.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		items, err = r.CartItems(ctx, cart.ID)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("pruning leaves other carts alone", func(t *testing.T) {
		r := newRepo(t)
		s := &models.Store{Name: "s"}
		require.NoError(t, r.CreateStore(ctx, s))
		p := &models.Product{StoreID: s.ID, Name: "p", Price: 1}
		require.NoError(t, r.CreateProduct(ctx, p))

		a, err := r.EnsureActiveCart(ctx, uuid.New())
		require.NoError(t, err)
		b, err := r.EnsureActiveCart(ctx, uuid.New())
		require.NoError(t, err)
		require.NoError(t, r.AddCartItem(ctx, &models.CartItem{CartID: a.ID, ProductID: p.ID, Quantity: 1}))
		require.NoError(t, r.AddCartItem(ctx, &models.CartItem{CartID: b.ID, ProductID: p.ID, Quantity: 1}))

		removed, err := r.DeleteCartItemsOutside(ctx, a.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		items, err := r.CartItems(ctx, b.ID)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		r := newRepo(t)
		boom := errors.New("boom")
		var zoneID uuid.UUID

		err := r.WithinTx(ctx, func(tx Repository) error {
			z := &models.Zone{Name: "tmp", Polygon: square}
			if err := tx.CreateZone(ctx, z); err != nil {
				return err
			}
			zoneID = z.ID
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = r.GetZone(ctx, zoneID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("transaction commits", func(t *testing.T) {
		r := newRepo(t)
		z := &models.Zone{Name: "kept", Polygon: square}
		require.NoError(t, r.WithinTx(ctx, func(tx Repository) error {
			return tx.CreateZone(ctx, z)
		}))
		_, err := r.GetZone(ctx, z.ID)
		require.NoError(t, err)
	})
}
