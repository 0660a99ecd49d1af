package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/zone_service/internal/auth"
	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/models"
	"github.com/Skotchmaster/zone_service/internal/repo"
)

func adminCtx() context.Context {
	return auth.IntoContext(context.Background(), auth.Identity{UserID: uuid.New(), Role: auth.RoleAdmin})
}

func userCtx(userID uuid.UUID) context.Context {
	return auth.IntoContext(context.Background(), auth.Identity{UserID: userID, Role: "user"})
}

func rect(minLat, minLng, maxLat, maxLng float64) geo.Polygon {
	return geo.Polygon{
		{Lat: minLat, Lng: minLng},
		{Lat: minLat, Lng: maxLng},
		{Lat: maxLat, Lng: maxLng},
		{Lat: maxLat, Lng: minLng},
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []map[string]any
	keys   []string
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, event.(map[string]any))
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev["type"].(string))
	}
	return out
}

type fakeCache struct {
	zones       []models.Zone
	ok          bool
	sets        int
	invalidated int
}

func (c *fakeCache) GetZones(ctx context.Context) ([]models.Zone, bool) { return c.zones, c.ok }

func (c *fakeCache) SetZones(ctx context.Context, zones []models.Zone) {
	c.zones, c.ok = zones, true
	c.sets++
}

func (c *fakeCache) Invalidate(ctx context.Context) {
	c.zones, c.ok = nil, false
	c.invalidated++
}

// failingRepo fails every cart deletion so transactional rollback can be
// observed.
type failingRepo struct {
	repo.Repository
}

var errInjected = errors.New("injected failure")

func (f failingRepo) WithinTx(ctx context.Context, fn func(r repo.Repository) error) error {
	return f.Repository.WithinTx(ctx, func(tx repo.Repository) error { return fn(failingRepo{tx}) })
}

func (f failingRepo) DeleteCartItemsOutside(ctx context.Context, cartID uuid.UUID, keep []uuid.UUID) (int64, error) {
	return 0, errInjected
}

type fixture struct {
	repo   repo.Repository
	pub    *recordingPublisher
	events *Events
	zones  *ZoneService
	loc    *LocationService
	carts  *CartService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, repo.NewMemoryRepo())
}

// newGormFixture runs the services on GormRepo over an in-memory sqlite
// database.
func newGormFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return newFixtureOn(t, repo.NewGormRepo(db))
}

func newFixtureOn(t *testing.T, r repo.Repository) *fixture {
	t.Helper()
	pub := &recordingPublisher{}
	ev := &Events{Pub: pub, Topic: "zone_events"}
	zs := &ZoneService{Repo: r, Events: ev}
	return &fixture{
		repo:   r,
		pub:    pub,
		events: ev,
		zones:  zs,
		loc:    &LocationService{Repo: r, Zones: zs, Events: ev},
		carts:  &CartService{Repo: r, Events: ev},
	}
}

func (f *fixture) zone(t *testing.T, name string, poly geo.Polygon) *models.Zone {
	t.Helper()
	z := &models.Zone{Name: name, Polygon: poly}
	require.NoError(t, f.repo.CreateZone(context.Background(), z))
	return z
}

func (f *fixture) store(t *testing.T, name string, unrestricted bool) *models.Store {
	t.Helper()
	s := &models.Store{Name: name, Unrestricted: unrestricted}
	require.NoError(t, f.repo.CreateStore(context.Background(), s))
	return s
}

func (f *fixture) link(t *testing.T, z *models.Zone, s *models.Store) {
	t.Helper()
	_, err := f.repo.LinkStore(context.Background(), z.ID, s.ID)
	require.NoError(t, err)
}

func (f *fixture) user(t *testing.T, lat, lng float64, zoneID *uuid.UUID) *models.User {
	t.Helper()
	u := &models.User{Lat: &lat, Lng: &lng, ZoneID: zoneID}
	require.NoError(t, f.repo.CreateUser(context.Background(), u))
	return u
}

// item puts one unit of a fresh product from store s into the user's cart.
func (f *fixture) item(t *testing.T, userID uuid.UUID, s *models.Store) *models.CartItem {
	t.Helper()
	ctx := context.Background()
	p := &models.Product{StoreID: s.ID, Name: s.Name + " product", Price: 1}
	require.NoError(t, f.repo.CreateProduct(ctx, p))
	cart, err := f.repo.EnsureActiveCart(ctx, userID)
	require.NoError(t, err)
	it := &models.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: 1}
	require.NoError(t, f.repo.AddCartItem(ctx, it))
	return it
}

func (f *fixture) cartProducts(t *testing.T, userID uuid.UUID) []uuid.UUID {
	t.Helper()
	ctx := context.Background()
	cart, err := f.repo.ActiveCart(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	require.NoError(t, err)
	items, err := f.repo.CartItems(ctx, cart.ID)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func (f *fixture) zoneOf(t *testing.T, userID uuid.UUID) *uuid.UUID {
	t.Helper()
	u, err := f.repo.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return u.ZoneID
}
