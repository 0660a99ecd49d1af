package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/i18n"
	"github.com/Skotchmaster/zone_service/internal/models"
)

type linkKey struct {
	zone, store uuid.UUID
}

type memState struct {
	zones    map[uuid.UUID]models.Zone
	stores   map[uuid.UUID]models.Store
	links    map[linkKey]time.Time
	users    map[uuid.UUID]models.User
	products map[uuid.UUID]models.Product
	carts    map[uuid.UUID]models.ShoppingCart
	items    map[uuid.UUID]models.CartItem
}

// MemoryRepo keeps everything in maps. WithinTx restores a snapshot when fn
// fails but does not isolate concurrent writers.
type MemoryRepo struct {
	mu sync.RWMutex
	st memState
}

var _ Repository = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{st: memState{
		zones:    map[uuid.UUID]models.Zone{},
		stores:   map[uuid.UUID]models.Store{},
		links:    map[linkKey]time.Time{},
		users:    map[uuid.UUID]models.User{},
		products: map[uuid.UUID]models.Product{},
		carts:    map[uuid.UUID]models.ShoppingCart{},
		items:    map[uuid.UUID]models.CartItem{},
	}}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *MemoryRepo) snapshot() memState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return memState{
		zones:    copyMap(m.st.zones),
		stores:   copyMap(m.st.stores),
		links:    copyMap(m.st.links),
		users:    copyMap(m.st.users),
		products: copyMap(m.st.products),
		carts:    copyMap(m.st.carts),
		items:    copyMap(m.st.items),
	}
}

func (m *MemoryRepo) WithinTx(ctx context.Context, fn func(r Repository) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.mu.Lock()
		m.st = snap
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneZone(z models.Zone) models.Zone {
	z.Polygon = append(geo.Polygon(nil), z.Polygon...)
	if z.Names != nil {
		names := make(i18n.Translations, len(z.Names))
		for k, v := range z.Names {
			names[k] = v
		}
		z.Names = names
	}
	return z
}

func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func (m *MemoryRepo) GetZone(ctx context.Context, id uuid.UUID) (*models.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.st.zones[id]
	if !ok {
		return nil, ErrNotFound
	}
	z = cloneZone(z)
	return &z, nil
}

func (m *MemoryRepo) ListZones(ctx context.Context) ([]models.Zone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	zones := make([]models.Zone, 0, len(m.st.zones))
	for _, z := range m.st.zones {
		zones = append(zones, cloneZone(z))
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID.String() < zones[j].ID.String() })
	return zones, nil
}

func (m *MemoryRepo) CreateZone(ctx context.Context, z *models.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	now := time.Now().UTC()
	z.CreatedAt, z.UpdatedAt = now, now
	m.st.zones[z.ID] = cloneZone(*z)
	return nil
}

func (m *MemoryRepo) UpdateZone(ctx context.Context, z *models.Zone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.st.zones[z.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = z.Name
	cur.Names = z.Names
	cur.Polygon = z.Polygon
	cur.UpdatedAt = time.Now().UTC()
	m.st.zones[z.ID] = cloneZone(cur)
	z.UpdatedAt = cur.UpdatedAt
	return nil
}

func (m *MemoryRepo) DeleteZone(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.zones[id]; !ok {
		return ErrNotFound
	}
	delete(m.st.zones, id)
	for k := range m.st.links {
		if k.zone == id {
			delete(m.st.links, k)
		}
	}
	return nil
}

func (m *MemoryRepo) GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.st.stores[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryRepo) ListStores(ctx context.Context) ([]models.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stores := make([]models.Store, 0, len(m.st.stores))
	for _, s := range m.st.stores {
		stores = append(stores, s)
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].ID.String() < stores[j].ID.String() })
	return stores, nil
}

func (m *MemoryRepo) CreateStore(ctx context.Context, s *models.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now().UTC()
	m.st.stores[s.ID] = *s
	return nil
}

func (m *MemoryRepo) LinkStore(ctx context.Context, zoneID, storeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := linkKey{zone: zoneID, store: storeID}
	if _, ok := m.st.links[k]; ok {
		return false, nil
	}
	m.st.links[k] = time.Now().UTC()
	return true, nil
}

func (m *MemoryRepo) UnlinkStore(ctx context.Context, zoneID, storeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := linkKey{zone: zoneID, store: storeID}
	if _, ok := m.st.links[k]; !ok {
		return false, nil
	}
	delete(m.st.links, k)
	return true, nil
}

func (m *MemoryRepo) ZoneStoreIDs(ctx context.Context, zoneID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []uuid.UUID
	for k := range m.st.links {
		if k.zone == zoneID {
			ids = append(ids, k.store)
		}
	}
	return sortedIDs(ids), nil
}

func (m *MemoryRepo) UnrestrictedStoreIDs(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []uuid.UUID
	for id, s := range m.st.stores {
		if s.Unrestricted {
			ids = append(ids, id)
		}
	}
	return sortedIDs(ids), nil
}

func (m *MemoryRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.st.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryRepo) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = "user"
	}
	m.st.users[u.ID] = *u
	return nil
}

func (m *MemoryRepo) filterUsers(keep func(models.User) bool) []models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var users []models.User
	for _, u := range m.st.users {
		if keep(u) {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID.String() < users[j].ID.String() })
	return users
}

func (m *MemoryRepo) ListSyncCandidates(ctx context.Context, zoneID uuid.UUID) ([]models.User, error) {
	return m.filterUsers(func(u models.User) bool {
		if _, ok := u.Location(); !ok {
			return false
		}
		return u.ZoneID == nil || *u.ZoneID == zoneID
	}), nil
}

func (m *MemoryRepo) ListUsersInZone(ctx context.Context, zoneID uuid.UUID) ([]models.User, error) {
	return m.filterUsers(func(u models.User) bool {
		return u.ZoneID != nil && *u.ZoneID == zoneID
	}), nil
}

func (m *MemoryRepo) SetUserZone(ctx context.Context, userID uuid.UUID, zoneID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.st.users[userID]
	if !ok {
		return ErrNotFound
	}
	if zoneID != nil {
		id := *zoneID
		u.ZoneID = &id
	} else {
		u.ZoneID = nil
	}
	m.st.users[userID] = u
	return nil
}

func (m *MemoryRepo) SetUserLocation(ctx context.Context, userID uuid.UUID, pt geo.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.st.users[userID]
	if !ok {
		return ErrNotFound
	}
	lat, lng := pt.Lat, pt.Lng
	u.Lat, u.Lng = &lat, &lng
	m.st.users[userID] = u
	return nil
}

func (m *MemoryRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.st.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.st.products[p.ID] = *p
	return nil
}

func (m *MemoryRepo) ActiveCart(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *models.ShoppingCart
	for _, c := range m.st.carts {
		if c.UserID != userID || c.Status != models.CartStatusShopping {
			continue
		}
		if found == nil || c.CreatedAt.After(found.CreatedAt) {
			c := c
			found = &c
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (m *MemoryRepo) EnsureActiveCart(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error) {
	if cart, err := m.ActiveCart(ctx, userID); err == nil {
		return cart, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := models.ShoppingCart{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    models.CartStatusShopping,
		CreatedAt: time.Now().UTC(),
	}
	m.st.carts[cart.ID] = cart
	return &cart, nil
}

// PutCart stores a cart as given, for seeding carts in a specific state.
func (m *MemoryRepo) PutCart(cart models.ShoppingCart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = time.Now().UTC()
	}
	m.st.carts[cart.ID] = cart
}

func (m *MemoryRepo) CartItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var items []models.CartItem
	for _, it := range m.st.items {
		if it.CartID == cartID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID.String() < items[j].ID.String() })
	return items, nil
}

func (m *MemoryRepo) AddCartItem(ctx context.Context, item *models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, it := range m.st.items {
		if it.CartID == item.CartID && it.ProductID == item.ProductID {
			it.Quantity += item.Quantity
			m.st.items[id] = it
			*item = it
			return nil
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	m.st.items[item.ID] = *item
	return nil
}

func (m *MemoryRepo) DeleteCartItemsOutside(ctx context.Context, cartID uuid.UUID, keepStoreIDs []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keep := make(map[uuid.UUID]struct{}, len(keepStoreIDs))
	for _, id := range keepStoreIDs {
		keep[id] = struct{}{}
	}
	var removed int64
	for id, it := range m.st.items {
		if it.CartID != cartID {
			continue
		}
		if p, ok := m.st.products[it.ProductID]; ok {
			if _, allowed := keep[p.StoreID]; allowed {
				continue
			}
		}
		delete(m.st.items, id)
		removed++
	}
	return removed, nil
}
