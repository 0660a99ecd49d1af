package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/zone_service/internal/models"
	"github.com/Skotchmaster/zone_service/internal/repo"
	"github.com/Skotchmaster/zone_service/pkg/logging"
)

// CartPruner removes cart items whose store the cart owner can no longer
// reach.
type CartPruner struct {
	Repo repo.Repository
}

// PruneResult describes one pruned cart. CartID is uuid.Nil when the user
// had no active cart.
type PruneResult struct {
	CartID  uuid.UUID
	Removed int64
}

// RemoveItemsOutsideZone deletes every item of the cart whose product
// belongs to a store outside allowedStoreIDs. An empty allowed set empties
// the cart. A missing cart removes nothing and is not an error.
func (p *CartPruner) RemoveItemsOutsideZone(ctx context.Context, cartID uuid.UUID, allowedStoreIDs []uuid.UUID) (int64, error) {
	removed, err := p.Repo.DeleteCartItemsOutside(ctx, cartID, allowedStoreIDs)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logging.FromContext(ctx).With("svc", "cart.prune").
			Info("cart_items_removed", "cart_id", cartID, "removed", removed, "allowed_stores", len(allowedStoreIDs))
	}
	return removed, nil
}

// AllowedStores is the set of stores reachable from zoneID: the zone's
// roster plus every unrestricted store. A nil zone reaches only the
// unrestricted stores.
func (p *CartPruner) AllowedStores(ctx context.Context, zoneID *uuid.UUID) ([]uuid.UUID, error) {
	open, err := p.Repo.UnrestrictedStoreIDs(ctx)
	if err != nil {
		return nil, err
	}
	if zoneID == nil {
		return open, nil
	}
	roster, err := p.Repo.ZoneStoreIDs(ctx, *zoneID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]struct{}, len(roster)+len(open))
	out := make([]uuid.UUID, 0, len(roster)+len(open))
	for _, ids := range [][]uuid.UUID{roster, open} {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// PruneUserCart prunes the user's active cart against the stores reachable
// from zoneID.
func (p *CartPruner) PruneUserCart(ctx context.Context, userID uuid.UUID, zoneID *uuid.UUID) (PruneResult, error) {
	allowed, err := p.AllowedStores(ctx, zoneID)
	if err != nil {
		return PruneResult{}, err
	}
	return p.pruneWithAllowed(ctx, userID, allowed)
}

func (p *CartPruner) pruneWithAllowed(ctx context.Context, userID uuid.UUID, allowed []uuid.UUID) (PruneResult, error) {
	cart, err := p.Repo.ActiveCart(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return PruneResult{}, nil
	}
	if err != nil {
		return PruneResult{}, err
	}
	removed, err := p.RemoveItemsOutsideZone(ctx, cart.ID, allowed)
	if err != nil {
		return PruneResult{}, err
	}
	return PruneResult{CartID: cart.ID, Removed: removed}, nil
}

func reachable(allowed []uuid.UUID, storeID uuid.UUID) bool {
	for _, id := range allowed {
		if id == storeID {
			return true
		}
	}
	return false
}

// firstContaining returns the first zone, in the given order, whose polygon
// contains the user. zones must be sorted by id.
func firstContaining(zones []models.Zone, u models.User) *models.Zone {
	pt, ok := u.Location()
	if !ok {
		return nil
	}
	for i := range zones {
		if zones[i].Polygon.Contains(pt) {
			return &zones[i]
		}
	}
	return nil
}

func sameZone(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
