package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/zone_service/internal/auth"
	"github.com/Skotchmaster/zone_service/internal/models"
	"github.com/Skotchmaster/zone_service/internal/repo"
	"github.com/Skotchmaster/zone_service/pkg/logging"
)

type SyncResult struct {
	ZoneID      uuid.UUID `json:"zone_id"`
	Assigned    int       `json:"assigned"`
	Unassigned  int       `json:"unassigned"`
	Moved       int       `json:"moved"`
	PrunedItems int64     `json:"pruned_items"`
}

// syncRun collects the effects of one sync pass so events can be published
// after the transaction commits.
type syncRun struct {
	tx      repo.Repository
	pruner  *CartPruner
	allowed map[uuid.UUID][]uuid.UUID
	open    []uuid.UUID
	openSet bool
	pruned  map[uuid.UUID]struct{}
	events  []map[string]any
	result  SyncResult
}

func newSyncRun(tx repo.Repository, zoneID uuid.UUID) *syncRun {
	return &syncRun{
		tx:      tx,
		pruner:  &CartPruner{Repo: tx},
		allowed: map[uuid.UUID][]uuid.UUID{},
		pruned:  map[uuid.UUID]struct{}{},
		result:  SyncResult{ZoneID: zoneID},
	}
}

func (s *syncRun) allowedFor(ctx context.Context, zoneID *uuid.UUID) ([]uuid.UUID, error) {
	if zoneID == nil {
		if !s.openSet {
			open, err := s.pruner.AllowedStores(ctx, nil)
			if err != nil {
				return nil, err
			}
			s.open, s.openSet = open, true
		}
		return s.open, nil
	}
	if ids, ok := s.allowed[*zoneID]; ok {
		return ids, nil
	}
	ids, err := s.pruner.AllowedStores(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	s.allowed[*zoneID] = ids
	return ids, nil
}

// reassign moves the user to target and records the change.
func (s *syncRun) reassign(ctx context.Context, u models.User, target *uuid.UUID) error {
	if err := s.tx.SetUserZone(ctx, u.ID, target); err != nil {
		return err
	}
	switch {
	case u.ZoneID == nil:
		s.result.Assigned++
	case target == nil:
		s.result.Unassigned++
	default:
		s.result.Moved++
	}
	s.events = append(s.events, zoneChangedEvent(u.ID, u.ZoneID, target))
	return s.prune(ctx, u.ID, target)
}

func (s *syncRun) prune(ctx context.Context, userID uuid.UUID, zoneID *uuid.UUID) error {
	if _, done := s.pruned[userID]; done {
		return nil
	}
	allowed, err := s.allowedFor(ctx, zoneID)
	if err != nil {
		return err
	}
	res, err := s.pruner.pruneWithAllowed(ctx, userID, allowed)
	if err != nil {
		return err
	}
	s.pruned[userID] = struct{}{}
	if res.Removed > 0 {
		s.result.PrunedItems += res.Removed
		s.events = append(s.events, cartPrunedEvent(userID, res.CartID, zoneID, res.Removed))
	}
	return nil
}

// SyncZoneMembership re-evaluates every located user who is unassigned or
// assigned to the zone, updates their zone and prunes the carts of users
// whose reachable stores may have changed.
func (s *ZoneService) SyncZoneMembership(ctx context.Context, zoneID uuid.UUID) (*SyncResult, error) {
	if _, err := auth.RequireAdminSession(ctx); err != nil {
		return nil, err
	}
	var run *syncRun
	err := s.Repo.WithinTx(ctx, func(tx repo.Repository) error {
		var err error
		run, err = syncZone(ctx, tx, zoneID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, run.events)
	return &run.result, nil
}

// syncZone runs the membership pass inside tx. Users are matched against
// zones in ascending id order and the first containing zone wins.
func syncZone(ctx context.Context, tx repo.Repository, zoneID uuid.UUID) (*syncRun, error) {
	l := logging.FromContext(ctx).With("svc", "zone.sync", "zone_id", zoneID)

	if _, err := tx.GetZone(ctx, zoneID); err != nil {
		return nil, notFound(err, "zone", zoneID)
	}
	zones, err := tx.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := tx.ListSyncCandidates(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	run := newSyncRun(tx, zoneID)
	for _, u := range candidates {
		pt, _ := u.Location()
		var target *uuid.UUID
		if z := firstContaining(zones, u); z != nil {
			id := z.ID
			target = &id
		}
		inside := false
		for i := range zones {
			if zones[i].ID == zoneID {
				inside = zones[i].Polygon.Contains(pt)
				break
			}
		}
		// an unassigned user only changes here when this zone covers them
		if u.ZoneID == nil && !inside {
			continue
		}
		if sameZone(u.ZoneID, target) {
			continue
		}
		if err := run.reassign(ctx, u, target); err != nil {
			return nil, err
		}
	}

	// the roster may have changed, so everyone left in the zone is pruned
	members, err := tx.ListUsersInZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	id := zoneID
	for _, u := range members {
		if err := run.prune(ctx, u.ID, &id); err != nil {
			return nil, err
		}
	}

	l.Info("zone_synced",
		"candidates", len(candidates),
		"assigned", run.result.Assigned,
		"unassigned", run.result.Unassigned,
		"moved", run.result.Moved,
		"pruned_items", run.result.PrunedItems,
	)
	return run, nil
}
