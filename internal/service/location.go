package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/zone_service/internal/auth"
	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/models"
	"github.com/Skotchmaster/zone_service/internal/repo"
	"github.com/Skotchmaster/zone_service/pkg/logging"
)

type LocationService struct {
	Repo   repo.Repository
	Zones  *ZoneService
	Events *Events
}

type LocationResult struct {
	ZoneID      *uuid.UUID `json:"zone_id"`
	Changed     bool       `json:"changed"`
	PrunedItems int64      `json:"pruned_items"`
}

// ResolveZone returns the zone serving pt, or ErrNotFound when no zone
// covers it.
func (s *LocationService) ResolveZone(ctx context.Context, pt geo.Point) (*models.Zone, error) {
	if err := validate.Struct(pt); err != nil {
		return nil, validationErr(err)
	}
	zones, err := s.Zones.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	for i := range zones {
		if zones[i].Polygon.Contains(pt) {
			return &zones[i], nil
		}
	}
	return nil, fmt.Errorf("no zone covers %.6f,%.6f: %w", pt.Lat, pt.Lng, ErrNotFound)
}

// UpdateUserLocation stores the caller's coordinate, moves them to the zone
// that now covers it and prunes their cart when the zone changed.
func (s *LocationService) UpdateUserLocation(ctx context.Context, pt geo.Point) (*LocationResult, error) {
	id, err := auth.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(pt); err != nil {
		return nil, validationErr(err)
	}
	l := logging.FromContext(ctx).With("svc", "location.update", "user_id", id.UserID)

	var (
		res    LocationResult
		events []map[string]any
	)
	err = s.Repo.WithinTx(ctx, func(tx repo.Repository) error {
		u, err := tx.GetUser(ctx, id.UserID)
		if errors.Is(err, repo.ErrNotFound) {
			u = &models.User{ID: id.UserID, Role: id.Role}
			err = tx.CreateUser(ctx, u)
		}
		if err != nil {
			return err
		}
		if err := tx.SetUserLocation(ctx, u.ID, pt); err != nil {
			return err
		}
		lat, lng := pt.Lat, pt.Lng
		u.Lat, u.Lng = &lat, &lng

		zones, err := tx.ListZones(ctx)
		if err != nil {
			return err
		}
		var target *uuid.UUID
		if z := firstContaining(zones, *u); z != nil {
			zid := z.ID
			target = &zid
		}
		res.ZoneID = target
		if sameZone(u.ZoneID, target) {
			return nil
		}

		if err := tx.SetUserZone(ctx, u.ID, target); err != nil {
			return err
		}
		res.Changed = true
		events = append(events, zoneChangedEvent(u.ID, u.ZoneID, target))

		pruner := &CartPruner{Repo: tx}
		pr, err := pruner.PruneUserCart(ctx, u.ID, target)
		if err != nil {
			return err
		}
		res.PrunedItems = pr.Removed
		if pr.Removed > 0 {
			events = append(events, cartPrunedEvent(u.ID, pr.CartID, target, pr.Removed))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Events.publish(ctx, events)
	l.Info("location_updated", "zone_id", res.ZoneID, "changed", res.Changed, "pruned_items", res.PrunedItems)
	return &res, nil
}
