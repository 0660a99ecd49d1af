package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/zone_service/internal/auth"
	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/i18n"
	"github.com/Skotchmaster/zone_service/internal/models"
	"github.com/Skotchmaster/zone_service/internal/repo"
	"github.com/Skotchmaster/zone_service/pkg/logging"
)

type ZoneService struct {
	Repo   repo.Repository
	Cache  ZoneCache
	Events *Events
}

type ZoneInput struct {
	Name    string      `validate:"required,max=200"`
	Names   any         `validate:"-"`
	Polygon geo.Polygon `validate:"required,min=3,dive"`
}

// ZoneUpdate leaves nil fields untouched.
type ZoneUpdate struct {
	Name    *string     `validate:"omitempty,min=1,max=200"`
	Names   any         `validate:"-"`
	Polygon geo.Polygon `validate:"omitempty,min=3,dive"`
}

type StoreInput struct {
	Name         string  `validate:"required,max=200"`
	Lat          float64 `validate:"gte=-90,lte=90"`
	Lng          float64 `validate:"gte=-180,lte=180"`
	Unrestricted bool
}

func (s *ZoneService) afterCommit(ctx context.Context, events []map[string]any) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx)
	}
	s.Events.publish(ctx, events)
}

func (s *ZoneService) GetZone(ctx context.Context, id uuid.UUID) (*models.Zone, error) {
	z, err := s.Repo.GetZone(ctx, id)
	if err != nil {
		return nil, notFound(err, "zone", id)
	}
	return z, nil
}

// ListZones returns every zone ordered by id, served from the cache when
// possible.
func (s *ZoneService) ListZones(ctx context.Context) ([]models.Zone, error) {
	if s.Cache != nil {
		if zones, ok := s.Cache.GetZones(ctx); ok {
			return zones, nil
		}
	}
	zones, err := s.Repo.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		s.Cache.SetZones(ctx, zones)
	}
	return zones, nil
}

func (s *ZoneService) CreateZone(ctx context.Context, in ZoneInput) (*models.Zone, *SyncResult, error) {
	if _, err := auth.RequireAdminSession(ctx); err != nil {
		return nil, nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, nil, validationErr(err)
	}
	if !in.Polygon.Valid() {
		return nil, nil, fmt.Errorf("polygon has invalid vertices: %w", ErrValidation)
	}

	z := &models.Zone{
		Name:    in.Name,
		Names:   i18n.NormalizeTranslations(in.Names),
		Polygon: in.Polygon,
	}
	var run *syncRun
	err := s.Repo.WithinTx(ctx, func(tx repo.Repository) error {
		if err := tx.CreateZone(ctx, z); err != nil {
			return err
		}
		var err error
		run, err = syncZone(ctx, tx, z.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.afterCommit(ctx, run.events)
	logging.FromContext(ctx).With("svc", "zone.admin").Info("zone_created", "zone_id", z.ID, "vertices", len(z.Polygon))
	return z, &run.result, nil
}

// UpdateZone applies the non-nil fields. A new polygon re-syncs membership
// in the same transaction; the returned SyncResult is nil otherwise.
func (s *ZoneService) UpdateZone(ctx context.Context, id uuid.UUID, in ZoneUpdate) (*models.Zone, *SyncResult, error) {
	if _, err := auth.RequireAdminSession(ctx); err != nil {
		return nil, nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, nil, validationErr(err)
	}
	if in.Polygon != nil && !in.Polygon.Valid() {
		return nil, nil, fmt.Errorf("polygon has invalid vertices: %w", ErrValidation)
	}

	var (
		z   *models.Zone
		run *syncRun
	)
	err := s.Repo.WithinTx(ctx, func(tx repo.Repository) error {
		var err error
		z, err = tx.GetZone(ctx, id)
		if err != nil {
			return notFound(err, "zone", id)
		}
		if in.Name != nil {
			z.Name = *in.Name
		}
		if in.Names != nil {
			z.Names = i18n.NormalizeTranslations(in.Names)
		}
		if in.Polygon != nil {
			z.Polygon = in.Polygon
		}
		if err := tx.UpdateZone(ctx, z); err != nil {
			return notFound(err, "zone", id)
		}
		if in.Polygon == nil {
			return nil
		}
		run, err = syncZone(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if run == nil {
		s.afterCommit(ctx, nil)
		return z, nil, nil
	}
	s.afterCommit(ctx, run.events)
	return z, &run.result, nil
}

// DeleteZone removes the zone and its store links. Its users are placed in
// the next containing zone, or left unassigned, and their carts are pruned.
func (s *ZoneService) DeleteZone(ctx context.Context, id uuid.UUID) (*SyncResult, error) {
	if _, err := auth.RequireAdminSession(ctx); err != nil {
		return nil, err
	}

	var run *syncRun
	err := s.Repo.WithinTx(ctx, func(tx repo.Repository) error {
		if _, err := tx.GetZone(ctx, id); err != nil {
			return notFound(err, "zone", id)
		}
		members, err := tx.ListUsersInZone(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteZone(ctx, id); err != nil {
			return notFound(err, "zone", id)
		}
		zones, err := tx.ListZones(ctx)
		if err != nil {
			return err
		}

		run = newSyncRun(tx, id)
		for _, u := range members {
			var target *uuid.UUID
			if z := firstContaining(zones, u); z != nil {
				zid := z.ID
				target = &zid
			}
			if err := run.reassign(ctx, u, target); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, run.events)
	logging.FromContext(ctx).With("svc", "zone.admin").Info("zone_deleted", "zone_id", id, "moved", run.result.Moved, "unassigned", run.result.Unassigned)
	return &run.result, nil
}

func (s *ZoneService) AddStoreToZone(ctx context.Context, zoneID, storeID uuid.UUID) (*SyncResult, error) {
	if _, err := auth.RequireAdminSession(ctx); err != nil {
		return nil, err
	}
	if zoneID == uuid.Nil || storeID == uuid.Nil {
		return nil, fmt.Errorf("zone id and store id are required: %w", ErrValidation)
	}
	return s.editRoster(ctx, zoneID, func(tx repo.Repository) error {
		if _, err := tx.GetStore(ctx, storeID); err != nil {
			return notFound(err, "store", storeID)
		}
		_, err := tx.LinkStore(ctx, zoneID, storeID)
		return err
	})
}

// RemoveStoreFromZone unlinks the store. Removing a link that does not exist
// still re-syncs the zone.
func (s *ZoneService) RemoveStoreFromZone(ctx context.Context, zoneID, storeID uuid.UUID) (*SyncResult, error) {
	if _, err := auth.RequireAdminSession(ctx); err != nil {
		return nil, err
	}
	if zoneID == uuid.Nil || storeID == uuid.Nil {
		return nil, fmt.Errorf("zone id and store id are required: %w", ErrValidation)
	}
	return s.editRoster(ctx, zoneID, func(tx repo.Repository) error {
		_, err := tx.UnlinkStore(ctx, zoneID, storeID)
		return err
	})
}

func (s *ZoneService) editRoster(ctx context.Context, zoneID uuid.UUID, edit func(tx repo.Repository) error) (*SyncResult, error) {
	var run *syncRun
	err := s.Repo.WithinTx(ctx, func(tx repo.Repository) error {
		if _, err := tx.GetZone(ctx, zoneID); err != nil {
			return notFound(err, "zone", zoneID)
		}
		if err := edit(tx); err != nil {
			return err
		}
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

func (s *ZoneService) CreateStore(ctx context.Context, in StoreInput) (*models.Store, error) {
	if _, err := auth.RequireAdminSession(ctx); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, validationErr(err)
	}
	st := &models.Store{Name: in.Name, Lat: in.Lat, Lng: in.Lng, Unrestricted: in.Unrestricted}
	if err := s.Repo.CreateStore(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *ZoneService) ListStores(ctx context.Context) ([]models.Store, error) {
	if _, err := auth.RequireAdminSession(ctx); err != nil {
		return nil, err
	}
	return s.Repo.ListStores(ctx)
}

// ZoneStores lists the stores linked to a zone.
func (s *ZoneService) ZoneStores(ctx context.Context, zoneID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.Repo.GetZone(ctx, zoneID); err != nil {
		return nil, notFound(err, "zone", zoneID)
	}
	return s.Repo.ZoneStoreIDs(ctx, zoneID)
}

type ProductInput struct {
	Name  string  `validate:"required,max=200"`
	Price float64 `validate:"gte=0"`
}

// CreateProduct registers a product sold by storeID.
func (s *ZoneService) CreateProduct(ctx context.Context, storeID uuid.UUID, in ProductInput) (*models.Product, error) {
	if _, err := auth.RequireAdminSession(ctx); err != nil {
		return nil, err
	}
	if storeID == uuid.Nil {
		return nil, fmt.Errorf("store id is required: %w", ErrValidation)
	}
	if err := validate.Struct(in); err != nil {
		return nil, validationErr(err)
	}
	if _, err := s.Repo.GetStore(ctx, storeID); err != nil {
		return nil, notFound(err, "store", storeID)
	}
	p := &models.Product{StoreID: storeID, Name: in.Name, Price: in.Price}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
