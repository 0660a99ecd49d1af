package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/zone_service/internal/geo"
	"github.com/Skotchmaster/zone_service/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

var _ Repository = (*GormRepo)(nil)

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *GormRepo) WithinTx(ctx context.Context, fn func(r Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

func (r *GormRepo) GetZone(ctx context.Context, id uuid.UUID) (*models.Zone, error) {
	var z models.Zone
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&z).Error; err != nil {
		return nil, notFound(err)
	}
	return &z, nil
}

func (r *GormRepo) ListZones(ctx context.Context) ([]models.Zone, error) {
	var zones []models.Zone
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *GormRepo) CreateZone(ctx context.Context, z *models.Zone) error {
	return r.DB.WithContext(ctx).Create(z).Error
}

func (r *GormRepo) UpdateZone(ctx context.Context, z *models.Zone) error {
	res := r.DB.WithContext(ctx).Model(z).Select("name", "names", "polygon").Updates(z)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) DeleteZone(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("zone_id = ?", id).Delete(&models.ZoneStore{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Zone{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRepo) GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var s models.Store
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *GormRepo) ListStores(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *GormRepo) CreateStore(ctx context.Context, s *models.Store) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) LinkStore(ctx context.Context, zoneID, storeID uuid.UUID) (bool, error) {
	link := models.ZoneStore{ZoneID: zoneID, StoreID: storeID}
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&link)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) UnlinkStore(ctx context.Context, zoneID, storeID uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("zone_id = ? AND store_id = ?", zoneID, storeID).
		Delete(&models.ZoneStore{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) ZoneStoreIDs(ctx context.Context, zoneID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.DB.WithContext(ctx).Model(&models.ZoneStore{}).
		Where("zone_id = ?", zoneID).
		Order("store_id ASC").
		Pluck("store_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormRepo) UnrestrictedStoreIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.DB.WithContext(ctx).Model(&models.Store{}).
		Where("unrestricted = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *GormRepo) ListSyncCandidates(ctx context.Context, zoneID uuid.UUID) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).
		Where("lat IS NOT NULL AND lng IS NOT NULL").
		Where("(zone_id IS NULL OR zone_id = ?)", zoneID).
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) ListUsersInZone(ctx context.Context, zoneID uuid.UUID) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Where("zone_id = ?", zoneID).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) SetUserZone(ctx context.Context, userID uuid.UUID, zoneID *uuid.UUID) error {
	var v any
	if zoneID != nil {
		v = *zoneID
	}
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("zone_id", v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) SetUserLocation(ctx context.Context, userID uuid.UUID, pt geo.Point) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"lat": pt.Lat, "lng": pt.Lng})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) ActiveCart(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error) {
	var cart models.ShoppingCart
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.CartStatusShopping).
		Order("created_at DESC").
		First(&cart).Error; err != nil {
		return nil, notFound(err)
	}
	return &cart, nil
}

func (r *GormRepo) EnsureActiveCart(ctx context.Context, userID uuid.UUID) (*models.ShoppingCart, error) {
	cart, err := r.ActiveCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	cart = &models.ShoppingCart{UserID: userID, Status: models.CartStatusShopping}
	if err := r.DB.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *GormRepo) CartItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Where("cart_id = ?", cartID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) AddCartItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", item.CartID, item.ProductID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("cart_id = ? AND product_id = ?", item.CartID, item.ProductID).First(item).Error
		}
		return tx.Create(item).Error
	})
}

func (r *GormRepo) DeleteCartItemsOutside(ctx context.Context, cartID uuid.UUID, keepStoreIDs []uuid.UUID) (int64, error) {
	q := r.DB.WithContext(ctx).Where("cart_id = ?", cartID)
	if len(keepStoreIDs) > 0 {
		allowed := r.DB.Model(&models.Product{}).Select("id").Where("store_id IN ?", keepStoreIDs)
		q = q.Where("product_id NOT IN (?)", allowed)
	}
	res := q.Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
