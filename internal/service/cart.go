package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/zone_service/internal/models"
	"github.com/Skotchmaster/zone_service/internal/repo"
)

type CartService struct {
	Repo   repo.Repository
	Events *Events
}

func (h *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	cart, err := h.Repo.ActiveCart(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	return h.Repo.CartItems(ctx, cart.ID)
}

// AddToCart adds quantity units of a product, refusing products whose store
// the user cannot reach from their current zone.
func (h *CartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity uint) (*models.CartItem, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("ID product must be not nil: %w", ErrValidation)
	}
	if quantity == 0 {
		return nil, fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}

	var item *models.CartItem
	err := h.Repo.WithinTx(ctx, func(tx repo.Repository) error {
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return notFound(err, "product", productID)
		}

		var zoneID *uuid.UUID
		u, err := tx.GetUser(ctx, userID)
		switch {
		case err == nil:
			zoneID = u.ZoneID
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}

		pruner := &CartPruner{Repo: tx}
		allowed, err := pruner.AllowedStores(ctx, zoneID)
		if err != nil {
			return err
		}
		if !reachable(allowed, p.StoreID) {
			return fmt.Errorf("store %s: %w", p.StoreID, ErrStoreNotReachable)
		}

		cart, err := tx.EnsureActiveCart(ctx, userID)
		if err != nil {
			return err
		}
		item = &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
		return tx.AddCartItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	h.Events.publish(ctx, []map[string]any{{
		"type":       EventCartItemAdded,
		"user_id":    userID,
		"product_id": productID,
		"quantity":   item.Quantity,
	}})
	return item, nil
}
