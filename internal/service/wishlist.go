package service

import (
	"context"
	"fmt"

	"karupatti-shop/internal/models"
	"karupatti-shop/internal/store"
)

// WishlistService manages per-user saved products
type WishlistService struct {
	store *store.Store
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(store *store.Store) *WishlistService {
	return &WishlistService{store: store}
}

// Add saves an active product to a user's wishlist; saving an already-saved
// product is a no-op
func (ws *WishlistService) Add(ctx context.Context, userID, productID int64) error {
	product, err := ws.store.GetActiveProductByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to fetch product: %w", err)
	}
	if product == nil {
		return ErrProductUnavailable
	}
	return ws.store.AddWishlistItem(ctx, userID, productID)
}

// Remove drops a product from a user's wishlist
func (ws *WishlistService) Remove(ctx context.Context, userID, productID int64) error {
	removed, err := ws.store.RemoveWishlistItem(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrProductUnavailable
	}
	return nil
}

// List retrieves the active products on a user's wishlist
func (ws *WishlistService) List(ctx context.Context, userID int64) ([]models.Product, error) {
	return ws.store.GetWishlistProducts(ctx, userID)
}
