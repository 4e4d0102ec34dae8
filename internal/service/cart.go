package service

import (
	"context"
	"fmt"

	"karupatti-shop/internal/models"
	"karupatti-shop/internal/redisclient"
	"karupatti-shop/internal/store"
	"karupatti-shop/internal/util"

	"go.uber.org/zap"
)

// CartService manages the server-side cart session aggregate
type CartService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store *store.Store, redis *redisclient.Client) *CartService {
	return &CartService{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// AddLine puts a product into the cart, snapshotting its name, price and
// seller. Adding an already-carted product accumulates the quantity.
func (cs *CartService) AddLine(ctx context.Context, token string, productID int64, quantity int) (*models.CartLine, error) {
	if quantity < 1 {
		return nil, ErrInvalidAmount
	}

	product, err := cs.store.GetActiveProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	if product == nil {
		return nil, ErrProductUnavailable
	}
	if product.Stock < quantity {
		return nil, ErrInsufficientStock
	}

	existing, err := cs.redis.GetCartLine(ctx, token, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if existing != nil {
		quantity += existing.Quantity
		if product.Stock < quantity {
			return nil, ErrInsufficientStock
		}
	}

	line := models.CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
		SellerID:  product.SellerID,
	}

	if err := cs.redis.SetCartLine(ctx, token, line); err != nil {
		return nil, fmt.Errorf("failed to write cart: %w", err)
	}

	cs.logger.Debug("Cart line added",
		zap.String("token", token),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity))

	return &line, nil
}

// UpdateQuantity sets the quantity of an existing line; zero removes it
func (cs *CartService) UpdateQuantity(ctx context.Context, token string, productID int64, quantity int) error {
	if quantity < 0 {
		return ErrInvalidAmount
	}
	if quantity == 0 {
		return cs.redis.RemoveCartLine(ctx, token, productID)
	}

	line, err := cs.redis.GetCartLine(ctx, token, productID)
	if err != nil {
		return fmt.Errorf("failed to read cart: %w", err)
	}
	if line == nil {
		return ErrProductUnavailable
	}

	product, err := cs.store.GetActiveProductByID(ctx, line.ProductID)
	if err != nil {
		return fmt.Errorf("failed to fetch product: %w", err)
	}
	if product == nil {
		return ErrProductUnavailable
	}
	if product.Stock < quantity {
		return ErrInsufficientStock
	}

	line.Quantity = quantity
	return cs.redis.SetCartLine(ctx, token, *line)
}

// RemoveLine drops a product from the cart
func (cs *CartService) RemoveLine(ctx context.Context, token string, productID int64) error {
	return cs.redis.RemoveCartLine(ctx, token, productID)
}

// GetCart reads the cart aggregate, including the applied coupon
func (cs *CartService) GetCart(ctx context.Context, token string) (*models.Cart, error) {
	lines, err := cs.redis.GetCartLines(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	coupon, err := cs.redis.GetAppliedCoupon(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied coupon: %w", err)
	}

	return &models.Cart{Lines: lines, Coupon: coupon}, nil
}

// Clear drops the whole cart session
func (cs *CartService) Clear(ctx context.Context, token string) error {
	return cs.redis.ClearCart(ctx, token)
}
