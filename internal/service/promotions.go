package service

import (
	"context"
	"time"

	"karupatti-shop/internal/models"
	"karupatti-shop/internal/store"
	"karupatti-shop/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PromotionService exposes flash sale events and their discounted pricing
type PromotionService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewPromotionService creates a new promotion service
func NewPromotionService(store *store.Store) *PromotionService {
	return &PromotionService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// SalePrice is a product price with an event discount applied
type SalePrice struct {
	Product         models.Product  `json:"product"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

// Products lists the active catalog
func (ps *PromotionService) Products(ctx context.Context) ([]models.Product, error) {
	return ps.store.GetProducts(ctx)
}

// Product retrieves one active product
func (ps *PromotionService) Product(ctx context.Context, id int64) (*models.Product, error) {
	product, err := ps.store.GetActiveProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductUnavailable
	}
	return product, nil
}

// OngoingEvents lists active events whose window covers now
func (ps *PromotionService) OngoingEvents(ctx context.Context) ([]models.Event, error) {
	return ps.store.GetOngoingEvents(ctx)
}

// UpcomingEvents lists active events that have not started yet
func (ps *PromotionService) UpcomingEvents(ctx context.Context) ([]models.Event, error) {
	return ps.store.GetUpcomingEvents(ctx)
}

// EventPrices retrieves an event with the discounted prices of the catalog.
// An event outside its window returns the catalog at original prices.
func (ps *PromotionService) EventPrices(ctx context.Context, slug string) (*models.Event, []SalePrice, error) {
	event, err := ps.store.GetEventBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	products, err := ps.store.GetProducts(ctx)
	if err != nil {
		return nil, nil, err
	}

	ongoing := event.IsOngoing(time.Now())
	prices := make([]SalePrice, 0, len(products))
	for _, p := range products {
		price := SalePrice{
			Product:         p,
			OriginalPrice:   p.Price,
			DiscountedPrice: p.Price,
		}
		if ongoing {
			price.DiscountedPrice = event.DiscountedPrice(p.Price)
		}
		prices = append(prices, price)
	}

	return event, prices, nil
}
