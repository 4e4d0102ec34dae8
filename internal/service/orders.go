package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"karupatti-shop/internal/broker"
	"karupatti-shop/internal/models"
	"karupatti-shop/internal/redisclient"
	"karupatti-shop/internal/store"
	"karupatti-shop/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService is the order assembler: it turns a cart session into a
// persisted order with snapshotted items and reserved stock
type OrderService struct {
	store     *store.Store
	redis     *redisclient.Client
	coupons   *CouponService
	publisher *broker.EventPublisher
	pricing   *Pricing
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	redis *redisclient.Client,
	coupons *CouponService,
	publisher *broker.EventPublisher,
	pricing *Pricing,
) *OrderService {
	return &OrderService{
		store:     store,
		redis:     redis,
		coupons:   coupons,
		publisher: publisher,
		pricing:   pricing,
		logger:    util.GetLogger(),
	}
}

// NewOrderNumber generates a human-readable unique order number
func NewOrderNumber() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:12])
}

// checkoutLockTTL bounds how long a crashed checkout can hold its session
const checkoutLockTTL = 30 * time.Second

// checkoutLine is a cart line revalidated against the live product
type checkoutLine struct {
	product  *models.Product
	quantity int
	subtotal decimal.Decimal
}

// CreateOrderRequest carries the checkout form data
type CreateOrderRequest struct {
	AddressID     int64  `json:"address_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// Checkout computes the quote for the current cart without creating an order
func (os *OrderService) Checkout(ctx context.Context, token string, userID int64) (*models.Cart, Quote, error) {
	cart, err := os.readCart(ctx, token)
	if err != nil {
		return nil, Quote{}, err
	}

	discount := decimal.Zero
	if cart.Coupon != nil {
		discount = cart.Coupon.Discount
	}

	return cart, os.pricing.QuoteFor(cart.Subtotal(), discount), nil
}

// CreateOrder assembles an order from the cart session: revalidates every
// line against the live product (silently dropping vanished or inactive
// ones), reserves stock, computes the totals, snapshots the shipping
// address and product data, and redeems any applied coupon exactly once.
func (os *OrderService) CreateOrder(ctx context.Context, token string, userID int64, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.PaymentMethod != models.PaymentMethodStripe && req.PaymentMethod != models.PaymentMethodCOD {
		return nil, ErrUnsupportedPayMethod
	}

	// one checkout per session at a time: a double-submitted form must not
	// assemble two orders from the same cart
	locked, err := os.redis.AcquireLock(ctx, "checkout:"+token, checkoutLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	if !locked {
		return nil, ErrCheckoutInProgress
	}
	defer func() {
		if err := os.redis.ReleaseLock(ctx, "checkout:"+token); err != nil {
			os.logger.Warn("Failed to release checkout lock", zap.Error(err))
		}
	}()

	cart, err := os.readCart(ctx, token)
	if err != nil {
		return nil, err
	}

	address, err := os.store.GetAddressByID(ctx, req.AddressID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch address: %w", err)
	}

	lines, err := os.reserveLines(ctx, cart.Lines)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		util.OrdersFailedTotal.WithLabelValues("no_available_items").Inc()
		return nil, ErrCartEmpty
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.subtotal)
	}

	// The applied coupon is revalidated and its discount recomputed against
	// the surviving lines, so dropped products cannot inflate the discount.
	discount := decimal.Zero
	var coupon *models.Coupon
	if cart.Coupon != nil {
		coupon, err = os.store.GetCouponByCode(ctx, cart.Coupon.Code)
		if err != nil {
			os.releaseLines(ctx, lines)
			return nil, fmt.Errorf("failed to fetch coupon: %w", err)
		}
		if coupon != nil {
			ok, _, err := os.coupons.CanUse(ctx, coupon, userID, subtotal)
			if err != nil {
				os.releaseLines(ctx, lines)
				return nil, err
			}
			if ok {
				discount = coupon.Discount(subtotal)
			} else {
				coupon = nil
			}
		}
	}

	quote := os.pricing.QuoteFor(subtotal, discount)

	order := &models.Order{
		OrderNumber:        NewOrderNumber(),
		UserID:             userID,
		ShippingFullName:   address.FullName,
		ShippingPhone:      address.Phone,
		ShippingStreet:     address.Street,
		ShippingCity:       address.City,
		ShippingState:      address.State,
		ShippingCountry:    address.Country,
		ShippingPostalCode: address.PostalCode,
		Subtotal:           quote.Subtotal,
		ShippingCost:       quote.ShippingCost,
		Tax:                quote.Tax,
		Discount:           quote.Discount,
		TotalAmount:        quote.Total,
		PaymentMethod:      req.PaymentMethod,
		PaymentStatus:      models.PaymentStatusPending,
		Status:             models.OrderStatusPending,
	}

	if err := os.store.CreateOrder(ctx, order); err != nil {
		os.releaseLines(ctx, lines)
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	itemData := make([]models.OrderItemData, 0, len(lines))
	for _, line := range lines {
		sellerAmount, platformFee := os.pricing.SplitFee(line.subtotal)
		item := &models.OrderItem{
			OrderID:      order.ID,
			ProductID:    line.product.ID,
			SellerID:     line.product.SellerID,
			ProductName:  line.product.Name,
			ProductPrice: line.product.Price,
			Quantity:     line.quantity,
			Subtotal:     line.subtotal,
			SellerAmount: sellerAmount,
			PlatformFee:  platformFee,
		}
		if err := os.store.CreateOrderItem(ctx, item); err != nil {
			os.abortOrder(ctx, order, lines)
			util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
		itemData = append(itemData, models.OrderItemData{
			ProductID:    line.product.ID,
			SellerID:     line.product.SellerID,
			Quantity:     line.quantity,
			ProductPrice: line.product.Price,
		})
	}

	if coupon != nil {
		if err := os.coupons.Redeem(ctx, coupon, userID, order.OrderNumber, discount); err != nil {
			os.logger.Error("Coupon redemption failed", zap.Error(err))
		}
		if err := os.redis.ClearAppliedCoupon(ctx, token); err != nil {
			os.logger.Warn("Failed to clear applied coupon", zap.Error(err))
		}
	}

	util.OrdersPlacedTotal.Inc()
	os.logger.Info("Order placed",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("user_id", userID),
		zap.String("total", order.TotalAmount.String()))

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		Items:         itemData,
	}
	if err := os.publisher.PublishOrderPlaced(ctx, event); err != nil {
		os.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	switch req.PaymentMethod {
	case models.PaymentMethodCOD:
		if err := os.store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusProcessing); err != nil {
			return nil, fmt.Errorf("failed to update order status: %w", err)
		}
		order.Status = models.OrderStatusProcessing
		if err := os.redis.ClearCart(ctx, token); err != nil {
			os.logger.Warn("Failed to clear cart", zap.Error(err))
		}
	case models.PaymentMethodStripe:
		// cart survives until gateway confirmation; the success redirect
		// clears it
		if err := os.redis.SetPendingOrder(ctx, token, order.OrderNumber); err != nil {
			os.logger.Warn("Failed to record pending order", zap.Error(err))
		}
	}

	return order, nil
}

// reserveLines revalidates cart lines and reserves stock with a guarded
// atomic decrement. Lines whose product vanished, was deactivated, or lost
// the stock guard are dropped silently.
func (os *OrderService) reserveLines(ctx context.Context, cartLines []models.CartLine) ([]checkoutLine, error) {
	ids := make([]int64, 0, len(cartLines))
	for _, cl := range cartLines {
		ids = append(ids, cl.ProductID)
	}
	products, err := os.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	byID := make(map[int64]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]checkoutLine, 0, len(cartLines))
	for _, cl := range cartLines {
		product, ok := byID[cl.ProductID]
		if !ok || !product.IsActive {
			os.logger.Info("Dropping vanished cart line", zap.Int64("product_id", cl.ProductID))
			continue
		}

		reserved, err := os.store.DecrementStock(ctx, product.ID, cl.Quantity)
		if err != nil {
			os.releaseLines(ctx, lines)
			return nil, err
		}
		if !reserved {
			os.logger.Info("Dropping out-of-stock cart line",
				zap.Int64("product_id", product.ID),
				zap.Int("quantity", cl.Quantity))
			continue
		}

		lines = append(lines, checkoutLine{
			product:  product,
			quantity: cl.Quantity,
			subtotal: product.Price.Mul(decimal.NewFromInt(int64(cl.Quantity))),
		})
	}
	return lines, nil
}

// abortOrder cancels a half-assembled order and returns every reserved
// line's stock; the cancelled status keeps a late payment from landing on it
func (os *OrderService) abortOrder(ctx context.Context, order *models.Order, lines []checkoutLine) {
	if err := os.store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
		os.logger.Error("Failed to cancel aborted order",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
	}
	os.releaseLines(ctx, lines)
}

// releaseLines returns reserved stock (compensation)
func (os *OrderService) releaseLines(ctx context.Context, lines []checkoutLine) {
	for _, line := range lines {
		if err := os.store.RestoreStock(ctx, line.product.ID, line.quantity); err != nil {
			os.logger.Error("Failed to restore stock",
				zap.Int64("product_id", line.product.ID),
				zap.Error(err))
		}
	}
}

func (os *OrderService) readCart(ctx context.Context, token string) (*models.Cart, error) {
	lines, err := os.redis.GetCartLines(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	coupon, err := os.redis.GetAppliedCoupon(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied coupon: %w", err)
	}
	cart := &models.Cart{Lines: lines, Coupon: coupon}
	if cart.IsEmpty() {
		return nil, ErrCartEmpty
	}
	return cart, nil
}

// GetOrder retrieves an order with its items, scoped to its owner
func (os *OrderService) GetOrder(ctx context.Context, orderNumber string, userID int64) (*models.Order, []models.OrderItem, error) {
	order, err := os.store.GetOrderForUser(ctx, orderNumber, userID)
	if err != nil {
		return nil, nil, err
	}

	items, err := os.store.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// ListOrders retrieves a user's orders, newest first
func (os *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return os.store.GetOrdersByUserID(ctx, userID)
}

// CancelOrder cancels a pending or processing order and restores the stock
// of every line item
func (os *OrderService) CancelOrder(ctx context.Context, orderNumber string, userID int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	order, err := os.store.GetOrderForUser(ctx, orderNumber, userID)
	if err != nil {
		return err
	}

	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusProcessing {
		return ErrOrderNotCancellable
	}

	if err := os.store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	items, err := os.store.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to get order items: %w", err)
	}
	for _, item := range items {
		if err := os.store.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			os.logger.Error("Failed to restore stock on cancel",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
		}
	}

	util.OrdersCancelledTotal.Inc()
	os.logger.Info("Order cancelled", zap.String("order_number", orderNumber))

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Reason:      "cancelled_by_buyer",
	}
	if err := os.publisher.PublishOrderCancelled(ctx, event); err != nil {
		os.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}

	return nil
}

// allowed lifecycle transitions for admin status updates
var orderTransitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
}

// UpdateStatus moves an order along its lifecycle (admin action)
func (os *OrderService) UpdateStatus(ctx context.Context, orderNumber, status string) error {
	order, err := os.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return err
	}

	allowed := false
	for _, next := range orderTransitions[order.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidTransition
	}

	return os.store.UpdateOrderStatus(ctx, order.ID, status)
}

// FinishCheckout handles the successful gateway redirect: resolves the
// pending order recorded at creation, clears the cart session, and returns
// the order so the client can show the confirmation. Returns a nil order
// when no checkout was pending.
func (os *OrderService) FinishCheckout(ctx context.Context, token string, userID int64) (*models.Order, error) {
	orderNumber, err := os.redis.GetPendingOrder(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending order: %w", err)
	}

	var order *models.Order
	if orderNumber != "" {
		order, err = os.store.GetOrderForUser(ctx, orderNumber, userID)
		if err != nil {
			return nil, err
		}
	}

	if err := os.redis.ClearCart(ctx, token); err != nil {
		return nil, err
	}
	if err := os.redis.ClearPendingOrder(ctx, token); err != nil {
		return nil, err
	}
	return order, nil
}

// ListAddresses retrieves a user's shipping addresses, default first
func (os *OrderService) ListAddresses(ctx context.Context, userID int64) ([]models.Address, error) {
	return os.store.GetAddressesByUserID(ctx, userID)
}
