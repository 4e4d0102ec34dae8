package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"karupatti-shop/internal/models"
	"karupatti-shop/internal/redisclient"
	"karupatti-shop/internal/store"
	"karupatti-shop/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CouponService is the coupon engine: eligibility, discount math and
// atomic redemption
type CouponService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewCouponService creates a new coupon service
func NewCouponService(store *store.Store, redis *redisclient.Client) *CouponService {
	return &CouponService{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// CanUse checks whether a user may redeem a coupon against a cart total.
// Returns the rejection reason when not eligible.
func (cs *CouponService) CanUse(ctx context.Context, coupon *models.Coupon, userID int64, cartTotal decimal.Decimal) (bool, string, error) {
	if !coupon.IsValid(time.Now()) {
		return false, "Coupon is not valid", nil
	}

	if cartTotal.LessThan(coupon.MinPurchaseAmount) {
		return false, fmt.Sprintf("Minimum purchase amount is $%s", coupon.MinPurchaseAmount.StringFixed(2)), nil
	}

	used, err := cs.store.CountCouponUsagesByUser(ctx, coupon.ID, userID)
	if err != nil {
		return false, "", fmt.Errorf("failed to count coupon usage: %w", err)
	}
	if used >= coupon.UsageLimitPerUser {
		return false, "You have already used this coupon", nil
	}

	return true, "", nil
}

// Apply validates a coupon for the session cart and stores it on the session.
// Returns the computed discount.
func (cs *CouponService) Apply(ctx context.Context, token string, userID int64, code string) (decimal.Decimal, error) {
	ctx, span := util.StartSpan(ctx, "CouponService.Apply")
	defer span.End()

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return decimal.Zero, &CouponError{Reason: "Please enter a coupon code"}
	}

	coupon, err := cs.store.GetCouponByCode(ctx, code)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch coupon: %w", err)
	}
	if coupon == nil {
		util.CouponsRejectedTotal.WithLabelValues("unknown_code").Inc()
		return decimal.Zero, ErrCouponNotFound
	}

	lines, err := cs.redis.GetCartLines(ctx, token)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read cart: %w", err)
	}
	cart := models.Cart{Lines: lines}
	if cart.IsEmpty() {
		return decimal.Zero, ErrCartEmpty
	}

	ok, reason, err := cs.CanUse(ctx, coupon, userID, cart.Subtotal())
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		util.CouponsRejectedTotal.WithLabelValues("ineligible").Inc()
		return decimal.Zero, &CouponError{Reason: reason}
	}

	discount := coupon.Discount(cart.Subtotal())

	applied := models.AppliedCoupon{Code: coupon.Code, Discount: discount}
	if err := cs.redis.SetAppliedCoupon(ctx, token, applied); err != nil {
		return decimal.Zero, fmt.Errorf("failed to store applied coupon: %w", err)
	}

	util.CouponsAppliedTotal.Inc()
	cs.logger.Info("Coupon applied",
		zap.String("code", coupon.Code),
		zap.Int64("user_id", userID),
		zap.String("discount", discount.String()))

	return discount, nil
}

// Remove clears the applied coupon from the session
func (cs *CouponService) Remove(ctx context.Context, token string) error {
	return cs.redis.ClearAppliedCoupon(ctx, token)
}

// Redeem consumes a coupon for an order: records the usage row and bumps
// times_used exactly once per order number. A redemption that loses the
// guard race is logged and the order proceeds without the usage row, never
// with a doubled one.
func (cs *CouponService) Redeem(ctx context.Context, coupon *models.Coupon, userID int64, orderNumber string, discount decimal.Decimal) error {
	redeemed, err := cs.store.RedeemCoupon(ctx, coupon.ID, userID, orderNumber, discount)
	if err != nil {
		return fmt.Errorf("failed to redeem coupon: %w", err)
	}
	if !redeemed {
		cs.logger.Warn("Coupon redemption skipped by guard",
			zap.String("code", coupon.Code),
			zap.String("order_number", orderNumber))
	}
	return nil
}

// ActiveCoupons lists coupons currently inside their validity window
func (cs *CouponService) ActiveCoupons(ctx context.Context) ([]models.Coupon, error) {
	return cs.store.GetActiveCoupons(ctx)
}
