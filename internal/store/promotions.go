package store

import (
	"context"
	"database/sql"
	"fmt"

	"karupatti-shop/internal/models"

	"github.com/shopspring/decimal"
)

// GetCouponByCode retrieves a coupon by its code, nil when unknown
func (s *Store) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.GetContext(ctx, &coupon, "SELECT * FROM coupons WHERE code = $1", code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// CountCouponUsagesByUser counts how many times a user redeemed a coupon
func (s *Store) CountCouponUsagesByUser(ctx context.Context, couponID, userID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2",
		couponID, userID)
	return count, err
}

// RedeemCoupon records a usage row and increments times_used in one
// transaction. The usage insert is backed by a unique (coupon_id,
// order_number) index so a resubmitted order cannot double count, and the
// increment predicate re-checks the global cap so concurrent redemptions
// cannot push times_used past usage_limit. Returns false when either guard
// rejects the redemption.
func (s *Store) RedeemCoupon(ctx context.Context, couponID, userID int64, orderNumber string, discount decimal.Decimal) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO coupon_usages (coupon_id, user_id, order_number, discount_amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (coupon_id, order_number) DO NOTHING`,
		couponID, userID, orderNumber, discount)
	if err != nil {
		return false, fmt.Errorf("failed to record coupon usage: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		// already redeemed for this order
		return false, nil
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE coupons
		SET times_used = times_used + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit IS NULL OR times_used < usage_limit)`,
		couponID)
	if err != nil {
		return false, fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	rows, err = res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	return true, tx.Commit()
}

// GetActiveCoupons retrieves coupons currently inside their validity window
func (s *Store) GetActiveCoupons(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := s.db.SelectContext(ctx, &coupons, `
		SELECT * FROM coupons
		WHERE is_active = TRUE AND valid_from <= NOW() AND valid_until >= NOW()
		ORDER BY created_at DESC`)
	return coupons, err
}

// GetOngoingEvents retrieves active events whose window covers now
func (s *Store) GetOngoingEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := s.db.SelectContext(ctx, &events, `
		SELECT * FROM events
		WHERE is_active = TRUE AND start_date <= NOW() AND end_date >= NOW()
		ORDER BY start_date DESC`)
	return events, err
}

// GetUpcomingEvents retrieves active events starting in the future
func (s *Store) GetUpcomingEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := s.db.SelectContext(ctx, &events, `
		SELECT * FROM events
		WHERE is_active = TRUE AND start_date > NOW()
		ORDER BY start_date`)
	return events, err
}

// GetEventBySlug retrieves an active event by slug
func (s *Store) GetEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	err := s.db.GetContext(ctx, &event,
		"SELECT * FROM events WHERE slug = $1 AND is_active = TRUE", slug)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event not found: %s", slug)
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}
