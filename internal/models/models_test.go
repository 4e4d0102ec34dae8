package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validCoupon() *Coupon {
	return &Coupon{
		Code:          "SAVE10",
		DiscountType:  DiscountTypePercentage,
		DiscountValue: decimal.RequireFromString("10"),
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		IsActive:      true,
	}
}

func TestCouponIsValid(t *testing.T) {
	now := time.Now()

	coupon := validCoupon()
	assert.True(t, coupon.IsValid(now))

	inactive := validCoupon()
	inactive.IsActive = false
	assert.False(t, inactive.IsValid(now))

	expired := validCoupon()
	expired.ValidUntil = now.Add(-time.Minute)
	assert.False(t, expired.IsValid(now))

	notStarted := validCoupon()
	notStarted.ValidFrom = now.Add(time.Minute)
	assert.False(t, notStarted.IsValid(now))

	limit := 5
	capped := validCoupon()
	capped.UsageLimit = &limit
	capped.TimesUsed = 5
	assert.False(t, capped.IsValid(now))

	capped.TimesUsed = 4
	assert.True(t, capped.IsValid(now))
}

func TestCouponDiscountPercentage(t *testing.T) {
	coupon := validCoupon()

	discount := coupon.Discount(decimal.RequireFromString("25.00"))
	assert.Equal(t, "2.5", discount.String())
}

func TestCouponDiscountFixed(t *testing.T) {
	coupon := validCoupon()
	coupon.DiscountType = DiscountTypeFixed
	coupon.DiscountValue = decimal.RequireFromString("5.00")

	discount := coupon.Discount(decimal.RequireFromString("25.00"))
	assert.Equal(t, "5", discount.String())
}

func TestCouponDiscountCappedByMax(t *testing.T) {
	maxDiscount := decimal.RequireFromString("3.00")
	coupon := validCoupon()
	coupon.DiscountValue = decimal.RequireFromString("50")
	coupon.MaxDiscountAmount = &maxDiscount

	discount := coupon.Discount(decimal.RequireFromString("100.00"))
	assert.Equal(t, "3", discount.String())
}

func TestCouponDiscountNeverExceedsCartTotal(t *testing.T) {
	coupon := validCoupon()
	coupon.DiscountType = DiscountTypeFixed
	coupon.DiscountValue = decimal.RequireFromString("50.00")

	discount := coupon.Discount(decimal.RequireFromString("20.00"))
	assert.Equal(t, "20", discount.String())
}

func TestEventDiscountedPrice(t *testing.T) {
	event := &Event{
		DiscountPercentage: decimal.RequireFromString("20"),
		StartDate:          time.Now().Add(-time.Hour),
		EndDate:            time.Now().Add(time.Hour),
		IsActive:           true,
	}

	assert.True(t, event.IsOngoing(time.Now()))
	assert.Equal(t, "40", event.DiscountedPrice(decimal.RequireFromString("50.00")).String())

	event.IsActive = false
	assert.False(t, event.IsOngoing(time.Now()))
}

func TestCartSubtotal(t *testing.T) {
	cart := Cart{
		Lines: []CartLine{
			{ProductID: 1, Price: decimal.RequireFromString("10.00"), Quantity: 2},
			{ProductID: 2, Price: decimal.RequireFromString("5.00"), Quantity: 1},
		},
	}

	assert.Equal(t, "25", cart.Subtotal().String())
	assert.False(t, cart.IsEmpty())
	assert.True(t, (&Cart{}).IsEmpty())
}

func TestOrderIsPaid(t *testing.T) {
	order := &Order{PaymentStatus: PaymentStatusPending}
	assert.False(t, order.IsPaid())

	order.PaymentStatus = PaymentStatusPaid
	assert.True(t, order.IsPaid())
}
