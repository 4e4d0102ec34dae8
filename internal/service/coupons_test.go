package service

import (
	"context"
	"testing"
	"time"

	"karupatti-shop/internal/redisclient"
	"karupatti-shop/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanUsePerUserCap(t *testing.T) {
	t.Skip("Integration test - requires database")

	db, err := store.NewStore(testDatabaseURL)
	require.NoError(t, err)
	defer db.Close()

	redis, err := redisclient.NewClient("localhost:6379", "", 0, time.Hour)
	require.NoError(t, err)
	defer redis.Close()

	coupons := NewCouponService(db, redis)
	ctx := context.Background()
	userID := int64(501)

	coupon, err := db.GetCouponByCode(ctx, "SAVE10")
	require.NoError(t, err)
	require.NotNil(t, coupon)
	require.Equal(t, 1, coupon.UsageLimitPerUser)

	cartTotal := decimal.RequireFromString("50.00")

	ok, reason, err := coupons.CanUse(ctx, coupon, userID, cartTotal)
	require.NoError(t, err)
	assert.True(t, ok, reason)

	redeemed, err := db.RedeemCoupon(ctx, coupon.ID, userID, "ORD-TESTPERUSER", decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	require.True(t, redeemed)

	// the user has hit their cap; another user has not
	ok, reason, err = coupons.CanUse(ctx, coupon, userID, cartTotal)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "You have already used this coupon", reason)

	ok, _, err = coupons.CanUse(ctx, coupon, userID+1, cartTotal)
	require.NoError(t, err)
	assert.True(t, ok)
}
