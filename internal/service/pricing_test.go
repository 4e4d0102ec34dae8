package service

import (
	"testing"

	"karupatti-shop/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPricing(t *testing.T) *Pricing {
	t.Helper()
	pricing, err := NewPricing(config.BusinessConfig{
		PlatformFeePercent: "10",
		ShippingCost:       "10.00",
		TaxRate:            "0.08",
		Currency:           "usd",
	})
	require.NoError(t, err)
	return pricing
}

func TestQuoteFor(t *testing.T) {
	pricing := testPricing(t)

	quote := pricing.QuoteFor(decimal.RequireFromString("25.00"), decimal.Zero)

	assert.Equal(t, "25", quote.Subtotal.String())
	assert.Equal(t, "10", quote.ShippingCost.String())
	assert.Equal(t, "2", quote.Tax.String())
	assert.Equal(t, "37", quote.Total.String())
}

func TestQuoteForWithDiscount(t *testing.T) {
	pricing := testPricing(t)

	// 10% coupon on a $25.00 cart
	quote := pricing.QuoteFor(decimal.RequireFromString("25.00"), decimal.RequireFromString("2.50"))

	assert.Equal(t, "2.5", quote.Discount.String())
	assert.Equal(t, "34.5", quote.Total.String())
}

func TestQuoteTotalIdentity(t *testing.T) {
	pricing := testPricing(t)

	subtotals := []string{"0.01", "9.99", "123.45", "10000.00"}
	for _, s := range subtotals {
		subtotal := decimal.RequireFromString(s)
		quote := pricing.QuoteFor(subtotal, decimal.Zero)

		expected := quote.Subtotal.Add(quote.ShippingCost).Add(quote.Tax).Sub(quote.Discount)
		assert.True(t, quote.Total.Equal(expected), "total identity broken for subtotal %s", s)
	}
}

func TestQuoteTaxRounding(t *testing.T) {
	pricing := testPricing(t)

	// 8% of 10.55 is 0.844, rounds to 0.84
	quote := pricing.QuoteFor(decimal.RequireFromString("10.55"), decimal.Zero)
	assert.Equal(t, "0.84", quote.Tax.String())
}

func TestSplitFee(t *testing.T) {
	pricing := testPricing(t)

	seller, fee := pricing.SplitFee(decimal.RequireFromString("100.00"))
	assert.Equal(t, "90", seller.String())
	assert.Equal(t, "10", fee.String())
}

func TestSplitFeePartitionsExactly(t *testing.T) {
	pricing := testPricing(t)

	// rounding must never create or destroy money
	subtotals := []string{"0.01", "0.05", "9.99", "33.33", "123.45"}
	for _, s := range subtotals {
		subtotal := decimal.RequireFromString(s)
		seller, fee := pricing.SplitFee(subtotal)
		assert.True(t, seller.Add(fee).Equal(subtotal),
			"seller %s + fee %s != subtotal %s", seller, fee, s)
	}
}

func TestNewPricingRejectsBadConfig(t *testing.T) {
	_, err := NewPricing(config.BusinessConfig{
		PlatformFeePercent: "ten",
		ShippingCost:       "10.00",
		TaxRate:            "0.08",
	})
	assert.Error(t, err)
}
