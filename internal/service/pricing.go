package service

import (
	"fmt"

	"karupatti-shop/config"

	"github.com/shopspring/decimal"
)

// Pricing holds the marketplace money constants
type Pricing struct {
	PlatformFeePercent decimal.Decimal
	ShippingCost       decimal.Decimal
	TaxRate            decimal.Decimal
	Currency           string
}

// NewPricing parses the business config into decimals
func NewPricing(cfg config.BusinessConfig) (*Pricing, error) {
	feePercent, err := decimal.NewFromString(cfg.PlatformFeePercent)
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_FEE_PERCENT: %w", err)
	}
	shipping, err := decimal.NewFromString(cfg.ShippingCost)
	if err != nil {
		return nil, fmt.Errorf("invalid SHIPPING_COST: %w", err)
	}
	taxRate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}

	return &Pricing{
		PlatformFeePercent: feePercent,
		ShippingCost:       shipping,
		TaxRate:            taxRate,
		Currency:           cfg.Currency,
	}, nil
}

// Quote is the money breakdown of a checkout.
// Total = Subtotal + ShippingCost + Tax - Discount.
type Quote struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Tax          decimal.Decimal `json:"tax"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
}

// QuoteFor computes the checkout quote for a subtotal and discount
func (p *Pricing) QuoteFor(subtotal, discount decimal.Decimal) Quote {
	tax := subtotal.Mul(p.TaxRate).Round(2)
	total := subtotal.Add(p.ShippingCost).Add(tax).Sub(discount)
	return Quote{
		Subtotal:     subtotal,
		ShippingCost: p.ShippingCost,
		Tax:          tax,
		Discount:     discount,
		Total:        total,
	}
}

// SplitFee partitions an item subtotal into the seller amount and the
// platform fee. The two always sum back to the subtotal.
func (p *Pricing) SplitFee(itemSubtotal decimal.Decimal) (sellerAmount, platformFee decimal.Decimal) {
	platformFee = itemSubtotal.Mul(p.PlatformFeePercent).Div(decimal.NewFromInt(100)).Round(2)
	sellerAmount = itemSubtotal.Sub(platformFee)
	return sellerAmount, platformFee
}
