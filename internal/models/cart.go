package models

import "github.com/shopspring/decimal"

// CartLine is one product entry in a server-side cart session. Name, price
// and seller are snapshotted when the line is added; checkout re-validates
// against the live product.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
	SellerID  int64           `json:"seller_id"`
}

// LineTotal is price * quantity
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// AppliedCoupon is the coupon slot on a cart session
type AppliedCoupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// Cart is the session-resident aggregate keyed by session token
type Cart struct {
	Lines  []CartLine     `json:"lines"`
	Coupon *AppliedCoupon `json:"coupon,omitempty"`
}

// Subtotal sums the line totals
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range c.Lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	return subtotal
}

// IsEmpty reports whether the cart holds no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
