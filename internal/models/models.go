package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog product owned by a seller shop
type Product struct {
	ID        int64           `db:"id" json:"id"`
	SellerID  int64           `db:"seller_id" json:"seller_id"`
	Name      string          `db:"name" json:"name"`
	Slug      string          `db:"slug" json:"slug"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Stock     int             `db:"stock" json:"stock"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Address is a user shipping address
type Address struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Phone      string    `db:"phone" json:"phone"`
	Street     string    `db:"street" json:"street"`
	City       string    `db:"city" json:"city"`
	State      string    `db:"state" json:"state"`
	Country    string    `db:"country" json:"country"`
	PostalCode string    `db:"postal_code" json:"postal_code"`
	IsDefault  bool      `db:"is_default" json:"is_default"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Order represents a customer order. The shipping fields are copied from the
// address at checkout so later address edits do not alter order history.
type Order struct {
	ID          int64  `db:"id" json:"id"`
	OrderNumber string `db:"order_number" json:"order_number"`
	UserID      int64  `db:"user_id" json:"user_id"`

	ShippingFullName   string `db:"shipping_full_name" json:"shipping_full_name"`
	ShippingPhone      string `db:"shipping_phone" json:"shipping_phone"`
	ShippingStreet     string `db:"shipping_street" json:"shipping_street"`
	ShippingCity       string `db:"shipping_city" json:"shipping_city"`
	ShippingState      string `db:"shipping_state" json:"shipping_state"`
	ShippingCountry    string `db:"shipping_country" json:"shipping_country"`
	ShippingPostalCode string `db:"shipping_postal_code" json:"shipping_postal_code"`

	Subtotal     decimal.Decimal `db:"subtotal" json:"subtotal"`
	ShippingCost decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	Tax          decimal.Decimal `db:"tax" json:"tax"`
	Discount     decimal.Decimal `db:"discount" json:"discount"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`

	PaymentMethod string `db:"payment_method" json:"payment_method"`
	PaymentStatus string `db:"payment_status" json:"payment_status"`
	PaymentID     string `db:"payment_id" json:"payment_id,omitempty"`

	Status string `db:"status" json:"status"`
	Notes  string `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	PaidAt    *time.Time `db:"paid_at" json:"paid_at,omitempty"`
}

// IsPaid reports whether the order has been paid
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// OrderItem is a line of an order, snapshotting the product name and price at
// purchase time. SellerAmount and PlatformFee partition Subtotal.
type OrderItem struct {
	ID           int64           `db:"id" json:"id"`
	OrderID      int64           `db:"order_id" json:"order_id"`
	ProductID    int64           `db:"product_id" json:"product_id"`
	SellerID     int64           `db:"seller_id" json:"seller_id"`
	ProductName  string          `db:"product_name" json:"product_name"`
	ProductPrice decimal.Decimal `db:"product_price" json:"product_price"`
	Quantity     int             `db:"quantity" json:"quantity"`
	Subtotal     decimal.Decimal `db:"subtotal" json:"subtotal"`
	SellerAmount decimal.Decimal `db:"seller_amount" json:"seller_amount"`
	PlatformFee  decimal.Decimal `db:"platform_fee" json:"platform_fee"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Coupon is a discount coupon
type Coupon struct {
	ID                int64            `db:"id" json:"id"`
	Code              string           `db:"code" json:"code"`
	Description       string           `db:"description" json:"description,omitempty"`
	DiscountType      string           `db:"discount_type" json:"discount_type"`
	DiscountValue     decimal.Decimal  `db:"discount_value" json:"discount_value"`
	MinPurchaseAmount decimal.Decimal  `db:"min_purchase_amount" json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `db:"max_discount_amount" json:"max_discount_amount,omitempty"`
	UsageLimit        *int             `db:"usage_limit" json:"usage_limit,omitempty"`
	UsageLimitPerUser int              `db:"usage_limit_per_user" json:"usage_limit_per_user"`
	TimesUsed         int              `db:"times_used" json:"times_used"`
	ValidFrom         time.Time        `db:"valid_from" json:"valid_from"`
	ValidUntil        time.Time        `db:"valid_until" json:"valid_until"`
	IsActive          bool             `db:"is_active" json:"is_active"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// IsValid checks the active flag, validity window and global usage cap
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	if c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit {
		return false
	}
	return true
}

// Discount computes the discount for a cart total: percentage coupons take
// total*value/100, fixed coupons take the value. The result is capped by
// MaxDiscountAmount when set and never exceeds the cart total.
func (c *Coupon) Discount(cartTotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	if c.DiscountType == DiscountTypePercentage {
		discount = cartTotal.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
	} else {
		discount = c.DiscountValue
	}

	if c.MaxDiscountAmount != nil && discount.GreaterThan(*c.MaxDiscountAmount) {
		discount = *c.MaxDiscountAmount
	}
	if discount.GreaterThan(cartTotal) {
		discount = cartTotal
	}

	return discount.Round(2)
}

// CouponUsage records one redemption of a coupon, keyed by order number to
// guard against double counting on resubmission
type CouponUsage struct {
	ID             int64           `db:"id" json:"id"`
	CouponID       int64           `db:"coupon_id" json:"coupon_id"`
	UserID         int64           `db:"user_id" json:"user_id"`
	OrderNumber    string          `db:"order_number" json:"order_number"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	UsedAt         time.Time       `db:"used_at" json:"used_at"`
}

// Payment tracks an external checkout session
type Payment struct {
	ID              int64           `db:"id" json:"id"`
	OrderNumber     string          `db:"order_number" json:"order_number"`
	StripeSessionID string          `db:"stripe_session_id" json:"stripe_session_id"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Currency        string          `db:"currency" json:"currency"`
	Status          string          `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// SellerWallet is the per-seller running balance of earned funds.
// Balance must equal TotalEarned - TotalWithdrawn.
type SellerWallet struct {
	ID             int64           `db:"id" json:"id"`
	SellerID       int64           `db:"seller_id" json:"seller_id"`
	Balance        decimal.Decimal `db:"balance" json:"balance"`
	TotalEarned    decimal.Decimal `db:"total_earned" json:"total_earned"`
	TotalWithdrawn decimal.Decimal `db:"total_withdrawn" json:"total_withdrawn"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Earning is one payout ledger row per (order item, seller)
type Earning struct {
	ID          int64           `db:"id" json:"id"`
	SellerID    int64           `db:"seller_id" json:"seller_id"`
	OrderID     int64           `db:"order_id" json:"order_id"`
	OrderItemID int64           `db:"order_item_id" json:"order_item_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	PlatformFee decimal.Decimal `db:"platform_fee" json:"platform_fee"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// PayoutRequest is a seller withdrawal request
type PayoutRequest struct {
	ID          int64           `db:"id" json:"id"`
	SellerID    int64           `db:"seller_id" json:"seller_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      string          `db:"status" json:"status"`
	Method      string          `db:"method" json:"method"`
	Notes       string          `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// RefundRequest is a buyer's request to refund an order or a single item
type RefundRequest struct {
	ID            int64           `db:"id" json:"id"`
	RequestNumber string          `db:"request_number" json:"request_number"`
	OrderID       int64           `db:"order_id" json:"order_id"`
	OrderItemID   *int64          `db:"order_item_id" json:"order_item_id,omitempty"`
	UserID        int64           `db:"user_id" json:"user_id"`
	Reason        string          `db:"reason" json:"reason"`
	Description   string          `db:"description" json:"description"`
	RefundAmount  decimal.Decimal `db:"refund_amount" json:"refund_amount"`
	Status        string          `db:"status" json:"status"`
	AdminNotes    string          `db:"admin_notes" json:"admin_notes,omitempty"`
	ProcessedBy   *int64          `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt   *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Refund is the refund transaction spawned by an approved request
type Refund struct {
	ID              int64           `db:"id" json:"id"`
	RefundNumber    string          `db:"refund_number" json:"refund_number"`
	RefundRequestID int64           `db:"refund_request_id" json:"refund_request_id"`
	OrderID         int64           `db:"order_id" json:"order_id"`
	UserID          int64           `db:"user_id" json:"user_id"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Method          string          `db:"method" json:"method"`
	Status          string          `db:"status" json:"status"`
	TransactionID   string          `db:"transaction_id" json:"transaction_id,omitempty"`
	Notes           string          `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	CompletedAt     *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// StoreCredit is a per-user redeemable balance, distinct from seller wallets
type StoreCredit struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// StoreCreditTransaction is one row of the append-only store credit log.
// BalanceAfter is recorded per transaction for auditability.
type StoreCreditTransaction struct {
	ID            int64           `db:"id" json:"id"`
	StoreCreditID int64           `db:"store_credit_id" json:"store_credit_id"`
	Type          string          `db:"transaction_type" json:"transaction_type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Description   string          `db:"description" json:"description,omitempty"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Event is a flash sale applying a percentage discount
type Event struct {
	ID                 int64           `db:"id" json:"id"`
	Name               string          `db:"name" json:"name"`
	Slug               string          `db:"slug" json:"slug"`
	EventType          string          `db:"event_type" json:"event_type"`
	DiscountPercentage decimal.Decimal `db:"discount_percentage" json:"discount_percentage"`
	StartDate          time.Time       `db:"start_date" json:"start_date"`
	EndDate            time.Time       `db:"end_date" json:"end_date"`
	IsActive           bool            `db:"is_active" json:"is_active"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// IsOngoing reports whether the event window covers now
func (e *Event) IsOngoing(now time.Time) bool {
	return e.IsActive && !now.Before(e.StartDate) && !now.After(e.EndDate)
}

// DiscountedPrice applies the event percentage to a price
func (e *Event) DiscountedPrice(price decimal.Decimal) decimal.Decimal {
	discount := price.Mul(e.DiscountPercentage).Div(decimal.NewFromInt(100))
	return price.Sub(discount).Round(2)
}

// WishlistItem links a user to a saved product
type WishlistItem struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
