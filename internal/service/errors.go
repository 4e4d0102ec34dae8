package service

import "errors"

// Business-rule violations surfaced to the API layer as 4xx responses.
// State is never mutated when one of these is returned.
var (
	ErrCartEmpty            = errors.New("cart is empty")
	ErrProductUnavailable   = errors.New("product is unavailable")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrCouponNotFound       = errors.New("invalid coupon code")
	ErrOrderNotCancellable  = errors.New("order cannot be cancelled")
	ErrOrderAlreadyPaid     = errors.New("order has already been paid")
	ErrOrderNotRefundable   = errors.New("order is not eligible for refund yet")
	ErrRefundAlreadyOpen    = errors.New("a refund request already exists for this order")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrMissingReason        = errors.New("reason and description are required")
	ErrUnsupportedPayMethod = errors.New("unsupported payment method")
	ErrCheckoutInProgress   = errors.New("a checkout is already in progress for this session")
)

// CouponError carries the user-facing rejection reason from the coupon
// engine
type CouponError struct {
	Reason string
}

func (e *CouponError) Error() string {
	return e.Reason
}
