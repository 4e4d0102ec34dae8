package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderPlaced      = "ORDER_PLACED"
	EventTypePaymentSucceeded = "PAYMENT_SUCCEEDED"
	EventTypeOrderPaid        = "ORDER_PAID"
	EventTypeOrderCancelled   = "ORDER_CANCELLED"
	EventTypeRefundCompleted  = "REFUND_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when checkout assembles an order
type OrderPlacedEvent struct {
	BaseEvent
	OrderID       int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        int64           `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	Items         []OrderItemData `json:"items"`
}

// PaymentSucceededEvent published when the gateway confirms a payment
type PaymentSucceededEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	PaymentID   int64           `json:"payment_id"`
	Amount      decimal.Decimal `json:"amount"`
	SessionID   string          `json:"session_id"`
}

// OrderPaidEvent published after the paid transition and earnings distribution
type OrderPaidEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      int64           `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// OrderCancelledEvent published when an order is cancelled and stock restored
type OrderCancelledEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// RefundCompletedEvent published when a refund transaction completes
type RefundCompletedEvent struct {
	BaseEvent
	RefundID     int64           `json:"refund_id"`
	RefundNumber string          `json:"refund_number"`
	OrderID      int64           `json:"order_id"`
	UserID       int64           `json:"user_id"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID    int64           `json:"product_id"`
	SellerID     int64           `json:"seller_id"`
	Quantity     int             `json:"quantity"`
	ProductPrice decimal.Decimal `json:"product_price"`
}
