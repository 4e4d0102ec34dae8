package models

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment methods
const (
	PaymentMethodStripe = "stripe"
	PaymentMethodCOD    = "cod"
)

// Order payment statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Checkout-session payment row statuses
const (
	CheckoutStatusCreated  = "created"
	CheckoutStatusPaid     = "paid"
	CheckoutStatusFailed   = "failed"
	CheckoutStatusRefunded = "refunded"
)

// Coupon discount types
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Payout request statuses
const (
	PayoutStatusPending  = "pending"
	PayoutStatusApproved = "approved"
	PayoutStatusPaid     = "paid"
	PayoutStatusRejected = "rejected"
)

// Refund request statuses
const (
	RefundRequestPending   = "pending"
	RefundRequestApproved  = "approved"
	RefundRequestRejected  = "rejected"
	RefundRequestCompleted = "completed"
	RefundRequestCancelled = "cancelled"
)

// Refund transaction statuses
const (
	RefundStatusPending    = "pending"
	RefundStatusProcessing = "processing"
	RefundStatusCompleted  = "completed"
	RefundStatusFailed     = "failed"
)

// Refund methods
const (
	RefundMethodOriginal     = "original"
	RefundMethodStoreCredit  = "store_credit"
	RefundMethodBankTransfer = "bank_transfer"
)

// Store credit transaction types
const (
	CreditTransactionCredit = "credit"
	CreditTransactionDebit  = "debit"
)
