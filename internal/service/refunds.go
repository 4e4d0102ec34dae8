package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"karupatti-shop/internal/broker"
	"karupatti-shop/internal/models"
	"karupatti-shop/internal/store"
	"karupatti-shop/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RefundService manages the refund request lifecycle and the store credit
// ledger it feeds
type RefundService struct {
	store     *store.Store
	publisher *broker.EventPublisher
	logger    *zap.Logger
}

// NewRefundService creates a new refund service
func NewRefundService(store *store.Store, publisher *broker.EventPublisher) *RefundService {
	return &RefundService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// NewRequestNumber generates a refund request number
func NewRequestNumber() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "REF" + strings.ToUpper(hex[:8])
}

// NewRefundNumber generates a refund transaction number
func NewRefundNumber() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "RFD" + strings.ToUpper(hex[:8])
}

// CreateRequestInput carries the refund request form data
type CreateRequestInput struct {
	OrderNumber string `json:"order_number" binding:"required"`
	OrderItemID *int64 `json:"order_item_id,omitempty"`
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// CreateRequest opens a refund request for a delivered, paid order. The
// refund amount is the item subtotal for a single-item request or the order
// total for a whole-order one; only one request may be open per order.
func (rs *RefundService) CreateRequest(ctx context.Context, userID int64, input *CreateRequestInput) (*models.RefundRequest, error) {
	ctx, span := util.StartSpan(ctx, "RefundService.CreateRequest")
	defer span.End()

	if strings.TrimSpace(input.Reason) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, ErrMissingReason
	}

	order, err := rs.store.GetOrderForUser(ctx, input.OrderNumber, userID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusDelivered || !order.IsPaid() {
		return nil, ErrOrderNotRefundable
	}

	open, err := rs.store.HasOpenRefundRequest(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrRefundAlreadyOpen
	}

	amount := order.TotalAmount
	if input.OrderItemID != nil {
		item, err := rs.store.GetOrderItemByID(ctx, *input.OrderItemID, order.ID)
		if err != nil {
			return nil, err
		}
		amount = item.Subtotal
	}

	req := &models.RefundRequest{
		RequestNumber: NewRequestNumber(),
		OrderID:       order.ID,
		OrderItemID:   input.OrderItemID,
		UserID:        userID,
		Reason:        input.Reason,
		Description:   input.Description,
		RefundAmount:  amount,
		Status:        models.RefundRequestPending,
	}
	if err := rs.store.CreateRefundRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create refund request: %w", err)
	}

	util.RefundRequestsTotal.WithLabelValues(models.RefundRequestPending).Inc()
	rs.logger.Info("Refund requested",
		zap.String("request_number", req.RequestNumber),
		zap.String("order_number", order.OrderNumber),
		zap.String("amount", amount.String()))

	return req, nil
}

// GetRequest retrieves a refund request scoped to its owner
func (rs *RefundService) GetRequest(ctx context.Context, requestNumber string, userID int64) (*models.RefundRequest, error) {
	return rs.store.GetRefundRequestForUser(ctx, requestNumber, userID)
}

// ListRequests retrieves a user's refund requests
func (rs *RefundService) ListRequests(ctx context.Context, userID int64) ([]models.RefundRequest, error) {
	return rs.store.GetRefundRequestsByUser(ctx, userID)
}

// CancelRequest cancels a pending refund request (owner action)
func (rs *RefundService) CancelRequest(ctx context.Context, requestNumber string, userID int64) error {
	req, err := rs.store.GetRefundRequestForUser(ctx, requestNumber, userID)
	if err != nil {
		return err
	}

	ok, err := rs.store.CancelRefundRequest(ctx, req.ID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	util.RefundRequestsTotal.WithLabelValues(models.RefundRequestCancelled).Inc()
	return nil
}

// ApproveRequest approves a pending refund request and spawns the refund
// transaction that will move the money
func (rs *RefundService) ApproveRequest(ctx context.Context, requestNumber string, adminID int64, method, notes string) (*models.Refund, error) {
	ctx, span := util.StartSpan(ctx, "RefundService.ApproveRequest")
	defer span.End()

	switch method {
	case models.RefundMethodOriginal, models.RefundMethodStoreCredit, models.RefundMethodBankTransfer:
	default:
		return nil, fmt.Errorf("unsupported refund method: %s", method)
	}

	req, err := rs.store.GetRefundRequestByNumber(ctx, requestNumber)
	if err != nil {
		return nil, err
	}

	ok, err := rs.store.TransitionRefundRequest(ctx, req.ID,
		models.RefundRequestPending, models.RefundRequestApproved, adminID, notes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	refund := &models.Refund{
		RefundNumber:    NewRefundNumber(),
		RefundRequestID: req.ID,
		OrderID:         req.OrderID,
		UserID:          req.UserID,
		Amount:          req.RefundAmount,
		Method:          method,
		Status:          models.RefundStatusPending,
		Notes:           notes,
	}
	if err := rs.store.CreateRefund(ctx, refund); err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	util.RefundRequestsTotal.WithLabelValues(models.RefundRequestApproved).Inc()
	rs.logger.Info("Refund request approved",
		zap.String("request_number", requestNumber),
		zap.String("refund_number", refund.RefundNumber),
		zap.String("method", method))

	return refund, nil
}

// RejectRequest rejects a pending refund request (admin action)
func (rs *RefundService) RejectRequest(ctx context.Context, requestNumber string, adminID int64, notes string) error {
	req, err := rs.store.GetRefundRequestByNumber(ctx, requestNumber)
	if err != nil {
		return err
	}

	ok, err := rs.store.TransitionRefundRequest(ctx, req.ID,
		models.RefundRequestPending, models.RefundRequestRejected, adminID, notes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	util.RefundRequestsTotal.WithLabelValues(models.RefundRequestRejected).Inc()
	return nil
}

// CompleteRefund finishes a refund transaction: the guarded completion runs
// exactly once, the parent request cascades to completed, store-credit
// refunds credit the buyer's ledger, and the order is marked refunded.
func (rs *RefundService) CompleteRefund(ctx context.Context, refundNumber, transactionID string) error {
	ctx, span := util.StartSpan(ctx, "RefundService.CompleteRefund")
	defer span.End()

	refund, err := rs.store.GetRefundByNumber(ctx, refundNumber)
	if err != nil {
		return err
	}

	ok, err := rs.store.CompleteRefund(ctx, refund.ID, transactionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	if refund.Method == models.RefundMethodStoreCredit {
		description := fmt.Sprintf("Refund %s", refund.RefundNumber)
		if err := rs.store.AddStoreCredit(ctx, refund.UserID, refund.Amount, description); err != nil {
			return fmt.Errorf("failed to credit store balance: %w", err)
		}
	}

	if err := rs.store.UpdateOrderPaymentStatus(ctx, refund.OrderID, models.PaymentStatusRefunded); err != nil {
		return fmt.Errorf("failed to mark order refunded: %w", err)
	}

	util.RefundRequestsTotal.WithLabelValues(models.RefundRequestCompleted).Inc()
	rs.logger.Info("Refund completed",
		zap.String("refund_number", refundNumber),
		zap.String("method", refund.Method),
		zap.String("amount", refund.Amount.String()))

	event := &models.RefundCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeRefundCompleted,
			Timestamp: time.Now(),
		},
		RefundID:     refund.ID,
		RefundNumber: refund.RefundNumber,
		OrderID:      refund.OrderID,
		UserID:       refund.UserID,
		Amount:       refund.Amount,
		Method:       refund.Method,
	}
	if err := rs.publisher.PublishRefundCompleted(ctx, event); err != nil {
		rs.logger.Error("Failed to publish RefundCompleted event", zap.Error(err))
	}

	return nil
}

// GetStoreCredit retrieves a user's store credit balance
func (rs *RefundService) GetStoreCredit(ctx context.Context, userID int64) (*models.StoreCredit, error) {
	return rs.store.GetStoreCredit(ctx, userID)
}

// ListStoreCreditTransactions retrieves a user's credit ledger
func (rs *RefundService) ListStoreCreditTransactions(ctx context.Context, userID int64) ([]models.StoreCreditTransaction, error) {
	return rs.store.GetStoreCreditTransactions(ctx, userID)
}

// SpendStoreCredit deducts from a user's balance for a purchase. Returns
// ErrInsufficientBalance when the guarded deduction fails.
func (rs *RefundService) SpendStoreCredit(ctx context.Context, userID int64, amount decimal.Decimal, description string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	ok, err := rs.store.DeductStoreCredit(ctx, userID, amount, description)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientBalance
	}
	return nil
}
