package service

import (
	"context"
	"fmt"
	"time"

	"karupatti-shop/internal/broker"
	"karupatti-shop/internal/models"
	"karupatti-shop/internal/store"
	"karupatti-shop/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EarningsService distributes paid-order money into seller wallets and
// handles the payout lifecycle
type EarningsService struct {
	store     *store.Store
	publisher *broker.EventPublisher
	logger    *zap.Logger
}

// NewEarningsService creates a new earnings service
func NewEarningsService(store *store.Store, publisher *broker.EventPublisher) *EarningsService {
	return &EarningsService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// SettleOrder distributes the earnings of a paid order. Safe to call more
// than once per order: every earning row is guarded by its (order, item)
// identity, and a wallet is only credited when the row was actually
// created.
func (es *EarningsService) SettleOrder(ctx context.Context, orderID int64) error {
	ctx, span := util.StartSpan(ctx, "EarningsService.SettleOrder")
	defer span.End()

	start := time.Now()

	order, err := es.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.IsPaid() {
		return fmt.Errorf("order %s is not paid, refusing to distribute", order.OrderNumber)
	}

	items, err := es.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	distributed := 0
	for _, item := range items {
		created, err := es.store.CreateEarning(ctx, &models.Earning{
			SellerID:    item.SellerID,
			OrderID:     orderID,
			OrderItemID: item.ID,
			Amount:      item.SellerAmount,
			PlatformFee: item.PlatformFee,
		})
		if err != nil {
			return fmt.Errorf("failed to record earning for item %d: %w", item.ID, err)
		}
		if !created {
			// already distributed for this item on a previous delivery
			continue
		}

		if err := es.store.CreditWallet(ctx, item.SellerID, item.SellerAmount); err != nil {
			return fmt.Errorf("failed to credit seller %d: %w", item.SellerID, err)
		}

		distributed++
		util.EarningsDistributedTotal.Inc()
	}

	util.SettlementLatency.Observe(time.Since(start).Seconds())
	es.logger.Info("Order settled",
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(items)),
		zap.Int("distributed", distributed))

	if distributed > 0 {
		event := &models.OrderPaidEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderPaid,
				Timestamp: time.Now(),
			},
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			TotalAmount: order.TotalAmount,
		}
		if err := es.publisher.PublishOrderPaid(ctx, event); err != nil {
			es.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
		}
	}

	return nil
}

// MarkCODPaid records cash collection for a cash-on-delivery order and
// settles it synchronously, through the same guarded paid transition and
// idempotent distribution the gateway webhook drives for card orders
func (es *EarningsService) MarkCODPaid(ctx context.Context, orderNumber string) error {
	ctx, span := util.StartSpan(ctx, "EarningsService.MarkCODPaid")
	defer span.End()

	order, err := es.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return err
	}
	if order.PaymentMethod != models.PaymentMethodCOD {
		return ErrUnsupportedPayMethod
	}

	transitioned, err := es.store.MarkOrderPaid(ctx, order.ID, models.PaymentMethodCOD)
	if err != nil {
		return err
	}
	if !transitioned {
		if order.Status == models.OrderStatusCancelled {
			return ErrInvalidTransition
		}
		return ErrOrderAlreadyPaid
	}

	util.OrdersPaidTotal.Inc()
	es.logger.Info("Cash payment collected", zap.String("order_number", orderNumber))

	return es.SettleOrder(ctx, order.ID)
}

// GetWallet retrieves a seller's wallet, creating it on first access
func (es *EarningsService) GetWallet(ctx context.Context, sellerID int64) (*models.SellerWallet, error) {
	return es.store.GetWalletBySellerID(ctx, sellerID)
}

// ListEarnings retrieves a seller's earning ledger
func (es *EarningsService) ListEarnings(ctx context.Context, sellerID int64) ([]models.Earning, error) {
	return es.store.GetEarningsBySeller(ctx, sellerID)
}

// RequestPayout creates a pending withdrawal request. The balance is
// checked here for early feedback; the authoritative guard runs at payout
// time, when the wallet is actually debited.
func (es *EarningsService) RequestPayout(ctx context.Context, sellerID int64, amount decimal.Decimal, method string) (*models.PayoutRequest, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	wallet, err := es.store.GetWalletBySellerID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}

	req := &models.PayoutRequest{
		SellerID: sellerID,
		Amount:   amount,
		Status:   models.PayoutStatusPending,
		Method:   method,
	}
	if err := es.store.CreatePayoutRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create payout request: %w", err)
	}

	util.PayoutRequestsTotal.WithLabelValues(models.PayoutStatusPending).Inc()
	es.logger.Info("Payout requested",
		zap.Int64("seller_id", sellerID),
		zap.String("amount", amount.String()))

	return req, nil
}

// ListPayoutRequests retrieves a seller's payout requests
func (es *EarningsService) ListPayoutRequests(ctx context.Context, sellerID int64) ([]models.PayoutRequest, error) {
	return es.store.GetPayoutRequestsBySeller(ctx, sellerID)
}

// ApprovePayout moves a pending payout to approved (admin action)
func (es *EarningsService) ApprovePayout(ctx context.Context, id int64, notes string) error {
	ok, err := es.store.TransitionPayoutStatus(ctx, id, models.PayoutStatusPending, models.PayoutStatusApproved, notes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	util.PayoutRequestsTotal.WithLabelValues(models.PayoutStatusApproved).Inc()
	return nil
}

// RejectPayout moves a pending payout to rejected (admin action)
func (es *EarningsService) RejectPayout(ctx context.Context, id int64, notes string) error {
	ok, err := es.store.TransitionPayoutStatus(ctx, id, models.PayoutStatusPending, models.PayoutStatusRejected, notes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	util.PayoutRequestsTotal.WithLabelValues(models.PayoutStatusRejected).Inc()
	return nil
}

// MarkPayoutPaid completes an approved payout: the wallet debit is a
// guarded atomic decrement, so an overdrawn wallet fails the payout instead
// of going negative
func (es *EarningsService) MarkPayoutPaid(ctx context.Context, id int64, notes string) error {
	ctx, span := util.StartSpan(ctx, "EarningsService.MarkPayoutPaid")
	defer span.End()

	req, err := es.store.GetPayoutRequestByID(ctx, id)
	if err != nil {
		return err
	}

	// claim the request first: the guarded transition admits exactly one
	// caller, so the wallet is never debited twice for the same payout
	ok, err := es.store.TransitionPayoutStatus(ctx, id, models.PayoutStatusApproved, models.PayoutStatusPaid, notes)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	debited, err := es.store.DebitWalletForPayout(ctx, req.SellerID, req.Amount)
	if err != nil {
		return err
	}
	if !debited {
		// balance fell below the requested amount since approval; put the
		// request back so an admin can retry or reject it
		if _, terr := es.store.TransitionPayoutStatus(ctx, id, models.PayoutStatusPaid, models.PayoutStatusApproved, notes); terr != nil {
			es.logger.Error("Failed to revert payout after debit guard",
				zap.Int64("payout_id", id), zap.Error(terr))
		}
		return ErrInsufficientBalance
	}

	util.PayoutRequestsTotal.WithLabelValues(models.PayoutStatusPaid).Inc()
	es.logger.Info("Payout paid",
		zap.Int64("payout_id", id),
		zap.Int64("seller_id", req.SellerID),
		zap.String("amount", req.Amount.String()))

	return nil
}
