package worker

import (
	"context"

	"karupatti-shop/internal/broker"
	"karupatti-shop/internal/models"
	"karupatti-shop/internal/service"
	"karupatti-shop/internal/store"
	"karupatti-shop/internal/util"

	"go.uber.org/zap"
)

// SettlementWorker consumes payment events and drives earnings distribution
// into seller wallets. Every event passes the processed_events guard before
// its side effects run, so redelivered messages settle an order at most once.
type SettlementWorker struct {
	consumer *broker.Consumer
	handler  *broker.EventHandler
	store    *store.Store
	earnings *service.EarningsService
	logger   *zap.Logger
}

// NewSettlementWorker creates a new settlement worker
func NewSettlementWorker(
	consumer *broker.Consumer,
	store *store.Store,
	earnings *service.EarningsService,
) *SettlementWorker {
	w := &SettlementWorker{
		consumer: consumer,
		handler:  broker.NewEventHandler(),
		store:    store,
		earnings: earnings,
		logger:   util.GetLogger(),
	}

	w.handler.OnPaymentSucceeded(w.handlePaymentSucceeded)
	w.handler.OnOrderCancelled(w.handleOrderCancelled)
	w.handler.OnRefundCompleted(w.handleRefundCompleted)

	return w
}

// Start runs the consume loop until the context is cancelled
func (w *SettlementWorker) Start(ctx context.Context) error {
	w.logger.Info("Settlement worker starting")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Stop closes the underlying consumer
func (w *SettlementWorker) Stop() error {
	return w.consumer.Close()
}

func (w *SettlementWorker) handlePaymentSucceeded(ctx context.Context, event *models.PaymentSucceededEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		w.logger.Debug("Skipping processed event", zap.String("event_id", event.EventID))
		return nil
	}

	w.logger.Info("Settling paid order",
		zap.String("order_number", event.OrderNumber),
		zap.String("event_id", event.EventID))

	if err := w.earnings.SettleOrder(ctx, event.OrderID); err != nil {
		// leave the event unmarked so redelivery retries the distribution;
		// the earning-row guards make the retry safe
		return err
	}

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *SettlementWorker) handleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	w.logger.Info("Order cancelled",
		zap.String("order_number", event.OrderNumber),
		zap.String("reason", event.Reason))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *SettlementWorker) handleRefundCompleted(ctx context.Context, event *models.RefundCompletedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	w.logger.Info("Refund completed",
		zap.String("refund_number", event.RefundNumber),
		zap.String("method", event.Method),
		zap.String("amount", event.Amount.String()))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}
