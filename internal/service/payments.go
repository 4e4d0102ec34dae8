package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"karupatti-shop/config"
	"karupatti-shop/internal/broker"
	"karupatti-shop/internal/models"
	"karupatti-shop/internal/store"
	"karupatti-shop/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// ErrInvalidSignature is returned for webhook payloads that fail signature
// verification
var ErrInvalidSignature = errors.New("invalid webhook signature")

// PaymentService is the gateway adapter: it creates hosted checkout
// sessions and consumes the signed webhook, which is the only path that
// transitions an order to paid
type PaymentService struct {
	store     *store.Store
	publisher *broker.EventPublisher
	cfg       config.StripeConfig
	currency  string
	logger    *zap.Logger
}

// NewPaymentService creates a new payment service and sets the gateway key
func NewPaymentService(store *store.Store, publisher *broker.EventPublisher, cfg config.StripeConfig, currency string) *PaymentService {
	stripe.Key = cfg.SecretKey
	return &PaymentService{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		currency:  currency,
		logger:    util.GetLogger(),
	}
}

// CheckoutSession is the client-facing handle for a hosted payment page
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// toCents converts a decimal money amount to gateway minor units
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CreateCheckoutSession creates a hosted checkout session for a pending
// order. Line items mirror the order items; shipping, tax and discount are
// folded into a single adjustment line so the gateway total matches the
// order total exactly.
func (ps *PaymentService) CreateCheckoutSession(ctx context.Context, orderNumber string, userID int64) (*CheckoutSession, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreateCheckoutSession")
	defer span.End()

	order, err := ps.store.GetOrderForUser(ctx, orderNumber, userID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != models.PaymentMethodStripe {
		return nil, ErrUnsupportedPayMethod
	}
	if order.IsPaid() {
		return nil, ErrOrderAlreadyPaid
	}

	items, err := ps.store.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items)+1)
	itemsTotal := decimal.Zero
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(ps.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.ProductName),
				},
				UnitAmount: stripe.Int64(toCents(item.ProductPrice)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
		itemsTotal = itemsTotal.Add(item.Subtotal)
	}

	// shipping + tax - discount, so the session charges the order total
	adjustment := order.TotalAmount.Sub(itemsTotal)
	if adjustment.IsPositive() {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(ps.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Shipping, tax & discounts"),
				},
				UnitAmount: stripe.Int64(toCents(adjustment)),
			},
			Quantity: stripe.Int64(1),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         lineItems,
		SuccessURL:        stripe.String(ps.cfg.SuccessURL),
		CancelURL:         stripe.String(ps.cfg.CancelURL),
		ClientReferenceID: stripe.String(order.OrderNumber),
	}
	params.AddMetadata("order_number", order.OrderNumber)

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	payment := &models.Payment{
		OrderNumber:     order.OrderNumber,
		StripeSessionID: sess.ID,
		Amount:          order.TotalAmount,
		Currency:        ps.currency,
		Status:          models.CheckoutStatusCreated,
	}
	if err := ps.store.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	util.CheckoutSessionsTotal.Inc()
	ps.logger.Info("Checkout session created",
		zap.String("order_number", order.OrderNumber),
		zap.String("session_id", sess.ID))

	return &CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleWebhook verifies and processes a gateway webhook delivery. Unknown
// sessions are acknowledged and ignored so the gateway stops retrying them.
func (ps *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.HandleWebhook")
	defer span.End()

	event, err := webhook.ConstructEvent(payload, signature, ps.cfg.WebhookSecret)
	if err != nil {
		util.WebhookEventsTotal.WithLabelValues("unknown", "bad_signature").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("failed to parse checkout session: %w", err)
		}
		return ps.handleSessionCompleted(ctx, string(event.Type), sess.ID)

	case "checkout.session.expired":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("failed to parse checkout session: %w", err)
		}
		return ps.handleSessionExpired(ctx, string(event.Type), sess.ID)

	default:
		util.WebhookEventsTotal.WithLabelValues(string(event.Type), "ignored").Inc()
		return nil
	}
}

func (ps *PaymentService) handleSessionCompleted(ctx context.Context, eventType, sessionID string) error {
	payment, err := ps.store.GetPaymentBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if payment == nil {
		util.WebhookEventsTotal.WithLabelValues(eventType, "unknown_session").Inc()
		ps.logger.Warn("Webhook for unknown session", zap.String("session_id", sessionID))
		return nil
	}

	order, err := ps.store.GetOrderByNumber(ctx, payment.OrderNumber)
	if err != nil {
		return err
	}

	if err := ps.store.UpdatePaymentStatus(ctx, payment.ID, models.CheckoutStatusPaid); err != nil {
		return err
	}

	transitioned, err := ps.store.MarkOrderPaid(ctx, order.ID, sessionID)
	if err != nil {
		return err
	}
	if !transitioned {
		current, err := ps.store.GetOrderByNumber(ctx, payment.OrderNumber)
		if err != nil {
			return err
		}
		if current.Status == models.OrderStatusCancelled {
			// the buyer cancelled before the gateway confirmed; the money
			// was collected but the stock is already back, so leave the
			// order cancelled and flag the payment for a manual refund
			util.WebhookEventsTotal.WithLabelValues(eventType, "paid_after_cancel").Inc()
			ps.logger.Warn("Payment confirmed for cancelled order, needs reconciliation",
				zap.String("order_number", order.OrderNumber),
				zap.String("session_id", sessionID))
			return nil
		}
		// redelivery: the order is already paid, ack without re-publishing
		util.WebhookEventsTotal.WithLabelValues(eventType, "duplicate").Inc()
		return nil
	}

	util.WebhookEventsTotal.WithLabelValues(eventType, "paid").Inc()
	util.OrdersPaidTotal.Inc()
	ps.logger.Info("Order paid",
		zap.String("order_number", order.OrderNumber),
		zap.String("session_id", sessionID))

	evt := &models.PaymentSucceededEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentSucceeded,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		PaymentID:   payment.ID,
		Amount:      payment.Amount,
		SessionID:   sessionID,
	}
	if err := ps.publisher.PublishPaymentSucceeded(ctx, evt); err != nil {
		// the reconciler will retry distribution from order state
		ps.logger.Error("Failed to publish PaymentSucceeded event", zap.Error(err))
	}

	return nil
}

func (ps *PaymentService) handleSessionExpired(ctx context.Context, eventType, sessionID string) error {
	payment, err := ps.store.GetPaymentBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if payment == nil {
		util.WebhookEventsTotal.WithLabelValues(eventType, "unknown_session").Inc()
		return nil
	}

	if err := ps.store.UpdatePaymentStatus(ctx, payment.ID, models.CheckoutStatusFailed); err != nil {
		return err
	}

	order, err := ps.store.GetOrderByNumber(ctx, payment.OrderNumber)
	if err != nil {
		return err
	}
	if !order.IsPaid() {
		if err := ps.store.UpdateOrderPaymentStatus(ctx, order.ID, models.PaymentStatusFailed); err != nil {
			return err
		}
	}

	util.WebhookEventsTotal.WithLabelValues(eventType, "expired").Inc()
	ps.logger.Info("Checkout session expired",
		zap.String("order_number", payment.OrderNumber),
		zap.String("session_id", sessionID))
	return nil
}

// GetPayment retrieves the latest payment for an order
func (ps *PaymentService) GetPayment(ctx context.Context, orderNumber string) (*models.Payment, error) {
	return ps.store.GetPaymentByOrderNumber(ctx, orderNumber)
}
