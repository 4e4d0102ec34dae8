package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_paid_total",
		Help: "Total number of orders successfully paid",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order attempts",
	}, []string{"reason"})

	CouponsAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coupons_applied_total",
		Help: "Total number of coupons applied to carts",
	})

	CouponsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupons_rejected_total",
		Help: "Total number of rejected coupon attempts",
	}, []string{"reason"})

	CheckoutSessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Total number of gateway checkout sessions created",
	})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Total number of gateway webhook events received",
	}, []string{"type", "outcome"})

	EarningsDistributedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "earnings_distributed_total",
		Help: "Total number of earning rows created",
	})

	PayoutRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_requests_total",
		Help: "Total number of payout requests by status transition",
	}, []string{"status"})

	RefundRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refund_requests_total",
		Help: "Total number of refund requests by status transition",
	}, []string{"status"})

	SettlementLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_latency_seconds",
		Help:    "Latency of the paid transition plus earnings distribution",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
