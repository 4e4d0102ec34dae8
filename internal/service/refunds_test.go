package service

import (
	"context"
	"regexp"
	"testing"

	"karupatti-shop/internal/broker"
	"karupatti-shop/internal/models"
	"karupatti-shop/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^REF[0-9A-F]{8}$`)
	assert.Regexp(t, pattern, NewRequestNumber())
	assert.NotEqual(t, NewRequestNumber(), NewRequestNumber())
}

func TestNewRefundNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^RFD[0-9A-F]{8}$`)
	assert.Regexp(t, pattern, NewRefundNumber())
	assert.NotEqual(t, NewRefundNumber(), NewRefundNumber())
}

func TestCreateRequestRejectedBeforeDelivery(t *testing.T) {
	t.Skip("Integration test - requires database")

	db, err := store.NewStore(testDatabaseURL)
	require.NoError(t, err)
	defer db.Close()

	producer := broker.NewProducer([]string{"localhost:9092"}, "order-events-test")
	defer producer.Close()
	refunds := NewRefundService(db, broker.NewEventPublisher(producer))

	ctx := context.Background()

	// paid but only shipped: not refundable yet
	order, err := db.GetOrderByNumber(ctx, "ORD-TESTSHIPPED")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusShipped, order.Status)
	require.True(t, order.IsPaid())

	_, err = refunds.CreateRequest(ctx, order.UserID, &CreateRequestInput{
		OrderNumber: order.OrderNumber,
		Reason:      "damaged",
		Description: "item arrived damaged",
	})
	assert.ErrorIs(t, err, ErrOrderNotRefundable)

	// delivered but unpaid (open COD) is equally ineligible
	codOrder, err := db.GetOrderByNumber(ctx, "ORD-TESTCODOPEN")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusDelivered, codOrder.Status)
	require.False(t, codOrder.IsPaid())

	_, err = refunds.CreateRequest(ctx, codOrder.UserID, &CreateRequestInput{
		OrderNumber: codOrder.OrderNumber,
		Reason:      "damaged",
		Description: "item arrived damaged",
	})
	assert.ErrorIs(t, err, ErrOrderNotRefundable)
}
