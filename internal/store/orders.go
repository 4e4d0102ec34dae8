package store

import (
	"context"
	"database/sql"
	"fmt"

	"karupatti-shop/internal/models"
)

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (
			order_number, user_id,
			shipping_full_name, shipping_phone, shipping_street, shipping_city,
			shipping_state, shipping_country, shipping_postal_code,
			subtotal, shipping_cost, tax, discount, total_amount,
			payment_method, payment_status, status, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15, $16, $17, $18
		)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.OrderNumber, order.UserID,
		order.ShippingFullName, order.ShippingPhone, order.ShippingStreet, order.ShippingCity,
		order.ShippingState, order.ShippingCountry, order.ShippingPostalCode,
		order.Subtotal, order.ShippingCost, order.Tax, order.Discount, order.TotalAmount,
		order.PaymentMethod, order.PaymentStatus, order.Status, order.Notes)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByNumber retrieves an order by its order number
func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE order_number = $1", orderNumber)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %s", orderNumber)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderForUser retrieves an order by number, scoped to its owner
func (s *Store) GetOrderForUser(ctx context.Context, orderNumber string, userID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE order_number = $1 AND user_id = $2", orderNumber, userID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %s", orderNumber)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// UpdateOrderStatus updates the lifecycle status of an order
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

// UpdateOrderPaymentStatus updates the payment status of an order
func (s *Store) UpdateOrderPaymentStatus(ctx context.Context, orderID int64, paymentStatus string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2",
		paymentStatus, orderID)
	return err
}

// MarkOrderPaid flips the order payment status to paid and stamps paid_at.
// A pending order advances to processing; any later lifecycle status
// (shipped, delivered) is left alone. Guarded so the transition happens at
// most once and never on a cancelled order: cancellation is terminal and
// has already restored the stock, so a late gateway confirmation must not
// resurrect the order. Returns false when the order was already paid or
// cancelled.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID int64, paymentID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1, payment_id = $2,
			status = CASE WHEN status = $3 THEN $4 ELSE status END,
			paid_at = NOW(), updated_at = NOW()
		WHERE id = $5 AND payment_status <> $1 AND status <> $6`,
		models.PaymentStatusPaid, paymentID, models.OrderStatusPending,
		models.OrderStatusProcessing, orderID, models.OrderStatusCancelled)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// CreateOrderItem creates a new order item
func (s *Store) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (
			order_id, product_id, seller_id, product_name, product_price,
			quantity, subtotal, seller_amount, platform_fee
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, item, query,
		item.OrderID, item.ProductID, item.SellerID, item.ProductName, item.ProductPrice,
		item.Quantity, item.Subtotal, item.SellerAmount, item.PlatformFee)
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// GetOrderItemByID retrieves a single order item, scoped to its order
func (s *Store) GetOrderItemByID(ctx context.Context, itemID, orderID int64) (*models.OrderItem, error) {
	var item models.OrderItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM order_items WHERE id = $1 AND order_id = $2", itemID, orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order item not found: %d", itemID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
