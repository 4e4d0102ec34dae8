package store

import (
	"context"
	"database/sql"
	"fmt"

	"karupatti-shop/internal/models"

	"github.com/shopspring/decimal"
)

// CreatePayment creates a payment row for a checkout session
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (order_number, stripe_session_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, payment, query,
		payment.OrderNumber, payment.StripeSessionID, payment.Amount,
		payment.Currency, payment.Status)
}

// GetPaymentBySessionID retrieves a payment by checkout session id, nil when
// the session is unknown (the webhook acks and ignores such events)
func (s *Store) GetPaymentBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE stripe_session_id = $1", sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPaymentByOrderNumber retrieves the latest payment for an order
func (s *Store) GetPaymentByOrderNumber(ctx context.Context, orderNumber string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE order_number = $1 ORDER BY created_at DESC LIMIT 1", orderNumber)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment not found for order: %s", orderNumber)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePaymentStatus updates a payment row's status
func (s *Store) UpdatePaymentStatus(ctx context.Context, paymentID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2",
		status, paymentID)
	return err
}

// EnsureWallet creates the wallet row for a seller if it does not exist
func (s *Store) EnsureWallet(ctx context.Context, sellerID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO seller_wallets (seller_id) VALUES ($1) ON CONFLICT (seller_id) DO NOTHING",
		sellerID)
	return err
}

// GetWalletBySellerID retrieves a seller's wallet, creating it when missing
func (s *Store) GetWalletBySellerID(ctx context.Context, sellerID int64) (*models.SellerWallet, error) {
	if err := s.EnsureWallet(ctx, sellerID); err != nil {
		return nil, err
	}
	var wallet models.SellerWallet
	err := s.db.GetContext(ctx, &wallet,
		"SELECT * FROM seller_wallets WHERE seller_id = $1", sellerID)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// CreditWallet adds a net earning to a seller's wallet. Balance and
// total_earned move together in a single statement, so balance always equals
// total_earned - total_withdrawn.
func (s *Store) CreditWallet(ctx context.Context, sellerID int64, amount decimal.Decimal) error {
	if err := s.EnsureWallet(ctx, sellerID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE seller_wallets
		SET balance = balance + $1, total_earned = total_earned + $1, updated_at = NOW()
		WHERE seller_id = $2`,
		amount, sellerID)
	return err
}

// DebitWalletForPayout moves a paid-out amount from balance to
// total_withdrawn, guarded against overdraw. Returns false when the balance
// is insufficient.
func (s *Store) DebitWalletForPayout(ctx context.Context, sellerID int64, amount decimal.Decimal) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE seller_wallets
		SET balance = balance - $1, total_withdrawn = total_withdrawn + $1, updated_at = NOW()
		WHERE seller_id = $2 AND balance >= $1`,
		amount, sellerID)
	if err != nil {
		return false, fmt.Errorf("failed to debit wallet: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// HasEarningsForOrder checks whether distribution already ran for an order
func (s *Store) HasEarningsForOrder(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM earnings WHERE order_id = $1)", orderID)
	return exists, err
}

// CreateEarning inserts one earning ledger row. The unique (order_id,
// order_item_id) index backs the existence-check guard; a conflicting insert
// is reported as not-created rather than an error.
func (s *Store) CreateEarning(ctx context.Context, earning *models.Earning) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO earnings (seller_id, order_id, order_item_id, amount, platform_fee)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id, order_item_id) DO NOTHING`,
		earning.SellerID, earning.OrderID, earning.OrderItemID,
		earning.Amount, earning.PlatformFee)
	if err != nil {
		return false, fmt.Errorf("failed to create earning: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetEarningsBySeller retrieves a seller's earning rows, newest first
func (s *Store) GetEarningsBySeller(ctx context.Context, sellerID int64) ([]models.Earning, error) {
	var earnings []models.Earning
	err := s.db.SelectContext(ctx, &earnings,
		"SELECT * FROM earnings WHERE seller_id = $1 ORDER BY created_at DESC", sellerID)
	return earnings, err
}

// CreatePayoutRequest creates a pending payout request
func (s *Store) CreatePayoutRequest(ctx context.Context, req *models.PayoutRequest) error {
	query := `
		INSERT INTO payout_requests (seller_id, amount, status, method, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, req, query,
		req.SellerID, req.Amount, req.Status, req.Method, req.Notes)
}

// GetPayoutRequestByID retrieves a payout request
func (s *Store) GetPayoutRequestByID(ctx context.Context, id int64) (*models.PayoutRequest, error) {
	var req models.PayoutRequest
	err := s.db.GetContext(ctx, &req, "SELECT * FROM payout_requests WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payout request not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetPayoutRequestsBySeller retrieves a seller's payout requests
func (s *Store) GetPayoutRequestsBySeller(ctx context.Context, sellerID int64) ([]models.PayoutRequest, error) {
	var reqs []models.PayoutRequest
	err := s.db.SelectContext(ctx, &reqs,
		"SELECT * FROM payout_requests WHERE seller_id = $1 ORDER BY created_at DESC", sellerID)
	return reqs, err
}

// TransitionPayoutStatus moves a payout request from one status to another,
// stamping processed_at. Returns false when the request was not in the
// expected status.
func (s *Store) TransitionPayoutStatus(ctx context.Context, id int64, from, to, notes string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payout_requests
		SET status = $1, notes = $2, processed_at = NOW()
		WHERE id = $3 AND status = $4`,
		to, notes, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition payout: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
