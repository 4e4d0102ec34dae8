package store

import (
	"context"
	"database/sql"
	"fmt"

	"karupatti-shop/internal/models"

	"github.com/shopspring/decimal"
)

// CreateRefundRequest creates a pending refund request
func (s *Store) CreateRefundRequest(ctx context.Context, req *models.RefundRequest) error {
	query := `
		INSERT INTO refund_requests (
			request_number, order_id, order_item_id, user_id,
			reason, description, refund_amount, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, req, query,
		req.RequestNumber, req.OrderID, req.OrderItemID, req.UserID,
		req.Reason, req.Description, req.RefundAmount, req.Status)
}

// GetRefundRequestByNumber retrieves a refund request by its number
func (s *Store) GetRefundRequestByNumber(ctx context.Context, requestNumber string) (*models.RefundRequest, error) {
	var req models.RefundRequest
	err := s.db.GetContext(ctx, &req,
		"SELECT * FROM refund_requests WHERE request_number = $1", requestNumber)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("refund request not found: %s", requestNumber)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetRefundRequestForUser retrieves a refund request scoped to its owner
func (s *Store) GetRefundRequestForUser(ctx context.Context, requestNumber string, userID int64) (*models.RefundRequest, error) {
	var req models.RefundRequest
	err := s.db.GetContext(ctx, &req,
		"SELECT * FROM refund_requests WHERE request_number = $1 AND user_id = $2",
		requestNumber, userID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("refund request not found: %s", requestNumber)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetRefundRequestsByUser retrieves a user's refund requests
func (s *Store) GetRefundRequestsByUser(ctx context.Context, userID int64) ([]models.RefundRequest, error) {
	var reqs []models.RefundRequest
	err := s.db.SelectContext(ctx, &reqs,
		"SELECT * FROM refund_requests WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return reqs, err
}

// HasOpenRefundRequest checks for a pending/approved/processing request on an
// order; only one may be open at a time
func (s *Store) HasOpenRefundRequest(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM refund_requests
			WHERE order_id = $1 AND status IN ($2, $3)
		)`, orderID, models.RefundRequestPending, models.RefundRequestApproved)
	return exists, err
}

// TransitionRefundRequest moves a refund request from one status to another,
// stamping the processing admin. Returns false when the request was not in
// the expected status.
func (s *Store) TransitionRefundRequest(ctx context.Context, id int64, from, to string, adminID int64, notes string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE refund_requests
		SET status = $1, admin_notes = $2, processed_by = $3,
			processed_at = NOW(), updated_at = NOW()
		WHERE id = $4 AND status = $5`,
		to, notes, adminID, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition refund request: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// CancelRefundRequest cancels a pending refund request (owner action).
// Returns false when the request was not pending.
func (s *Store) CancelRefundRequest(ctx context.Context, id, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE refund_requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status = $4`,
		models.RefundRequestCancelled, id, userID, models.RefundRequestPending)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// CreateRefund creates the refund transaction spawned by an approval
func (s *Store) CreateRefund(ctx context.Context, refund *models.Refund) error {
	query := `
		INSERT INTO refunds (
			refund_number, refund_request_id, order_id, user_id,
			amount, method, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, refund, query,
		refund.RefundNumber, refund.RefundRequestID, refund.OrderID, refund.UserID,
		refund.Amount, refund.Method, refund.Status, refund.Notes)
}

// GetRefundByNumber retrieves a refund by its number
func (s *Store) GetRefundByNumber(ctx context.Context, refundNumber string) (*models.Refund, error) {
	var refund models.Refund
	err := s.db.GetContext(ctx, &refund,
		"SELECT * FROM refunds WHERE refund_number = $1", refundNumber)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("refund not found: %s", refundNumber)
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

// CompleteRefund marks a refund completed and cascades the parent request to
// completed in one transaction. Returns false when the refund had already
// completed or failed.
func (s *Store) CompleteRefund(ctx context.Context, refundID int64, transactionID string) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE refunds
		SET status = $1, transaction_id = $2, completed_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)`,
		models.RefundStatusCompleted, transactionID, refundID,
		models.RefundStatusPending, models.RefundStatusProcessing)
	if err != nil {
		return false, fmt.Errorf("failed to complete refund: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE refund_requests
		SET status = $1, updated_at = NOW()
		WHERE id = (SELECT refund_request_id FROM refunds WHERE id = $2)`,
		models.RefundRequestCompleted, refundID)
	if err != nil {
		return false, fmt.Errorf("failed to cascade refund request: %w", err)
	}

	return true, tx.Commit()
}

// EnsureStoreCredit creates the store credit row for a user if missing
func (s *Store) EnsureStoreCredit(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO store_credits (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING",
		userID)
	return err
}

// GetStoreCredit retrieves a user's store credit, creating it when missing
func (s *Store) GetStoreCredit(ctx context.Context, userID int64) (*models.StoreCredit, error) {
	if err := s.EnsureStoreCredit(ctx, userID); err != nil {
		return nil, err
	}
	var credit models.StoreCredit
	err := s.db.GetContext(ctx, &credit,
		"SELECT * FROM store_credits WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	return &credit, nil
}

// AddStoreCredit adds to a user's balance and appends a ledger row carrying
// the resulting balance
func (s *Store) AddStoreCredit(ctx context.Context, userID int64, amount decimal.Decimal, description string) error {
	if err := s.EnsureStoreCredit(ctx, userID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var credit models.StoreCredit
	err = tx.GetContext(ctx, &credit, `
		UPDATE store_credits
		SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING *`, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to add store credit: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO store_credit_transactions
			(store_credit_id, transaction_type, amount, description, balance_after)
		VALUES ($1, $2, $3, $4, $5)`,
		credit.ID, models.CreditTransactionCredit, amount, description, credit.Balance)
	if err != nil {
		return fmt.Errorf("failed to record credit transaction: %w", err)
	}

	return tx.Commit()
}

// DeductStoreCredit deducts from a user's balance, guarded so the balance
// can never go negative. On insufficient balance nothing changes and false
// is returned, with no ledger row written.
func (s *Store) DeductStoreCredit(ctx context.Context, userID int64, amount decimal.Decimal, description string) (bool, error) {
	if err := s.EnsureStoreCredit(ctx, userID); err != nil {
		return false, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var credit models.StoreCredit
	err = tx.GetContext(ctx, &credit, `
		UPDATE store_credits
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
		RETURNING *`, amount, userID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to deduct store credit: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO store_credit_transactions
			(store_credit_id, transaction_type, amount, description, balance_after)
		VALUES ($1, $2, $3, $4, $5)`,
		credit.ID, models.CreditTransactionDebit, amount, description, credit.Balance)
	if err != nil {
		return false, fmt.Errorf("failed to record debit transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// GetStoreCreditTransactions retrieves a user's credit ledger, newest first
func (s *Store) GetStoreCreditTransactions(ctx context.Context, userID int64) ([]models.StoreCreditTransaction, error) {
	var txns []models.StoreCreditTransaction
	err := s.db.SelectContext(ctx, &txns, `
		SELECT t.* FROM store_credit_transactions t
		JOIN store_credits c ON c.id = t.store_credit_id
		WHERE c.user_id = $1
		ORDER BY t.created_at DESC`, userID)
	return txns, err
}
