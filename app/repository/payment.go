package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/energiq-cloud/ms-go-transaction-payments/app/entity"
)

var (
	ErrPaymentNotFound      = errors.New("transaction payment not found")
	ErrPaymentAlreadyExists = errors.New("transaction payment already exists")
	ErrIllegalTransition    = errors.New("illegal payment status transition")
)

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.TransactionPayment) error {
	query := `
		INSERT INTO transaction_payments (
			transaction_id, provider_id, user_id, cp_id, payment_status, amount, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.TransactionID,
		payment.ProviderID,
		payment.UserID,
		payment.ChargePointID,
		string(payment.Status),
		nullableDecimalValue(payment.Amount),
		payment.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}

	return nil
}

func (r *PaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*entity.TransactionPayment, error) {
	query := `
		SELECT transaction_id, provider_id, user_id, cp_id, payment_status, amount, created_at
		FROM transaction_payments
		WHERE transaction_id = ?
	`

	payment := &entity.TransactionPayment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, transactionID), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *PaymentRepository) ListByProvider(ctx context.Context, providerID string) ([]*entity.TransactionPayment, error) {
	return r.list(ctx, "provider_id", providerID)
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID string) ([]*entity.TransactionPayment, error) {
	return r.list(ctx, "user_id", userID)
}

func (r *PaymentRepository) list(ctx context.Context, column, value string) ([]*entity.TransactionPayment, error) {
	query := `
		SELECT transaction_id, provider_id, user_id, cp_id, payment_status, amount, created_at
		FROM transaction_payments
		WHERE ` + column + ` = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.TransactionPayment, 0)
	for rows.Next() {
		item := &entity.TransactionPayment{}
		if err := scanPayment(rows, item); err != nil {
			return nil, err
		}
		payments = append(payments, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

// UpdateStatus moves a payment to newStatus with a single conditional UPDATE
// guarded by the legal prior statuses, so concurrent writers for the same
// transaction id cannot both win. The amount, when provided, is only written
// while still NULL. A zero-row result is disambiguated with a follow-up read
// into ErrPaymentNotFound or ErrIllegalTransition.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, transactionID string, newStatus entity.PaymentStatus, amount *decimal.Decimal) error {
	priors := entity.AllowedPriorStatuses(newStatus)
	if len(priors) == 0 {
		return ErrIllegalTransition
	}

	placeholders := make([]string, 0, len(priors))
	args := make([]interface{}, 0, len(priors)+3)
	args = append(args, string(newStatus))
	if amount != nil {
		args = append(args, amount.StringFixed(2))
	}
	args = append(args, transactionID)
	for _, prior := range priors {
		placeholders = append(placeholders, "?")
		args = append(args, string(prior))
	}

	query := `UPDATE transaction_payments SET payment_status = ?`
	if amount != nil {
		query += `, amount = COALESCE(amount, ?)`
	}
	query += ` WHERE transaction_id = ? AND payment_status IN (` + strings.Join(placeholders, ", ") + `)`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	existing, err := r.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrPaymentNotFound
	}
	return ErrIllegalTransition
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(scan rowScanner, payment *entity.TransactionPayment) error {
	var status string
	var amount sql.NullString

	err := scan.Scan(
		&payment.TransactionID,
		&payment.ProviderID,
		&payment.UserID,
		&payment.ChargePointID,
		&status,
		&amount,
		&payment.CreatedAt,
	)
	if err != nil {
		return err
	}

	payment.Status = entity.PaymentStatus(status)
	parsed, err := decimalPtrFromNull(amount)
	if err != nil {
		return err
	}
	payment.Amount = parsed

	return nil
}
