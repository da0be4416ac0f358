package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/clearbill/gateway-mediator/internal/domain"
	"github.com/clearbill/gateway-mediator/internal/domain/ports"
)

const transactionColumns = `transaction_id, payment_id, account_id, tenant_id, type, amount, currency,
	first_reference, second_reference, additional_data, status,
	gateway_error_code, gateway_error_message, created_at, updated_at`

// TransactionRepository implements ports.TransactionRepository on pgx
type TransactionRepository struct {
	db ports.DBPort
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db ports.DBPort) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// Create inserts a new transaction record
func (r *TransactionRepository) Create(ctx context.Context, tx ports.DBTX, rec *domain.TransactionRecord) error {
	amount, err := decimalToNumeric(rec.Amount)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "create transaction", err)
	}
	additionalData, err := marshalAdditionalData(rec.AdditionalData)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "create transaction", err)
	}

	_, err = r.executor(tx).Exec(ctx, `
		INSERT INTO gateway_transactions (
			transaction_id, payment_id, account_id, tenant_id, type, amount, currency,
			first_reference, second_reference, additional_data, status,
			gateway_error_code, gateway_error_message, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())`,
		rec.TransactionID, rec.PaymentID, rec.AccountID, rec.TenantID,
		string(rec.Type), amount, rec.Currency,
		nullText(rec.FirstReference), nullText(rec.SecondReference), additionalData,
		string(rec.Status), nullText(rec.GatewayErrorCode), nullText(rec.GatewayErrorMsg),
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "create transaction", err)
	}
	return nil
}

// GetByTransactionID retrieves a record by internal transaction id
func (r *TransactionRepository) GetByTransactionID(ctx context.Context, db ports.DBTX, transactionID string) (*domain.TransactionRecord, error) {
	row := r.executor(db).QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM gateway_transactions WHERE transaction_id = $1`, transactionColumns),
		transactionID)
	return r.scanRecord(row)
}

// GetByGatewayReference retrieves the newest record carrying the gateway's
// primary reference
func (r *TransactionRepository) GetByGatewayReference(ctx context.Context, db ports.DBTX, reference string) (*domain.TransactionRecord, error) {
	row := r.executor(db).QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM gateway_transactions
		WHERE first_reference = $1
		ORDER BY created_at DESC
		LIMIT 1`, transactionColumns),
		reference)
	return r.scanRecord(row)
}

// ListByPaymentID lists all records of a logical payment, newest first
func (r *TransactionRepository) ListByPaymentID(ctx context.Context, db ports.DBTX, paymentID, tenantID string) ([]*domain.TransactionRecord, error) {
	rows, err := r.executor(db).Query(ctx, fmt.Sprintf(`
		SELECT %s FROM gateway_transactions
		WHERE payment_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC`, transactionColumns),
		paymentID, tenantID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeStorageError, "list transactions by payment", err)
	}
	defer rows.Close()

	var records []*domain.TransactionRecord
	for rows.Next() {
		rec, err := r.scanRecordFromRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeStorageError, "list transactions by payment", err)
	}
	return records, nil
}

// GetLatestSuccessfulPurchase returns the newest purchase record of a
// payment that has not failed, the base a refund is validated against
func (r *TransactionRepository) GetLatestSuccessfulPurchase(ctx context.Context, db ports.DBTX, paymentID, tenantID string) (*domain.TransactionRecord, error) {
	row := r.executor(db).QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM gateway_transactions
		WHERE payment_id = $1 AND tenant_id = $2
		  AND type = 'PURCHASE' AND status IN ('PENDING', 'PROCESSED')
		ORDER BY created_at DESC
		LIMIT 1`, transactionColumns),
		paymentID, tenantID)
	return r.scanRecord(row)
}

// AttachGatewayResult stores the synchronous gateway result. The CASE guard
// keeps a terminal status written by the reconciler from being downgraded
// when the synchronous write lands late.
func (r *TransactionRepository) AttachGatewayResult(ctx context.Context, tx ports.DBTX, transactionID string, firstRef, secondRef string, additionalData map[string]string, status domain.TransactionStatus, errorCode, errorMsg string) error {
	data, err := marshalAdditionalData(additionalData)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "attach gateway result", err)
	}

	tag, err := r.executor(tx).Exec(ctx, `
		UPDATE gateway_transactions
		SET first_reference        = COALESCE(NULLIF($2, ''), first_reference),
		    second_reference       = COALESCE(NULLIF($3, ''), second_reference),
		    additional_data        = additional_data || $4::jsonb,
		    status                 = CASE WHEN status = 'PENDING' THEN $5 ELSE status END,
		    gateway_error_code     = COALESCE(NULLIF($6, ''), gateway_error_code),
		    gateway_error_message  = COALESCE(NULLIF($7, ''), gateway_error_message),
		    updated_at             = now()
		WHERE transaction_id = $1`,
		transactionID, firstRef, secondRef, data, string(status), errorCode, errorMsg)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "attach gateway result", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTxnNotFound.WithDetail("transaction_id", transactionID)
	}
	return nil
}

// UpdateStatus applies a notification-derived status unconditionally
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, transactionID string, status domain.TransactionStatus, gatewayReference string, additionalData map[string]string) error {
	data, err := marshalAdditionalData(additionalData)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "update transaction status", err)
	}

	tag, err := r.executor(tx).Exec(ctx, `
		UPDATE gateway_transactions
		SET status          = $2,
		    first_reference = COALESCE(NULLIF($3, ''), first_reference),
		    additional_data = additional_data || $4::jsonb,
		    updated_at      = now()
		WHERE transaction_id = $1`,
		transactionID, string(status), gatewayReference, data)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "update transaction status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTxnNotFound.WithDetail("transaction_id", transactionID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *TransactionRepository) scanRecord(row rowScanner) (*domain.TransactionRecord, error) {
	rec, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTxnNotFound
		}
		return nil, domain.WrapError(domain.ErrorCodeStorageError, "scan transaction", err)
	}
	return rec, nil
}

func (r *TransactionRepository) scanRecordFromRows(rows pgx.Rows) (*domain.TransactionRecord, error) {
	rec, err := scanTransaction(rows)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeStorageError, "scan transaction", err)
	}
	return rec, nil
}

func scanTransaction(row rowScanner) (*domain.TransactionRecord, error) {
	var (
		rec            domain.TransactionRecord
		txType, status string
		amount         pgtype.Numeric
		firstRef       pgtype.Text
		secondRef      pgtype.Text
		errorCode      pgtype.Text
		errorMsg       pgtype.Text
		additionalData []byte
	)

	err := row.Scan(
		&rec.TransactionID, &rec.PaymentID, &rec.AccountID, &rec.TenantID,
		&txType, &amount, &rec.Currency,
		&firstRef, &secondRef, &additionalData, &status,
		&errorCode, &errorMsg, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	dec, err := numericToDecimal(amount)
	if err != nil {
		return nil, err
	}
	data, err := unmarshalAdditionalData(additionalData)
	if err != nil {
		return nil, err
	}

	rec.Type = domain.TransactionType(txType)
	rec.Status = domain.TransactionStatus(status)
	rec.Amount = dec
	rec.FirstReference = firstRef.String
	rec.SecondReference = secondRef.String
	rec.GatewayErrorCode = errorCode.String
	rec.GatewayErrorMsg = errorMsg.String
	rec.AdditionalData = data
	return &rec, nil
}
