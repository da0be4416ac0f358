package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/clearbill/gateway-mediator/internal/domain"
	"github.com/clearbill/gateway-mediator/internal/domain/ports"
)

const paymentMethodColumns = `payment_method_id, account_id, tenant_id, state, is_default, is_deleted,
	additional_data, created_at, updated_at`

// PaymentMethodRepository implements ports.PaymentMethodRepository on pgx
type PaymentMethodRepository struct {
	db ports.DBPort
}

// NewPaymentMethodRepository creates a new payment method repository
func NewPaymentMethodRepository(db ports.DBPort) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

func (r *PaymentMethodRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// Add inserts a new payment method record
func (r *PaymentMethodRepository) Add(ctx context.Context, tx ports.DBTX, rec *domain.PaymentMethodRecord) error {
	additionalData, err := marshalAdditionalData(rec.AdditionalData)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "add payment method", err)
	}

	state := rec.State
	if state == "" {
		state = domain.PaymentMethodValid
	}

	_, err = r.executor(tx).Exec(ctx, `
		INSERT INTO gateway_payment_methods (
			payment_method_id, account_id, tenant_id, state, is_default, is_deleted,
			additional_data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, false, $6, now(), now())`,
		rec.PaymentMethodID, rec.AccountID, rec.TenantID,
		string(state), rec.IsDefault, additionalData,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "add payment method", err)
	}
	return nil
}

// GetByID retrieves a payment method by id; soft-deleted records are still
// returned so the reconciler and audit paths can see them
func (r *PaymentMethodRepository) GetByID(ctx context.Context, db ports.DBTX, paymentMethodID, tenantID string) (*domain.PaymentMethodRecord, error) {
	row := r.executor(db).QueryRow(ctx, `
		SELECT `+paymentMethodColumns+`
		FROM gateway_payment_methods
		WHERE payment_method_id = $1 AND tenant_id = $2`,
		paymentMethodID, tenantID)
	return scanPaymentMethod(row)
}

// ListByAccount lists the live payment methods of an account
func (r *PaymentMethodRepository) ListByAccount(ctx context.Context, db ports.DBTX, accountID, tenantID string) ([]*domain.PaymentMethodRecord, error) {
	rows, err := r.executor(db).Query(ctx, `
		SELECT `+paymentMethodColumns+`
		FROM gateway_payment_methods
		WHERE account_id = $1 AND tenant_id = $2 AND NOT is_deleted
		ORDER BY created_at DESC`,
		accountID, tenantID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeStorageError, "list payment methods", err)
	}
	defer rows.Close()

	var records []*domain.PaymentMethodRecord
	for rows.Next() {
		rec, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeStorageError, "list payment methods", err)
	}
	return records, nil
}

// SoftDelete flags a payment method as deleted, preserving the row
func (r *PaymentMethodRepository) SoftDelete(ctx context.Context, tx ports.DBTX, paymentMethodID, tenantID string) error {
	tag, err := r.executor(tx).Exec(ctx, `
		UPDATE gateway_payment_methods
		SET is_deleted = true, is_default = false, updated_at = now()
		WHERE payment_method_id = $1 AND tenant_id = $2`,
		paymentMethodID, tenantID)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "delete payment method", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPMNotFound.WithDetail("payment_method_id", paymentMethodID)
	}
	return nil
}

// MarkNotValid overrides the validity state; subsequent purchase/refund
// validation must reject operations against the method
func (r *PaymentMethodRepository) MarkNotValid(ctx context.Context, tx ports.DBTX, paymentMethodID, tenantID string) error {
	tag, err := r.executor(tx).Exec(ctx, `
		UPDATE gateway_payment_methods
		SET state = $3, updated_at = now()
		WHERE payment_method_id = $1 AND tenant_id = $2`,
		paymentMethodID, tenantID, string(domain.PaymentMethodNotValid))
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "mark payment method not valid", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPMNotFound.WithDetail("payment_method_id", paymentMethodID)
	}
	return nil
}

func scanPaymentMethod(row rowScanner) (*domain.PaymentMethodRecord, error) {
	var (
		rec            domain.PaymentMethodRecord
		state          string
		additionalData []byte
	)

	err := row.Scan(
		&rec.PaymentMethodID, &rec.AccountID, &rec.TenantID,
		&state, &rec.IsDefault, &rec.IsDeleted,
		&additionalData, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPMNotFound
		}
		return nil, domain.WrapError(domain.ErrorCodeStorageError, "scan payment method", err)
	}

	data, err := unmarshalAdditionalData(additionalData)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeStorageError, "scan payment method", err)
	}
	rec.State = domain.PaymentMethodState(state)
	rec.AdditionalData = data
	return &rec, nil
}
