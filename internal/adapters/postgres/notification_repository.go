package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/clearbill/gateway-mediator/internal/domain"
	"github.com/clearbill/gateway-mediator/internal/domain/ports"
)

// NotificationRepository appends one audit row per reconciled notification
type NotificationRepository struct {
	db ports.DBPort
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db ports.DBPort) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.db.GetDB()
}

// Add records an inbound notification against the transaction it resolved to
func (r *NotificationRepository) Add(ctx context.Context, tx ports.DBTX, accountID, paymentID, transactionID, tenantID string, event domain.NotificationEvent) error {
	additionalData, err := marshalAdditionalData(event.AdditionalData)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "add notification", err)
	}

	_, err = r.executor(tx).Exec(ctx, `
		INSERT INTO gateway_notifications (
			id, account_id, payment_id, transaction_id, tenant_id,
			event_code, merchant_reference, psp_reference, success, reason,
			additional_data, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())`,
		uuid.New().String(), accountID, paymentID, transactionID, tenantID,
		event.EventCode, event.MerchantReference, nullText(event.PSPReference),
		event.Success, nullText(event.Reason), additionalData,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeStorageError, "add notification", err)
	}
	return nil
}
