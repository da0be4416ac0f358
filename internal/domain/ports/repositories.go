package ports

import (
	"context"

	"github.com/clearbill/gateway-mediator/internal/domain"
)

// TransactionRepository defines the interface for transaction record
// persistence. The orchestrator and the reconciler are its only writers.
type TransactionRepository interface {
	// Create inserts a new record. The caller inserts the PENDING intent
	// row before (or atomically with) the outbound gateway call.
	Create(ctx context.Context, tx DBTX, rec *domain.TransactionRecord) error

	// GetByTransactionID retrieves a record by internal transaction id
	GetByTransactionID(ctx context.Context, db DBTX, transactionID string) (*domain.TransactionRecord, error)

	// GetByGatewayReference retrieves a record by the gateway's primary
	// reference id. Used when a notification carries no usable merchant
	// reference.
	GetByGatewayReference(ctx context.Context, db DBTX, reference string) (*domain.TransactionRecord, error)

	// ListByPaymentID lists all records of a logical payment, newest first
	ListByPaymentID(ctx context.Context, db DBTX, paymentID, tenantID string) ([]*domain.TransactionRecord, error)

	// GetLatestSuccessfulPurchase returns the most recent purchase record
	// of a payment that reached the gateway (PENDING or PROCESSED), the
	// base a refund is validated against
	GetLatestSuccessfulPurchase(ctx context.Context, db DBTX, paymentID, tenantID string) (*domain.TransactionRecord, error)

	// AttachGatewayResult stores the synchronous gateway result on an
	// existing record. The status assignment only applies while the record
	// is still PENDING: a terminal status written by the reconciler in the
	// meantime is never downgraded.
	AttachGatewayResult(ctx context.Context, tx DBTX, transactionID string, firstRef, secondRef string, additionalData map[string]string, status domain.TransactionStatus, errorCode, errorMsg string) error

	// UpdateStatus applies a notification-derived status. Unconditional:
	// the notification reflects the gateway's final determination and wins
	// over any synchronous write. Replaying the same notification is a
	// no-op beyond overwriting status with the same value.
	UpdateStatus(ctx context.Context, tx DBTX, transactionID string, status domain.TransactionStatus, gatewayReference string, additionalData map[string]string) error
}

// PaymentMethodRepository defines the interface for stored payment
// instrument persistence. Deletion is always soft.
type PaymentMethodRepository interface {
	Add(ctx context.Context, tx DBTX, rec *domain.PaymentMethodRecord) error
	GetByID(ctx context.Context, db DBTX, paymentMethodID, tenantID string) (*domain.PaymentMethodRecord, error)
	ListByAccount(ctx context.Context, db DBTX, accountID, tenantID string) ([]*domain.PaymentMethodRecord, error)
	SoftDelete(ctx context.Context, tx DBTX, paymentMethodID, tenantID string) error
	MarkNotValid(ctx context.Context, tx DBTX, paymentMethodID, tenantID string) error
}

// NotificationRepository appends an audit row per reconciled notification.
type NotificationRepository interface {
	Add(ctx context.Context, tx DBTX, accountID, paymentID, transactionID, tenantID string, event domain.NotificationEvent) error
}
