package reconciler

import (
	"context"

	"github.com/clearbill/gateway-mediator/internal/domain"
	"github.com/clearbill/gateway-mediator/internal/domain/ports"
	"github.com/clearbill/gateway-mediator/pkg/observability"
	"github.com/clearbill/gateway-mediator/pkg/resilience"
)

// AckBody is the literal acknowledgement the gateway expects. Anything else
// makes the gateway redeliver the notification.
const AckBody = "[accepted]"

// Reconciler applies asynchronous gateway notifications to the transaction
// store. It always acknowledges: a notification that cannot be applied is
// logged and counted, never bounced back, because redelivery would fail the
// same way.
type Reconciler struct {
	db       ports.DBPort
	txRepo   ports.TransactionRepository
	noteRepo ports.NotificationRepository
	notifier ports.PlatformNotifier
	logger   ports.Logger
	timeouts *resilience.TimeoutConfig
}

// NewReconciler creates a new notification reconciler
func NewReconciler(
	db ports.DBPort,
	txRepo ports.TransactionRepository,
	noteRepo ports.NotificationRepository,
	notifier ports.PlatformNotifier,
	logger ports.Logger,
	timeouts *resilience.TimeoutConfig,
) *Reconciler {
	return &Reconciler{
		db:       db,
		txRepo:   txRepo,
		noteRepo: noteRepo,
		notifier: notifier,
		logger:   logger,
		timeouts: timeouts,
	}
}

// Reconcile parses a raw notification payload and applies every event in it.
// The returned string is always AckBody.
func (r *Reconciler) Reconcile(ctx context.Context, raw string) string {
	events, err := domain.ParseNotification(raw)
	if err != nil {
		r.logger.Error("discarding malformed notification", ports.Err(err))
		observability.RecordNotification("malformed")
		return AckBody
	}

	for _, event := range events {
		r.applyEvent(ctx, event)
	}
	return AckBody
}

// applyEvent resolves one notification event to its transaction record and
// applies the notified status. The notification is the gateway's final word:
// the status write is unconditional and wins over any synchronous result
// racing with it.
func (r *Reconciler) applyEvent(ctx context.Context, event domain.NotificationEvent) {
	rec, err := r.resolve(ctx, event)
	if err != nil {
		r.logger.Warn("notification does not match any transaction",
			ports.String("merchant_reference", event.MerchantReference),
			ports.String("psp_reference", event.PSPReference),
			ports.String("event_code", event.EventCode))
		observability.RecordNotification("unresolved")
		return
	}

	status := event.StatusForEvent()

	dbCtx, cancel := r.timeouts.DatabaseContext(ctx)
	err = r.txRepo.UpdateStatus(dbCtx, r.db.GetDB(), rec.TransactionID, status, event.PSPReference, event.AdditionalData)
	cancel()
	if err != nil {
		r.logger.Error("failed to apply notification status",
			ports.String("transaction_id", rec.TransactionID),
			ports.String("status", string(status)),
			ports.Err(err))
		observability.RecordNotification("error")
		return
	}

	r.audit(ctx, rec, event)
	r.notifyPlatform(ctx, rec, status)

	r.logger.Info("notification reconciled",
		ports.String("transaction_id", rec.TransactionID),
		ports.String("event_code", event.EventCode),
		ports.String("status", string(status)))
	observability.RecordNotification("processed")
}

// resolve finds the record a notification refers to. The merchant reference
// is the internal transaction id and is tried first; the gateway reference
// covers notifications where the merchant reference is absent or foreign.
func (r *Reconciler) resolve(ctx context.Context, event domain.NotificationEvent) (*domain.TransactionRecord, error) {
	dbCtx, cancel := r.timeouts.DatabaseContext(ctx)
	defer cancel()

	if event.MerchantReference != "" {
		rec, err := r.txRepo.GetByTransactionID(dbCtx, r.db.GetDB(), event.MerchantReference)
		if err == nil {
			return rec, nil
		}
		if !domain.IsNotFoundError(err) {
			return nil, err
		}
	}
	if event.PSPReference != "" {
		return r.txRepo.GetByGatewayReference(dbCtx, r.db.GetDB(), event.PSPReference)
	}
	return nil, domain.ErrNotificationUnresolved
}

// audit appends the notification to the audit table. Audit failures do not
// undo the status write.
func (r *Reconciler) audit(ctx context.Context, rec *domain.TransactionRecord, event domain.NotificationEvent) {
	dbCtx, cancel := r.timeouts.DatabaseContext(ctx)
	defer cancel()

	err := r.noteRepo.Add(dbCtx, r.db.GetDB(), rec.AccountID, rec.PaymentID, rec.TransactionID, rec.TenantID, event)
	if err != nil {
		r.logger.Error("failed to record notification audit row",
			ports.String("transaction_id", rec.TransactionID),
			ports.Err(err))
	}
}

// notifyPlatform tells the billing platform that a transaction changed
// state. Delivery is best effort; the platform can always re-read the store.
func (r *Reconciler) notifyPlatform(ctx context.Context, rec *domain.TransactionRecord, status domain.TransactionStatus) {
	if r.notifier == nil {
		return
	}
	err := r.notifier.NotifyStateChanged(ctx, rec.AccountID, rec.TransactionID, status == domain.StatusProcessed)
	if err != nil {
		r.logger.Warn("platform state-change callback failed",
			ports.String("transaction_id", rec.TransactionID),
			ports.Err(err))
	}
}
