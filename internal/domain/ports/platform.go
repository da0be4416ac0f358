package ports

import (
	"context"
)

// PlatformNotifier signals the billing platform that a pending transaction
// changed state. Fire-and-forget from the reconciler's perspective: the
// platform owns all downstream effects, and delivery failures are logged,
// never propagated to the webhook sender.
type PlatformNotifier interface {
	NotifyStateChanged(ctx context.Context, accountID, transactionID string, success bool) error
}
