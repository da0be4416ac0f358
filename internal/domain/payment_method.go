package domain

import (
	"time"
)

// PaymentMethodState is the validity state of a stored payment instrument.
// A NOT_VALID method must be rejected by purchase and refund validation.
type PaymentMethodState string

const (
	PaymentMethodValid    PaymentMethodState = "VALID"
	PaymentMethodNotValid PaymentMethodState = "NOT_VALID"
)

// PaymentMethodRecord is one row per stored payment instrument. Records are
// soft-deleted only, preserving history for audit and for the reconciler.
type PaymentMethodRecord struct {
	PaymentMethodID string
	AccountID       string
	TenantID        string

	State     PaymentMethodState
	IsDefault bool
	IsDeleted bool

	// AdditionalData carries the opaque gateway token / card metadata.
	AdditionalData map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsUsable reports whether the method may back a new state-changing operation.
func (pm *PaymentMethodRecord) IsUsable() bool {
	return !pm.IsDeleted && pm.State == PaymentMethodValid
}
