package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the authoritative outcome of a gateway interaction.
// PENDING is the only non-terminal status: every record must eventually leave
// it via the synchronous result or an asynchronous notification.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusProcessed TransactionStatus = "PROCESSED"
	StatusError     TransactionStatus = "ERROR"
	StatusCanceled  TransactionStatus = "CANCELED"
)

// IsTerminal reports whether the status can no longer change.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusProcessed || s == StatusError || s == StatusCanceled
}

// TransactionType classifies the operation that produced a record.
type TransactionType string

const (
	TypeAuthorize TransactionType = "AUTHORIZE"
	TypeCapture   TransactionType = "CAPTURE"
	TypePurchase  TransactionType = "PURCHASE"
	TypeVoid      TransactionType = "VOID"
	TypeCredit    TransactionType = "CREDIT"
	TypeRefund    TransactionType = "REFUND"
)

// TransactionRecord is one row per attempted gateway interaction. The record
// is inserted before (or atomically with) the outbound call so no gateway
// interaction is ever unobserved by the store.
type TransactionRecord struct {
	// TransactionID is caller-assigned and globally unique.
	// PaymentID groups the transactions of one logical payment.
	TransactionID string
	PaymentID     string
	AccountID     string
	TenantID      string

	Type     TransactionType
	Amount   decimal.Decimal
	Currency string

	// FirstReference is assigned by the gateway on acceptance and is the
	// correlation key for notifications. SecondReference holds the
	// gateway's auxiliary/session token.
	FirstReference  string
	SecondReference string
	AdditionalData  map[string]string

	Status TransactionStatus

	// Gateway code/message for declined or failed attempts.
	GatewayErrorCode string
	GatewayErrorMsg  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRefundable reports whether a refund may be issued against this record.
func (r *TransactionRecord) IsRefundable() bool {
	return r.Type == TypePurchase && r.Status == StatusProcessed
}

// AdditionalDataValue returns the value for a well-known additional-data key,
// or the empty string when absent.
func (r *TransactionRecord) AdditionalDataValue(key string) string {
	if r.AdditionalData == nil {
		return ""
	}
	return r.AdditionalData[key]
}
