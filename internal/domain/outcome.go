package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known additional-data keys the core interprets. Everything else in the
// map is opaque gateway payload.
const (
	PropertySessionID       = "sessionId"
	PropertySessionData     = "sessionData"
	PropertyReturnURL       = "returnUrl"
	PropertyAPIKey          = "apiKey"
	PropertyMerchantAccount = "merchantAccount"
)

// TransactionOutcome is the normalized result returned to the billing
// platform for every operation. Expected business failures (validation
// rejections, gateway declines, unsupported operations) are expressed as
// CANCELED/ERROR outcomes, never as Go errors crossing the orchestrator
// boundary.
type TransactionOutcome struct {
	TransactionID string
	PaymentID     string
	Type          TransactionType
	Amount        decimal.Decimal
	Currency      string
	Status        TransactionStatus

	FirstReference  string
	SecondReference string

	// Message is the human-readable reason for CANCELED/ERROR outcomes.
	Message string
	// GatewayErrorCode carries the gateway's decline code, when one exists.
	GatewayErrorCode string

	// Properties carries opaque caller-facing data such as the hosted
	// checkout session token and return URL.
	Properties map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OutcomeFromRecord mirrors a persisted record into a caller-facing outcome.
func OutcomeFromRecord(rec *TransactionRecord) *TransactionOutcome {
	props := make(map[string]string, len(rec.AdditionalData))
	for k, v := range rec.AdditionalData {
		props[k] = v
	}
	return &TransactionOutcome{
		TransactionID:    rec.TransactionID,
		PaymentID:        rec.PaymentID,
		Type:             rec.Type,
		Amount:           rec.Amount,
		Currency:         rec.Currency,
		Status:           rec.Status,
		FirstReference:   rec.FirstReference,
		SecondReference:  rec.SecondReference,
		GatewayErrorCode: rec.GatewayErrorCode,
		Message:          rec.GatewayErrorMsg,
		Properties:       props,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
}

// CanceledOutcome synthesizes the result for a validation rejection. No
// gateway call was made and no record was persisted.
func CanceledOutcome(txType TransactionType, message string) *TransactionOutcome {
	now := time.Now().UTC()
	return &TransactionOutcome{
		Type:      txType,
		Status:    StatusCanceled,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UnsupportedOutcome tags an operation the active gateway adapter does not
// implement. The platform receives a well-formed result instead of a crash.
func UnsupportedOutcome(txType TransactionType) *TransactionOutcome {
	out := CanceledOutcome(txType, "operation not supported by gateway adapter")
	out.GatewayErrorCode = string(ErrorCodeOperationNotSupported)
	return out
}
