package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/clearbill/gateway-mediator/internal/domain"
)

// GatewayRequest is the normalized input for every adapter operation. The
// internal transaction id doubles as the merchant reference sent to the
// gateway, which is how later notifications correlate back.
type GatewayRequest struct {
	AccountID     string
	PaymentID     string
	TransactionID string
	TenantID      string

	Amount   decimal.Decimal
	Currency string

	// Reference is the prior gateway reference id, required by refund and
	// capture against an earlier attempt.
	Reference string

	// Properties is the merged caller-supplied property bag plus resolved
	// tenant configuration the adapter needs (return URL and the like).
	Properties map[string]string
}

// GatewayResult is the normalized adapter output.
type GatewayResult struct {
	// FirstReference is the gateway's primary reference for the attempt.
	FirstReference string
	// SecondReference is the gateway's auxiliary/session reference.
	SecondReference string
	// AdditionalData carries gateway-specific key/values (session token,
	// order reference) that are persisted and surfaced as opaque
	// outcome properties.
	AdditionalData map[string]string
	// StatusHint is the status the adapter already knows, when the
	// gateway answered synchronously. Empty means PENDING until a
	// notification arrives.
	StatusHint domain.TransactionStatus
}

// Gateway translates internal transaction requests into calls against one
// payment-method family of an external gateway. Implementations return
// domain.ErrOperationNotSupported for operations their gateway cannot express
// so the orchestrator can surface a uniform unsupported-operation outcome.
type Gateway interface {
	// ProcessPayment initiates a purchase/checkout session. Idempotency is
	// the caller's responsibility via a unique transaction id per attempt.
	ProcessPayment(ctx context.Context, req *GatewayRequest) (*GatewayResult, error)

	// RefundPayment refunds against a prior gateway reference. Fails with
	// GATEWAY_MISSING_REFERENCE when req.Reference is absent.
	RefundPayment(ctx context.Context, req *GatewayRequest) (*GatewayResult, error)

	// CapturePayment captures a previously authorized amount.
	CapturePayment(ctx context.Context, req *GatewayRequest) (*GatewayResult, error)

	// GetPaymentInfo queries the gateway for the state of a prior attempt.
	GetPaymentInfo(ctx context.Context, req *GatewayRequest) (*GatewayResult, error)

	// GetPaymentMethodDetail fetches gateway-side detail for a stored
	// payment method.
	GetPaymentMethodDetail(ctx context.Context, req *GatewayRequest) (*GatewayResult, error)
}
