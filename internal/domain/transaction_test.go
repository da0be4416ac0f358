package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/clearbill/gateway-mediator/internal/domain"
)

func TestTransactionStatus_IsTerminal(t *testing.T) {
	assert.False(t, domain.StatusPending.IsTerminal())
	assert.True(t, domain.StatusProcessed.IsTerminal())
	assert.True(t, domain.StatusError.IsTerminal())
	assert.True(t, domain.StatusCanceled.IsTerminal())
}

func TestTransactionRecord_IsRefundable(t *testing.T) {
	tests := []struct {
		name   string
		txType domain.TransactionType
		status domain.TransactionStatus
		want   bool
	}{
		{"processed purchase", domain.TypePurchase, domain.StatusProcessed, true},
		{"pending purchase", domain.TypePurchase, domain.StatusPending, false},
		{"failed purchase", domain.TypePurchase, domain.StatusError, false},
		{"processed refund", domain.TypeRefund, domain.StatusProcessed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &domain.TransactionRecord{Type: tt.txType, Status: tt.status}
			assert.Equal(t, tt.want, rec.IsRefundable())
		})
	}
}

func TestOutcomeFromRecord(t *testing.T) {
	rec := &domain.TransactionRecord{
		TransactionID:   "txn-1",
		PaymentID:       "pay-1",
		Type:            domain.TypePurchase,
		Amount:          decimal.NewFromFloat(10.50),
		Currency:        "EUR",
		Status:          domain.StatusProcessed,
		FirstReference:  "psp-1",
		SecondReference: "order-1",
		AdditionalData:  map[string]string{"sessionData": "abc"},
	}

	out := domain.OutcomeFromRecord(rec)

	assert.Equal(t, "txn-1", out.TransactionID)
	assert.Equal(t, domain.StatusProcessed, out.Status)
	assert.Equal(t, "psp-1", out.FirstReference)
	assert.Equal(t, "abc", out.Properties["sessionData"])

	// The outcome owns its property map.
	out.Properties["sessionData"] = "mutated"
	assert.Equal(t, "abc", rec.AdditionalData["sessionData"])
}

func TestUnsupportedOutcome(t *testing.T) {
	out := domain.UnsupportedOutcome(domain.TypeCapture)

	assert.Equal(t, domain.TypeCapture, out.Type)
	assert.Equal(t, domain.StatusCanceled, out.Status)
	assert.Equal(t, string(domain.ErrorCodeOperationNotSupported), out.GatewayErrorCode)
	assert.NotEmpty(t, out.Message)
}

func TestPaymentMethodRecord_IsUsable(t *testing.T) {
	valid := &domain.PaymentMethodRecord{State: domain.PaymentMethodValid}
	invalid := &domain.PaymentMethodRecord{State: domain.PaymentMethodNotValid}
	deleted := &domain.PaymentMethodRecord{State: domain.PaymentMethodValid, IsDeleted: true}

	assert.True(t, valid.IsUsable())
	assert.False(t, invalid.IsUsable())
	assert.False(t, deleted.IsUsable())
}
