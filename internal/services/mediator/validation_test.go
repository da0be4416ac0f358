package mediator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbill/gateway-mediator/internal/domain"
)

func TestValidateForPurchase(t *testing.T) {
	tests := []struct {
		name     string
		pm       *domain.PaymentMethodRecord
		wantCode domain.ErrorCode
		wantMsg  string
	}{
		{
			name:     "missing payment method",
			pm:       nil,
			wantCode: domain.ErrorCodeValidationMissingPaymentMethod,
			wantMsg:  "Missing Payment Method",
		},
		{
			name:     "not valid payment method",
			pm:       &domain.PaymentMethodRecord{State: domain.PaymentMethodNotValid},
			wantCode: domain.ErrorCodeValidationInvalidPaymentMethod,
			wantMsg:  "Payment Method is not valid",
		},
		{
			name:     "soft deleted payment method",
			pm:       &domain.PaymentMethodRecord{State: domain.PaymentMethodValid, IsDeleted: true},
			wantCode: domain.ErrorCodeValidationInvalidPaymentMethod,
		},
		{
			name: "valid payment method",
			pm:   &domain.PaymentMethodRecord{State: domain.PaymentMethodValid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rej := ValidateForPurchase(tt.pm)
			if tt.wantCode == "" {
				assert.Nil(t, rej)
				return
			}
			require.NotNil(t, rej)
			assert.Equal(t, tt.wantCode, rej.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, rej.Message)
			}
		})
	}
}

func TestValidateForRefund(t *testing.T) {
	prior := &domain.TransactionRecord{
		Type:   domain.TypePurchase,
		Status: domain.StatusProcessed,
		Amount: decimal.NewFromFloat(100.00),
	}

	tests := []struct {
		name     string
		amount   decimal.Decimal
		wantCode domain.ErrorCode
	}{
		{"full refund", decimal.NewFromFloat(100.00), ""},
		{"partial refund", decimal.NewFromFloat(33.33), ""},
		{"exceeds original", decimal.NewFromFloat(100.01), domain.ErrorCodeValidationAmountExceedsOriginal},
		{"zero amount", decimal.Zero, domain.ErrorCodeValidationZeroAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rej := ValidateForRefund(prior, tt.amount)
			if tt.wantCode == "" {
				assert.Nil(t, rej)
				return
			}
			require.NotNil(t, rej)
			assert.Equal(t, tt.wantCode, rej.Code)
		})
	}
}

// Amount-exceeds is checked before zero: a zero-amount refund against a
// zero-amount purchase still fails on the zero rule.
func TestValidateForRefund_RuleOrder(t *testing.T) {
	prior := &domain.TransactionRecord{Amount: decimal.Zero}

	rej := ValidateForRefund(prior, decimal.Zero)
	require.NotNil(t, rej)
	assert.Equal(t, domain.ErrorCodeValidationZeroAmount, rej.Code)

	rej = ValidateForRefund(prior, decimal.NewFromInt(1))
	require.NotNil(t, rej)
	assert.Equal(t, domain.ErrorCodeValidationAmountExceedsOriginal, rej.Code)
}
