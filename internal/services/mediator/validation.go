package mediator

import (
	"github.com/shopspring/decimal"

	"github.com/clearbill/gateway-mediator/internal/domain"
)

// Rejection describes a request refused before any gateway interaction.
// A rejected transaction is recorded as CANCELED with the rejection code
// as the gateway error code.
type Rejection struct {
	Code    domain.ErrorCode
	Message string
}

// ValidateForPurchase checks that a usable payment method backs the
// purchase. Rules are evaluated in order and the first failure wins.
func ValidateForPurchase(pm *domain.PaymentMethodRecord) *Rejection {
	if pm == nil {
		return &Rejection{
			Code:    domain.ErrorCodeValidationMissingPaymentMethod,
			Message: "Missing Payment Method",
		}
	}
	if !pm.IsUsable() {
		return &Rejection{
			Code:    domain.ErrorCodeValidationInvalidPaymentMethod,
			Message: "Payment Method is not valid",
		}
	}
	return nil
}

// ValidateForRefund checks a refund amount against the purchase it
// reverses. The prior transaction must already have been located by the
// caller.
func ValidateForRefund(prior *domain.TransactionRecord, amount decimal.Decimal) *Rejection {
	if amount.GreaterThan(prior.Amount) {
		return &Rejection{
			Code:    domain.ErrorCodeValidationAmountExceedsOriginal,
			Message: "The refund amount is more than the transaction amount",
		}
	}
	if amount.IsZero() {
		return &Rejection{
			Code:    domain.ErrorCodeValidationZeroAmount,
			Message: "The refund amount can not be zero",
		}
	}
	return nil
}
