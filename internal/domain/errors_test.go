package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbill/gateway-mediator/internal/domain"
)

func TestDomainError_ErrorString(t *testing.T) {
	err := domain.NewDomainError(domain.ErrorCodeTxnNotFound, "transaction not found")
	assert.Equal(t, "TXN_NOT_FOUND: transaction not found", err.Error())

	wrapped := domain.WrapError(domain.ErrorCodeStorageError, "insert failed", errors.New("connection reset"))
	assert.Contains(t, wrapped.Error(), "INTERNAL_STORAGE_ERROR")
	assert.Contains(t, wrapped.Error(), "connection reset")
}

func TestDomainError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := domain.WrapError(domain.ErrorCodeGatewayCommunication, "gateway request failed", inner)

	assert.ErrorIs(t, wrapped, inner)

	// Survives further wrapping with %w.
	outer := fmt.Errorf("purchase: %w", wrapped)
	assert.Equal(t, domain.ErrorCodeGatewayCommunication, domain.GetErrorCode(outer))
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, domain.IsGatewayCommunicationError(domain.ErrGatewayTimedOut))
	assert.True(t, domain.IsGatewayCommunicationError(domain.ErrGatewayUnreachable))
	assert.False(t, domain.IsGatewayCommunicationError(domain.ErrTxnNotFound))

	assert.True(t, domain.IsNotFoundError(domain.ErrTxnNotFound))
	assert.True(t, domain.IsNotFoundError(domain.ErrPMNotFound))
	assert.False(t, domain.IsNotFoundError(domain.ErrStorage))

	assert.True(t, domain.IsStorageError(domain.ErrStorage))
	assert.False(t, domain.IsStorageError(errors.New("plain")))

	assert.Equal(t, domain.ErrorCode(""), domain.GetErrorCode(errors.New("plain")))
}

func TestGatewayDecline(t *testing.T) {
	err := domain.NewGatewayDecline("Refused", "The transaction was refused")

	require.True(t, domain.IsGatewayRejection(err))
	assert.Equal(t, "Refused", domain.GatewayDeclineCode(err))
	assert.Equal(t, "", domain.GatewayDeclineCode(errors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := domain.NewDomainError(domain.ErrorCodeInternalError, "oops").
		WithDetail("transaction_id", "txn-1")
	assert.Equal(t, "txn-1", err.Details["transaction_id"])
}
