package checkout_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clearbill/gateway-mediator/internal/adapters/checkout"
	"github.com/clearbill/gateway-mediator/internal/domain"
	"github.com/clearbill/gateway-mediator/internal/domain/ports"
	"github.com/clearbill/gateway-mediator/pkg/logging"
)

// stubHTTPClient records the outbound request and plays back a canned
// response or error.
type stubHTTPClient struct {
	lastRequest *http.Request
	lastBody    []byte

	status int
	body   string
	err    error
}

func (s *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	s.lastRequest = req
	if req.Body != nil {
		s.lastBody, _ = io.ReadAll(req.Body)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(s.body))),
		Header:     make(http.Header),
	}, nil
}

func newAdapter(client *stubHTTPClient) *checkout.SessionAdapter {
	return checkout.NewSessionAdapter("https://gateway.test/v1", client, logging.NewZapLogger(zap.NewNop()))
}

func paymentRequest() *ports.GatewayRequest {
	return &ports.GatewayRequest{
		AccountID:     "acct-1",
		PaymentID:     "pay-1",
		TransactionID: "txn-1",
		TenantID:      "tenant-1",
		Amount:        decimal.NewFromFloat(10.50),
		Currency:      "EUR",
		Properties: map[string]string{
			checkout.PropertyAPIKey:          "test-key",
			checkout.PropertyMerchantAccount: "TestMerchant",
			checkout.PropertyReturnURL:       "https://shop.example.com/return",
		},
	}
}

func TestProcessPayment_CreatesSession(t *testing.T) {
	client := &stubHTTPClient{
		status: http.StatusCreated,
		body:   `{"id": "CS-123", "sessionData": "blob", "merchantOrderReference": "order-1"}`,
	}
	adapter := newAdapter(client)

	result, err := adapter.ProcessPayment(context.Background(), paymentRequest())

	require.NoError(t, err)
	assert.Equal(t, "CS-123", result.FirstReference)
	assert.Equal(t, "order-1", result.SecondReference)
	assert.Equal(t, "blob", result.AdditionalData[domain.PropertySessionData])

	require.NotNil(t, client.lastRequest)
	assert.Equal(t, "https://gateway.test/v1/sessions", client.lastRequest.URL.String())
	assert.Equal(t, "test-key", client.lastRequest.Header.Get("X-API-Key"))
	assert.Equal(t, "application/json", client.lastRequest.Header.Get("Content-Type"))

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(client.lastBody, &sent))
	assert.Equal(t, "txn-1", sent["reference"])
	assert.Equal(t, "TestMerchant", sent["merchantAccount"])
	assert.Equal(t, "https://shop.example.com/return", sent["returnUrl"])

	amount := sent["amount"].(map[string]interface{})
	assert.Equal(t, "EUR", amount["currency"])
	assert.Equal(t, float64(1050), amount["value"])
}

func TestProcessPayment_ZeroDecimalCurrency(t *testing.T) {
	client := &stubHTTPClient{status: http.StatusCreated, body: `{"id": "CS-1"}`}
	adapter := newAdapter(client)

	req := paymentRequest()
	req.Amount = decimal.NewFromInt(1000)
	req.Currency = "JPY"

	_, err := adapter.ProcessPayment(context.Background(), req)
	require.NoError(t, err)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(client.lastBody, &sent))
	amount := sent["amount"].(map[string]interface{})
	assert.Equal(t, float64(1000), amount["value"])
}

func TestProcessPayment_Decline(t *testing.T) {
	client := &stubHTTPClient{
		status: http.StatusUnprocessableEntity,
		body:   `{"errorCode": "901", "message": "Invalid Merchant Account", "status": 422}`,
	}
	adapter := newAdapter(client)

	_, err := adapter.ProcessPayment(context.Background(), paymentRequest())

	require.Error(t, err)
	assert.True(t, domain.IsGatewayRejection(err))
	assert.Equal(t, "901", domain.GatewayDeclineCode(err))
	assert.Contains(t, err.Error(), "Invalid Merchant Account")
}

func TestProcessPayment_DeclineWithoutBody(t *testing.T) {
	client := &stubHTTPClient{status: http.StatusBadGateway, body: ``}
	adapter := newAdapter(client)

	_, err := adapter.ProcessPayment(context.Background(), paymentRequest())

	require.Error(t, err)
	assert.True(t, domain.IsGatewayRejection(err))
	assert.Equal(t, "HTTP_502", domain.GatewayDeclineCode(err))
}

func TestProcessPayment_Timeout(t *testing.T) {
	client := &stubHTTPClient{err: context.DeadlineExceeded}
	adapter := newAdapter(client)

	_, err := adapter.ProcessPayment(context.Background(), paymentRequest())

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayTimeout))
}

func TestProcessPayment_CommunicationFailure(t *testing.T) {
	client := &stubHTTPClient{err: assert.AnError}
	adapter := newAdapter(client)

	_, err := adapter.ProcessPayment(context.Background(), paymentRequest())

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayCommunication))
}

func TestRefundPayment_RequiresPriorReference(t *testing.T) {
	client := &stubHTTPClient{}
	adapter := newAdapter(client)

	req := paymentRequest()
	req.Reference = ""

	_, err := adapter.RefundPayment(context.Background(), req)

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeGatewayMissingReference))
	assert.Nil(t, client.lastRequest)
}

func TestRefundPayment_Success(t *testing.T) {
	client := &stubHTTPClient{
		status: http.StatusCreated,
		body:   `{"pspReference": "psp-refund-1", "status": "received"}`,
	}
	adapter := newAdapter(client)

	req := paymentRequest()
	req.Reference = "psp-100"
	req.TransactionID = "txn-refund-1"

	result, err := adapter.RefundPayment(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "psp-refund-1", result.FirstReference)
	assert.Equal(t, "https://gateway.test/v1/payments/psp-100/refunds", client.lastRequest.URL.String())

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(client.lastBody, &sent))
	assert.Equal(t, "txn-refund-1", sent["reference"])
}

func TestUnsupportedOperations(t *testing.T) {
	adapter := newAdapter(&stubHTTPClient{})
	ctx := context.Background()
	req := paymentRequest()

	_, err := adapter.CapturePayment(ctx, req)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeOperationNotSupported))

	_, err = adapter.GetPaymentInfo(ctx, req)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeOperationNotSupported))

	_, err = adapter.GetPaymentMethodDetail(ctx, req)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeOperationNotSupported))
}
