package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/clearbill/gateway-mediator/internal/domain"
	"github.com/clearbill/gateway-mediator/internal/domain/ports"
)

// Request property keys the adapter consumes from the merged property bag.
const (
	PropertyAPIKey          = domain.PropertyAPIKey
	PropertyMerchantAccount = domain.PropertyMerchantAccount
	PropertyReturnURL       = domain.PropertyReturnURL
)

// SessionAdapter implements ports.Gateway against a hosted-checkout-session
// gateway API. A purchase creates a checkout session; the shopper completes
// it out of band and the final outcome arrives as a webhook notification.
type SessionAdapter struct {
	baseURL    string
	httpClient ports.HTTPClient
	logger     ports.Logger
}

// NewSessionAdapter creates a new hosted checkout session adapter
func NewSessionAdapter(baseURL string, httpClient ports.HTTPClient, logger ports.Logger) *SessionAdapter {
	return &SessionAdapter{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

type amountPayload struct {
	Currency string `json:"currency"`
	Value    int64  `json:"value"`
}

type sessionRequest struct {
	Amount          amountPayload `json:"amount"`
	Reference       string        `json:"reference"`
	MerchantAccount string        `json:"merchantAccount"`
	ReturnURL       string        `json:"returnUrl,omitempty"`
}

type sessionResponse struct {
	ID                     string `json:"id"`
	SessionData            string `json:"sessionData"`
	MerchantOrderReference string `json:"merchantOrderReference"`
}

type refundRequest struct {
	Amount          amountPayload `json:"amount"`
	Reference       string        `json:"reference"`
	MerchantAccount string        `json:"merchantAccount"`
}

type refundResponse struct {
	PSPReference string `json:"pspReference"`
	Status       string `json:"status"`
}

type gatewayErrorBody struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
}

// ProcessPayment creates a checkout session. The internal transaction id is
// sent as the merchant reference, which the gateway echoes back in
// notifications and which correlates the asynchronous result.
func (a *SessionAdapter) ProcessPayment(ctx context.Context, req *ports.GatewayRequest) (*ports.GatewayResult, error) {
	body := sessionRequest{
		Amount: amountPayload{
			Currency: req.Currency,
			Value:    minorUnits(req.Amount, req.Currency),
		},
		Reference:       req.TransactionID,
		MerchantAccount: req.Properties[PropertyMerchantAccount],
		ReturnURL:       req.Properties[PropertyReturnURL],
	}

	var resp sessionResponse
	if err := a.post(ctx, "/sessions", req.Properties[PropertyAPIKey], body, &resp); err != nil {
		return nil, err
	}

	return &ports.GatewayResult{
		FirstReference:  resp.ID,
		SecondReference: resp.MerchantOrderReference,
		AdditionalData: map[string]string{
			domain.PropertySessionData: resp.SessionData,
		},
	}, nil
}

// RefundPayment issues a refund against the prior gateway reference.
func (a *SessionAdapter) RefundPayment(ctx context.Context, req *ports.GatewayRequest) (*ports.GatewayResult, error) {
	if req.Reference == "" {
		return nil, domain.ErrGatewayMissingReference
	}

	body := refundRequest{
		Amount: amountPayload{
			Currency: req.Currency,
			Value:    minorUnits(req.Amount, req.Currency),
		},
		Reference:       req.TransactionID,
		MerchantAccount: req.Properties[PropertyMerchantAccount],
	}

	var resp refundResponse
	path := fmt.Sprintf("/payments/%s/refunds", req.Reference)
	if err := a.post(ctx, path, req.Properties[PropertyAPIKey], body, &resp); err != nil {
		return nil, err
	}

	return &ports.GatewayResult{
		FirstReference: resp.PSPReference,
	}, nil
}

// CapturePayment is not expressible on a pure checkout-session gateway:
// capture timing is configured per merchant account (capture delay hours).
func (a *SessionAdapter) CapturePayment(ctx context.Context, req *ports.GatewayRequest) (*ports.GatewayResult, error) {
	return nil, domain.ErrOperationNotSupported
}

// GetPaymentInfo is answered from the local store; the session gateway has
// no synchronous status query.
func (a *SessionAdapter) GetPaymentInfo(ctx context.Context, req *ports.GatewayRequest) (*ports.GatewayResult, error) {
	return nil, domain.ErrOperationNotSupported
}

// GetPaymentMethodDetail is answered from the local store.
func (a *SessionAdapter) GetPaymentMethodDetail(ctx context.Context, req *ports.GatewayRequest) (*ports.GatewayResult, error) {
	return nil, domain.ErrOperationNotSupported
}

func (a *SessionAdapter) post(ctx context.Context, path, apiKey string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeInternalError, "marshal gateway request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domain.WrapError(domain.ErrorCodeInternalError, "build gateway request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", apiKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.WrapError(domain.ErrorCodeGatewayTimeout, "gateway request timed out", err)
		}
		return domain.WrapError(domain.ErrorCodeGatewayCommunication, "gateway request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeGatewayCommunication, "read gateway response", err)
	}

	if httpResp.StatusCode >= 400 {
		var gwErr gatewayErrorBody
		if jsonErr := json.Unmarshal(respBody, &gwErr); jsonErr == nil && gwErr.Message != "" {
			a.logger.Warn("gateway declined request",
				ports.String("path", path),
				ports.String("gateway_code", gwErr.ErrorCode),
				ports.Int("http_status", httpResp.StatusCode))
			return domain.NewGatewayDecline(gwErr.ErrorCode, gwErr.Message)
		}
		return domain.NewGatewayDecline(
			fmt.Sprintf("HTTP_%d", httpResp.StatusCode),
			fmt.Sprintf("gateway returned status %d", httpResp.StatusCode))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return domain.WrapError(domain.ErrorCodeGatewayCommunication, "decode gateway response", err)
	}
	return nil
}
