package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clearbill/gateway-mediator/internal/domain/ports"
	"github.com/clearbill/gateway-mediator/pkg/resilience"
)

const defaultMaxRetries = 2

// HTTPNotifier delivers transaction state changes to the billing platform
// over a webhook URL. Transient failures (transport errors, 5xx) are retried
// with exponential backoff; delivery remains best effort because the
// platform can always re-read the store.
type HTTPNotifier struct {
	callbackURL string
	httpClient  ports.HTTPClient
	logger      ports.Logger
	backoff     resilience.BackoffStrategy
	maxRetries  int
}

// NewHTTPNotifier creates a platform callback notifier with default retry
// behavior.
func NewHTTPNotifier(callbackURL string, httpClient ports.HTTPClient, logger ports.Logger) *HTTPNotifier {
	return NewHTTPNotifierWithRetry(callbackURL, httpClient, logger,
		resilience.DefaultExponentialBackoff(), defaultMaxRetries)
}

// NewHTTPNotifierWithRetry creates a notifier with an explicit backoff
// strategy and retry budget.
func NewHTTPNotifierWithRetry(callbackURL string, httpClient ports.HTTPClient, logger ports.Logger, backoff resilience.BackoffStrategy, maxRetries int) *HTTPNotifier {
	return &HTTPNotifier{
		callbackURL: callbackURL,
		httpClient:  httpClient,
		logger:      logger,
		backoff:     backoff,
		maxRetries:  maxRetries,
	}
}

type stateChangePayload struct {
	AccountID     string `json:"accountId"`
	TransactionID string `json:"transactionId"`
	Success       bool   `json:"success"`
}

// NotifyStateChanged posts the state change to the platform callback URL.
func (n *HTTPNotifier) NotifyStateChanged(ctx context.Context, accountID, transactionID string, success bool) error {
	body, err := json.Marshal(stateChangePayload{
		AccountID:     accountID,
		TransactionID: transactionID,
		Success:       success,
	})
	if err != nil {
		return fmt.Errorf("marshal state change: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			delay := n.backoff.NextDelay(attempt - 1)
			n.logger.Warn("retrying platform state change delivery",
				ports.String("transaction_id", transactionID),
				ports.Int("attempt", attempt),
				ports.Err(lastErr))
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		retryable, err := n.deliver(ctx, body)
		if err == nil {
			n.logger.Debug("platform state change delivered",
				ports.String("transaction_id", transactionID),
				ports.Bool("success", success))
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return lastErr
}

// deliver sends one attempt. The body reader is rebuilt per attempt because
// http.Request bodies are consumed on send.
func (n *HTTPNotifier) deliver(ctx context.Context, body []byte) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.callbackURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build state change request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("deliver state change: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return true, fmt.Errorf("platform callback returned status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("platform callback returned status %d", resp.StatusCode)
	}
	return false, nil
}
