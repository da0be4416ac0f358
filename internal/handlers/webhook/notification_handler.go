package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/clearbill/gateway-mediator/internal/domain/ports"
	"github.com/clearbill/gateway-mediator/internal/services/reconciler"
	"github.com/clearbill/gateway-mediator/pkg/resilience"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Webhook-Hmac"

const maxBodyBytes = 1 << 20

// NotificationHandler receives gateway webhook notifications and hands them
// to the reconciler. Signature verification is an auth concern: a bad
// signature is rejected with 401 and never reaches reconciliation. Everything
// past auth answers 200 with the gateway's expected acknowledgement body.
type NotificationHandler struct {
	reconciler *reconciler.Reconciler
	logger     ports.Logger
	timeouts   *resilience.TimeoutConfig

	// hmacKey enables signature verification when non-empty.
	hmacKey []byte
}

// NewNotificationHandler creates a new webhook notification handler. An
// empty hmacKey disables signature verification.
func NewNotificationHandler(rec *reconciler.Reconciler, logger ports.Logger, timeouts *resilience.TimeoutConfig, hmacKey string) *NotificationHandler {
	return &NotificationHandler{
		reconciler: rec,
		logger:     logger,
		timeouts:   timeouts,
		hmacKey:    []byte(hmacKey),
	}
}

// ServeHTTP implements http.Handler
func (h *NotificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error("failed to read notification body", ports.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if len(h.hmacKey) > 0 && !h.verifySignature(body, r.Header.Get(SignatureHeader)) {
		h.logger.Warn("rejecting notification with invalid signature",
			ports.String("remote_addr", r.RemoteAddr))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	ack := h.reconciler.Reconcile(ctx, string(body))

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ack))
}

func (h *NotificationHandler) verifySignature(body []byte, header string) bool {
	if header == "" {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.hmacKey)
	mac.Write(body)
	return hmac.Equal(sig, mac.Sum(nil))
}
