package payment

import (
	"encoding/json"
	"net/http"

	"github.com/clearbill/gateway-mediator/internal/domain"
	"github.com/clearbill/gateway-mediator/internal/domain/ports"
	"github.com/clearbill/gateway-mediator/internal/services/mediator"
	"github.com/clearbill/gateway-mediator/pkg/resilience"
)

// InfoHandler exposes read-only payment state over HTTP for operators and
// support tooling. Payment operations themselves are an in-process API; this
// handler only reads the store.
type InfoHandler struct {
	orchestrator *mediator.Orchestrator
	logger       ports.Logger
	timeouts     *resilience.TimeoutConfig
}

// NewInfoHandler creates a new payment info handler
func NewInfoHandler(orchestrator *mediator.Orchestrator, logger ports.Logger, timeouts *resilience.TimeoutConfig) *InfoHandler {
	return &InfoHandler{
		orchestrator: orchestrator,
		logger:       logger,
		timeouts:     timeouts,
	}
}

// GetPaymentInfo handles GET /payments?paymentId=...&tenantId=...
func (h *InfoHandler) GetPaymentInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	paymentID := r.URL.Query().Get("paymentId")
	tenantID := r.URL.Query().Get("tenantId")
	if paymentID == "" {
		writeError(w, http.StatusBadRequest, "paymentId is required")
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	outcomes, err := h.orchestrator.GetPaymentInfo(ctx, paymentID, tenantID)
	if err != nil {
		h.logger.Error("failed to read payment info",
			ports.String("payment_id", paymentID), ports.Err(err))
		writeError(w, http.StatusInternalServerError, "failed to read payment info")
		return
	}

	writeJSON(w, http.StatusOK, outcomes)
}

// GetTransaction handles GET /transactions?transactionId=...
func (h *InfoHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	transactionID := r.URL.Query().Get("transactionId")
	if transactionID == "" {
		writeError(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	outcome, err := h.orchestrator.GetTransaction(ctx, transactionID)
	if err != nil {
		if domain.IsNotFoundError(err) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		h.logger.Error("failed to read transaction",
			ports.String("transaction_id", transactionID), ports.Err(err))
		writeError(w, http.StatusInternalServerError, "failed to read transaction")
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
