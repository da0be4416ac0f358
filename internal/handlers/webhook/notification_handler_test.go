package webhook_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/clearbill/gateway-mediator/internal/domain"
	"github.com/clearbill/gateway-mediator/internal/domain/ports"
	"github.com/clearbill/gateway-mediator/internal/handlers/webhook"
	"github.com/clearbill/gateway-mediator/internal/services/reconciler"
	"github.com/clearbill/gateway-mediator/pkg/logging"
	"github.com/clearbill/gateway-mediator/pkg/resilience"
)

type stubDBPort struct{}

func (stubDBPort) GetDB() *pgxpool.Pool { return nil }
func (stubDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

type stubTxRepo struct {
	mock.Mock
}

func (m *stubTxRepo) Create(ctx context.Context, tx ports.DBTX, rec *domain.TransactionRecord) error {
	return m.Called(ctx, tx, rec).Error(0)
}

func (m *stubTxRepo) GetByTransactionID(ctx context.Context, db ports.DBTX, transactionID string) (*domain.TransactionRecord, error) {
	args := m.Called(ctx, db, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionRecord), args.Error(1)
}

func (m *stubTxRepo) GetByGatewayReference(ctx context.Context, db ports.DBTX, reference string) (*domain.TransactionRecord, error) {
	args := m.Called(ctx, db, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionRecord), args.Error(1)
}

func (m *stubTxRepo) ListByPaymentID(ctx context.Context, db ports.DBTX, paymentID, tenantID string) ([]*domain.TransactionRecord, error) {
	args := m.Called(ctx, db, paymentID, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TransactionRecord), args.Error(1)
}

func (m *stubTxRepo) GetLatestSuccessfulPurchase(ctx context.Context, db ports.DBTX, paymentID, tenantID string) (*domain.TransactionRecord, error) {
	args := m.Called(ctx, db, paymentID, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionRecord), args.Error(1)
}

func (m *stubTxRepo) AttachGatewayResult(ctx context.Context, tx ports.DBTX, transactionID string, firstRef, secondRef string, additionalData map[string]string, status domain.TransactionStatus, errorCode, errorMsg string) error {
	return m.Called(ctx, tx, transactionID, firstRef, secondRef, additionalData, status, errorCode, errorMsg).Error(0)
}

func (m *stubTxRepo) UpdateStatus(ctx context.Context, tx ports.DBTX, transactionID string, status domain.TransactionStatus, gatewayReference string, additionalData map[string]string) error {
	return m.Called(ctx, tx, transactionID, status, gatewayReference, additionalData).Error(0)
}

type stubNoteRepo struct {
	mock.Mock
}

func (m *stubNoteRepo) Add(ctx context.Context, tx ports.DBTX, accountID, paymentID, transactionID, tenantID string, event domain.NotificationEvent) error {
	return m.Called(ctx, tx, accountID, paymentID, transactionID, tenantID, event).Error(0)
}

func newHandler(t *testing.T, hmacKey string) (*webhook.NotificationHandler, *stubTxRepo) {
	t.Helper()

	txRepo := new(stubTxRepo)
	noteRepo := new(stubNoteRepo)
	noteRepo.On("Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Maybe()

	logger := logging.NewZapLogger(zap.NewNop())
	timeouts := resilience.TestTimeoutConfig()
	rec := reconciler.NewReconciler(stubDBPort{}, txRepo, noteRepo, nil, logger, timeouts)
	return webhook.NewNotificationHandler(rec, logger, timeouts, hmacKey), txRepo
}

func sign(key, body string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

const notificationBody = `{
	"notificationItems": [
		{
			"NotificationRequestItem": {
				"eventCode": "AUTHORISATION",
				"merchantReference": "txn-1",
				"pspReference": "psp-100",
				"success": "true"
			}
		}
	]
}`

func TestNotificationHandler_AcksValidNotification(t *testing.T) {
	handler, txRepo := newHandler(t, "")

	txRepo.On("GetByTransactionID", mock.Anything, mock.Anything, "txn-1").
		Return(&domain.TransactionRecord{TransactionID: "txn-1", Status: domain.StatusPending}, nil)
	txRepo.On("UpdateStatus", mock.Anything, mock.Anything, "txn-1",
		domain.StatusProcessed, "psp-100", mock.Anything).
		Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/notifications", strings.NewReader(notificationBody))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[accepted]", w.Body.String())
}

func TestNotificationHandler_MalformedBodyStillAcked(t *testing.T) {
	handler, _ := newHandler(t, "")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/notifications", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[accepted]", w.Body.String())
}

func TestNotificationHandler_ValidSignature(t *testing.T) {
	handler, txRepo := newHandler(t, "signing-key")

	txRepo.On("GetByTransactionID", mock.Anything, mock.Anything, "txn-1").
		Return(&domain.TransactionRecord{TransactionID: "txn-1", Status: domain.StatusPending}, nil)
	txRepo.On("UpdateStatus", mock.Anything, mock.Anything, "txn-1",
		domain.StatusProcessed, "psp-100", mock.Anything).
		Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/notifications", strings.NewReader(notificationBody))
	req.Header.Set(webhook.SignatureHeader, sign("signing-key", notificationBody))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[accepted]", w.Body.String())
}

func TestNotificationHandler_InvalidSignatureRejected(t *testing.T) {
	handler, txRepo := newHandler(t, "signing-key")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/notifications", strings.NewReader(notificationBody))
	req.Header.Set(webhook.SignatureHeader, sign("wrong-key", notificationBody))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	txRepo.AssertNotCalled(t, "GetByTransactionID", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationHandler_MissingSignatureRejected(t *testing.T) {
	handler, _ := newHandler(t, "signing-key")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/notifications", strings.NewReader(notificationBody))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationHandler_MethodNotAllowed(t *testing.T) {
	handler, _ := newHandler(t, "")

	req := httptest.NewRequest(http.MethodGet, "/webhooks/notifications", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
