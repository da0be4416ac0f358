package mediator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clearbill/gateway-mediator/internal/config"
	"github.com/clearbill/gateway-mediator/internal/domain"
	"github.com/clearbill/gateway-mediator/internal/domain/ports"
	"github.com/clearbill/gateway-mediator/pkg/observability"
	"github.com/clearbill/gateway-mediator/pkg/resilience"
)

// TransactionRequest is the platform-facing input for payment operations.
type TransactionRequest struct {
	AccountID       string
	PaymentID       string
	TransactionID   string
	TenantID        string
	PaymentMethodID string

	Amount   decimal.Decimal
	Currency string

	// Properties is the opaque caller property bag forwarded to the
	// gateway adapter after tenant configuration is merged in.
	Properties map[string]string
}

// Orchestrator coordinates payment operations: validation, the persisted
// intent record, the gateway call, and the synchronous result write. It
// never resolves PENDING to a terminal status on its own; that is the
// reconciler's job.
type Orchestrator struct {
	db       ports.DBPort
	txRepo   ports.TransactionRepository
	pmRepo   ports.PaymentMethodRepository
	gateway  ports.Gateway
	tenants  *config.TenantResolver
	logger   ports.Logger
	timeouts *resilience.TimeoutConfig
}

// NewOrchestrator creates a new payment orchestrator
func NewOrchestrator(
	db ports.DBPort,
	txRepo ports.TransactionRepository,
	pmRepo ports.PaymentMethodRepository,
	gateway ports.Gateway,
	tenants *config.TenantResolver,
	logger ports.Logger,
	timeouts *resilience.TimeoutConfig,
) *Orchestrator {
	return &Orchestrator{
		db:       db,
		txRepo:   txRepo,
		pmRepo:   pmRepo,
		gateway:  gateway,
		tenants:  tenants,
		logger:   logger,
		timeouts: timeouts,
	}
}

// Purchase initiates a one-step payment. The record is inserted as PENDING
// before the gateway is called; the gateway's synchronous answer is attached
// afterwards unless a notification already resolved the record.
func (o *Orchestrator) Purchase(ctx context.Context, req *TransactionRequest) (*domain.TransactionOutcome, error) {
	pm, err := o.lookupPaymentMethod(ctx, req)
	if err != nil {
		return nil, err
	}
	if rej := ValidateForPurchase(pm); rej != nil {
		return o.rejected(req, domain.TypePurchase, rej), nil
	}

	rec := o.newRecord(req, domain.TypePurchase)
	if err := o.createRecord(ctx, rec); err != nil {
		return nil, err
	}

	tenant := o.tenants.Resolve(req.TenantID)
	gReq := o.gatewayRequest(rec, req.Properties, tenant, "")

	start := time.Now()
	gCtx, cancel := o.timeouts.ExternalAPIContext(ctx)
	result, err := o.gateway.ProcessPayment(gCtx, gReq)
	cancel()
	observability.ObserveGatewayCall("process_payment", start)

	if err != nil {
		return o.gatewayFailed(ctx, rec, err)
	}
	return o.gatewaySucceeded(ctx, rec, result, tenant)
}

// Refund reverses a prior purchase of the same payment. The refund amount is
// validated against the most recent purchase that reached the gateway.
func (o *Orchestrator) Refund(ctx context.Context, req *TransactionRequest) (*domain.TransactionOutcome, error) {
	dbCtx, cancel := o.timeouts.DatabaseContext(ctx)
	prior, err := o.txRepo.GetLatestSuccessfulPurchase(dbCtx, o.db.GetDB(), req.PaymentID, req.TenantID)
	cancel()
	if err != nil {
		if domain.IsNotFoundError(err) {
			out := o.rejectedWith(req, domain.TypeRefund,
				domain.ErrorCodeTxnNotFound, "No purchase found to refund against")
			return out, nil
		}
		return nil, err
	}

	if rej := ValidateForRefund(prior, req.Amount); rej != nil {
		return o.rejected(req, domain.TypeRefund, rej), nil
	}

	rec := o.newRecord(req, domain.TypeRefund)
	if err := o.createRecord(ctx, rec); err != nil {
		return nil, err
	}

	tenant := o.tenants.Resolve(req.TenantID)
	gReq := o.gatewayRequest(rec, req.Properties, tenant, prior.FirstReference)

	start := time.Now()
	gCtx, cancel := o.timeouts.ExternalAPIContext(ctx)
	result, err := o.gateway.RefundPayment(gCtx, gReq)
	cancel()
	observability.ObserveGatewayCall("refund_payment", start)

	if err != nil {
		return o.gatewayFailed(ctx, rec, err)
	}
	return o.gatewaySucceeded(ctx, rec, result, tenant)
}

// Authorize is not supported by the hosted checkout flow. The platform
// receives a CANCELED outcome instead of an error.
func (o *Orchestrator) Authorize(ctx context.Context, req *TransactionRequest) (*domain.TransactionOutcome, error) {
	return o.unsupported(req, domain.TypeAuthorize), nil
}

// Capture is not supported by the hosted checkout flow.
func (o *Orchestrator) Capture(ctx context.Context, req *TransactionRequest) (*domain.TransactionOutcome, error) {
	return o.unsupported(req, domain.TypeCapture), nil
}

// Void is not supported by the hosted checkout flow.
func (o *Orchestrator) Void(ctx context.Context, req *TransactionRequest) (*domain.TransactionOutcome, error) {
	return o.unsupported(req, domain.TypeVoid), nil
}

// Credit is not supported by the hosted checkout flow.
func (o *Orchestrator) Credit(ctx context.Context, req *TransactionRequest) (*domain.TransactionOutcome, error) {
	return o.unsupported(req, domain.TypeCredit), nil
}

// GetPaymentInfo returns the outcomes of every transaction of a logical
// payment, newest first, from the local store. The store reflects every
// notification already reconciled, so no gateway round trip is needed.
func (o *Orchestrator) GetPaymentInfo(ctx context.Context, paymentID, tenantID string) ([]*domain.TransactionOutcome, error) {
	dbCtx, cancel := o.timeouts.DatabaseContext(ctx)
	defer cancel()

	recs, err := o.txRepo.ListByPaymentID(dbCtx, o.db.GetDB(), paymentID, tenantID)
	if err != nil {
		return nil, err
	}
	outcomes := make([]*domain.TransactionOutcome, 0, len(recs))
	for _, rec := range recs {
		outcomes = append(outcomes, domain.OutcomeFromRecord(rec))
	}
	return outcomes, nil
}

// GetTransaction returns the outcome of a single transaction by its id.
func (o *Orchestrator) GetTransaction(ctx context.Context, transactionID string) (*domain.TransactionOutcome, error) {
	dbCtx, cancel := o.timeouts.DatabaseContext(ctx)
	defer cancel()

	rec, err := o.txRepo.GetByTransactionID(dbCtx, o.db.GetDB(), transactionID)
	if err != nil {
		return nil, err
	}
	return domain.OutcomeFromRecord(rec), nil
}

// AddPaymentMethod stores a payment instrument reference. An id is assigned
// when the caller supplies none.
func (o *Orchestrator) AddPaymentMethod(ctx context.Context, rec *domain.PaymentMethodRecord) error {
	if rec.PaymentMethodID == "" {
		rec.PaymentMethodID = uuid.New().String()
	}
	if rec.State == "" {
		rec.State = domain.PaymentMethodValid
	}
	dbCtx, cancel := o.timeouts.DatabaseContext(ctx)
	defer cancel()
	return o.pmRepo.Add(dbCtx, o.db.GetDB(), rec)
}

// DeletePaymentMethod soft-deletes a stored payment instrument. Existing
// transaction records keep referring to it.
func (o *Orchestrator) DeletePaymentMethod(ctx context.Context, paymentMethodID, tenantID string) error {
	dbCtx, cancel := o.timeouts.DatabaseContext(ctx)
	defer cancel()
	return o.pmRepo.SoftDelete(dbCtx, o.db.GetDB(), paymentMethodID, tenantID)
}

// ListPaymentMethods lists the non-deleted payment instruments of an account.
func (o *Orchestrator) ListPaymentMethods(ctx context.Context, accountID, tenantID string) ([]*domain.PaymentMethodRecord, error) {
	dbCtx, cancel := o.timeouts.DatabaseContext(ctx)
	defer cancel()
	return o.pmRepo.ListByAccount(dbCtx, o.db.GetDB(), accountID, tenantID)
}

// GetPaymentMethodDetail returns the stored instrument, enriched with
// gateway-side detail when the adapter supports the lookup.
func (o *Orchestrator) GetPaymentMethodDetail(ctx context.Context, accountID, paymentMethodID, tenantID string) (*domain.PaymentMethodRecord, error) {
	dbCtx, cancel := o.timeouts.DatabaseContext(ctx)
	rec, err := o.pmRepo.GetByID(dbCtx, o.db.GetDB(), paymentMethodID, tenantID)
	cancel()
	if err != nil {
		return nil, err
	}
	// A method already marked not valid never reaches the gateway again.
	if !rec.IsUsable() {
		return rec, nil
	}

	tenant := o.tenants.Resolve(tenantID)
	gReq := &ports.GatewayRequest{
		AccountID: accountID,
		TenantID:  tenantID,
		Reference: paymentMethodID,
		Properties: map[string]string{
			domain.PropertyAPIKey:          tenant.APIKey,
			domain.PropertyMerchantAccount: tenant.MerchantAccount,
		},
	}

	start := time.Now()
	gCtx, cancel := o.timeouts.ExternalAPIContext(ctx)
	result, err := o.gateway.GetPaymentMethodDetail(gCtx, gReq)
	cancel()
	observability.ObserveGatewayCall("payment_method_detail", start)

	if err != nil {
		if domain.IsDomainError(err, domain.ErrorCodeOperationNotSupported) {
			return rec, nil
		}
		return nil, err
	}
	if rec.AdditionalData == nil {
		rec.AdditionalData = make(map[string]string, len(result.AdditionalData))
	}
	for k, v := range result.AdditionalData {
		rec.AdditionalData[k] = v
	}
	return rec, nil
}

func (o *Orchestrator) lookupPaymentMethod(ctx context.Context, req *TransactionRequest) (*domain.PaymentMethodRecord, error) {
	if req.PaymentMethodID == "" {
		return nil, nil
	}
	dbCtx, cancel := o.timeouts.DatabaseContext(ctx)
	defer cancel()

	pm, err := o.pmRepo.GetByID(dbCtx, o.db.GetDB(), req.PaymentMethodID, req.TenantID)
	if err != nil {
		if domain.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return pm, nil
}

func (o *Orchestrator) newRecord(req *TransactionRequest, txType domain.TransactionType) *domain.TransactionRecord {
	transactionID := req.TransactionID
	if transactionID == "" {
		transactionID = uuid.New().String()
	}
	return &domain.TransactionRecord{
		TransactionID: transactionID,
		PaymentID:     req.PaymentID,
		AccountID:     req.AccountID,
		TenantID:      req.TenantID,
		Type:          txType,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Status:        domain.StatusPending,
	}
}

func (o *Orchestrator) createRecord(ctx context.Context, rec *domain.TransactionRecord) error {
	dbCtx, cancel := o.timeouts.DatabaseContext(ctx)
	defer cancel()

	if err := o.txRepo.Create(dbCtx, o.db.GetDB(), rec); err != nil {
		o.logger.Error("failed to record transaction intent",
			ports.String("transaction_id", rec.TransactionID),
			ports.String("type", string(rec.Type)),
			ports.Err(err))
		return err
	}
	return nil
}

func (o *Orchestrator) gatewayRequest(rec *domain.TransactionRecord, callerProps map[string]string, tenant config.TenantGatewayConfig, priorReference string) *ports.GatewayRequest {
	props := make(map[string]string, len(callerProps)+3)
	for k, v := range callerProps {
		props[k] = v
	}
	props[domain.PropertyAPIKey] = tenant.APIKey
	props[domain.PropertyMerchantAccount] = tenant.MerchantAccount
	if _, ok := props[domain.PropertyReturnURL]; !ok && tenant.ReturnURL != "" {
		props[domain.PropertyReturnURL] = tenant.ReturnURL
	}
	return &ports.GatewayRequest{
		AccountID:     rec.AccountID,
		PaymentID:     rec.PaymentID,
		TransactionID: rec.TransactionID,
		TenantID:      rec.TenantID,
		Amount:        rec.Amount,
		Currency:      rec.Currency,
		Reference:     priorReference,
		Properties:    props,
	}
}

// gatewayFailed records a failed gateway call and shapes the caller-facing
// result. Declines become ERROR outcomes; communication failures propagate
// as errors so the platform can retry with the same transaction id.
func (o *Orchestrator) gatewayFailed(ctx context.Context, rec *domain.TransactionRecord, gwErr error) (*domain.TransactionOutcome, error) {
	errorCode := string(domain.GetErrorCode(gwErr))
	declineCode := domain.GatewayDeclineCode(gwErr)
	if declineCode != "" {
		errorCode = declineCode
	}

	o.attachResult(ctx, rec.TransactionID, "", "", nil, domain.StatusError, errorCode, gwErr.Error())

	if domain.IsGatewayCommunicationError(gwErr) {
		o.logger.Warn("gateway unreachable, transaction left in ERROR pending retry",
			ports.String("transaction_id", rec.TransactionID),
			ports.Err(gwErr))
		observability.RecordTransaction(string(rec.Type), string(domain.StatusError))
		return nil, gwErr
	}

	out := domain.OutcomeFromRecord(rec)
	out.Status = domain.StatusError
	out.GatewayErrorCode = errorCode
	out.Message = gwErr.Error()
	observability.RecordTransaction(string(rec.Type), string(domain.StatusError))
	return out, nil
}

// gatewaySucceeded attaches the synchronous gateway answer. A failed write
// after a successful gateway call is surfaced as a best-effort in-memory
// outcome: the gateway-side effect exists and must not be reported as failed.
func (o *Orchestrator) gatewaySucceeded(ctx context.Context, rec *domain.TransactionRecord, result *ports.GatewayResult, tenant config.TenantGatewayConfig) (*domain.TransactionOutcome, error) {
	status := result.StatusHint
	if status == "" {
		status = domain.StatusPending
	}

	stored := o.attachResult(ctx, rec.TransactionID,
		result.FirstReference, result.SecondReference, result.AdditionalData,
		status, "", "")
	if !stored {
		observability.RecordStorageInconsistency()
	}

	rec.FirstReference = result.FirstReference
	rec.SecondReference = result.SecondReference
	rec.Status = status

	out := domain.OutcomeFromRecord(rec)
	if out.Properties == nil {
		out.Properties = make(map[string]string)
	}
	for k, v := range result.AdditionalData {
		out.Properties[k] = v
	}
	if result.FirstReference != "" {
		out.Properties[domain.PropertySessionID] = result.FirstReference
	}
	if tenant.ReturnURL != "" {
		out.Properties[domain.PropertyReturnURL] = tenant.ReturnURL
	}
	observability.RecordTransaction(string(rec.Type), string(status))
	return out, nil
}

// attachResult is a best-effort write of the synchronous gateway result.
// Failures are logged and reported to the caller via the return value; the
// gateway call has already happened and cannot be unwound.
func (o *Orchestrator) attachResult(ctx context.Context, transactionID, firstRef, secondRef string, additionalData map[string]string, status domain.TransactionStatus, errorCode, errorMsg string) bool {
	dbCtx, cancel := o.timeouts.DatabaseContext(ctx)
	defer cancel()

	err := o.txRepo.AttachGatewayResult(dbCtx, o.db.GetDB(), transactionID,
		firstRef, secondRef, additionalData, status, errorCode, errorMsg)
	if err != nil {
		o.logger.Error("failed to attach gateway result",
			ports.String("transaction_id", transactionID),
			ports.String("status", string(status)),
			ports.Err(err))
		return false
	}
	return true
}

func (o *Orchestrator) rejected(req *TransactionRequest, txType domain.TransactionType, rej *Rejection) *domain.TransactionOutcome {
	return o.rejectedWith(req, txType, rej.Code, rej.Message)
}

func (o *Orchestrator) rejectedWith(req *TransactionRequest, txType domain.TransactionType, code domain.ErrorCode, message string) *domain.TransactionOutcome {
	o.logger.Warn("transaction rejected before gateway call",
		ports.String("payment_id", req.PaymentID),
		ports.String("type", string(txType)),
		ports.String("code", string(code)))

	out := domain.CanceledOutcome(txType, message)
	out.TransactionID = req.TransactionID
	out.PaymentID = req.PaymentID
	out.Amount = req.Amount
	out.Currency = req.Currency
	out.GatewayErrorCode = string(code)
	observability.RecordTransaction(string(txType), string(domain.StatusCanceled))
	return out
}

func (o *Orchestrator) unsupported(req *TransactionRequest, txType domain.TransactionType) *domain.TransactionOutcome {
	out := domain.UnsupportedOutcome(txType)
	out.TransactionID = req.TransactionID
	out.PaymentID = req.PaymentID
	out.Amount = req.Amount
	out.Currency = req.Currency
	observability.RecordTransaction(string(txType), string(domain.StatusCanceled))
	return out
}
