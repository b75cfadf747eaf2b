package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"payhub-backend/internal/domain"
	"payhub-backend/internal/utils"
)

type IdempotencyService interface {
	// GetOrExecute replays the stored response for (key, request) or runs execute
	// and stores its response. The bool reports whether the response was replayed.
	GetOrExecute(ctx context.Context, key string, request any, execute func(ctx context.Context) (domain.StoredResponse, error)) (domain.StoredResponse, bool, error)
}

type LedgerService interface {
	CreateLedger(ctx context.Context, req CreateLedgerRequest) (*domain.Ledger, error)
	GetLedger(ctx context.Context, reference string) (*domain.Ledger, error)
	GetStatus(ctx context.Context, reference string) (*utils.BalanceSummary, error)
	ListLedgersByCase(ctx context.Context, ccdCaseNumber string) ([]domain.Ledger, error)
	AddRemission(ctx context.Context, reference string, req RemissionRequest) (*domain.Remission, error)
	// RecalculateStatus recomputes and stores the ledger status, reporting whether it drifted.
	RecalculateStatus(ctx context.Context, reference string) (domain.LedgerStatus, bool, error)
}

type PaymentService interface {
	CreateCreditAccountPayment(ctx context.Context, reference, idempotencyKey string, req CreditAccountPaymentRequest) (*PaymentResult, error)
	UpdatePaymentStatus(ctx context.Context, paymentReference string, status domain.PaymentStatus, errorCode, message string) (*domain.Payment, error)
	RaiseDispute(ctx context.Context, paymentReference string, amount decimal.Decimal) (*domain.Dispute, error)
	ResolveDispute(ctx context.Context, paymentReference string, disputeID int64) error
}

// ServiceDirectory answers questions about the services that own ledgers.
type ServiceDirectory interface {
	IsLegacyPBA(serviceName string) bool
}

type CreateLedgerRequest struct {
	Kind           domain.LedgerKind `json:"kind"`
	CcdCaseNumber  string            `json:"ccd_case_number"`
	CaseReference  string            `json:"case_reference"`
	OrganisationID string            `json:"organisation_id"`
	ServiceName    string            `json:"service_name"`
	CallbackURL    string            `json:"callback_url"`
	Fees           []FeeRequest      `json:"fees"`
}

type FeeRequest struct {
	Code             string              `json:"code"`
	Version          string              `json:"version"`
	Volume           int32               `json:"volume"`
	FeeAmount        decimal.NullDecimal `json:"fee_amount"`
	CalculatedAmount decimal.NullDecimal `json:"calculated_amount"`
}

type RemissionRequest struct {
	HwfReference    string          `json:"hwf_reference"`
	HwfAmount       decimal.Decimal `json:"hwf_amount"`
	BeneficiaryName string          `json:"beneficiary_name"`
	FeeCode         string          `json:"fee_code,omitempty"`
}

type CreditAccountPaymentRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	AccountNumber     string          `json:"account_number"`
	CustomerReference string          `json:"customer_reference"`
	OrganisationName  string          `json:"organisation_name"`
}

// PaymentResponse is the body stored against the idempotency key and replayed verbatim.
type PaymentResponse struct {
	PaymentReference     string                 `json:"payment_reference"`
	ServiceRequestStatus string                 `json:"service_request_status"`
	Status               string                 `json:"status"`
	ErrorCode            string                 `json:"error_code,omitempty"`
	ErrorMessage         string                 `json:"error_message,omitempty"`
	DateCreated          time.Time              `json:"date_created"`
	StatusHistories      []StatusHistoryResponse `json:"status_histories"`
}

type StatusHistoryResponse struct {
	Status       string    `json:"status"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DateCreated  time.Time `json:"date_created"`
}

type PaymentResult struct {
	Code     int
	Payment  PaymentResponse
	Replayed bool
}
