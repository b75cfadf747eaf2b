package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"payhub-backend/internal/account"
	"payhub-backend/internal/domain"
	"payhub-backend/internal/events"
	"payhub-backend/internal/logger"
	"payhub-backend/internal/repository"
	"payhub-backend/internal/utils"
)

// PaymentOptions carries the payment settings resolved from configuration.
type PaymentOptions struct {
	StatusRule       utils.StatusRule
	Currency         string
	ApportionEnabled bool
	ApportionGoLive  time.Time
	CallbacksEnabled bool
}

type paymentService struct {
	ledgerRepo  repository.LedgerRepository
	tx          repository.Transactor
	idempotency IdempotencyService
	accounts    account.AccountClient
	services    ServiceDirectory
	publisher   events.Publisher
	refs        *utils.ReferenceGenerator
	opts        PaymentOptions
	now         func() time.Time
}

func NewPaymentService(
	ledgerRepo repository.LedgerRepository,
	tx repository.Transactor,
	idempotency IdempotencyService,
	accounts account.AccountClient,
	services ServiceDirectory,
	publisher events.Publisher,
	refs *utils.ReferenceGenerator,
	opts PaymentOptions,
) PaymentService {
	if opts.Currency == "" {
		opts.Currency = domain.CurrencyGBP
	}
	return &paymentService{
		ledgerRepo:  ledgerRepo,
		tx:          tx,
		idempotency: idempotency,
		accounts:    accounts,
		services:    services,
		publisher:   publisher,
		refs:        refs,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// creditAccountRequest is what the idempotency hash covers: the target ledger and the body.
type creditAccountRequest struct {
	ServiceRequestReference string `json:"service_request_reference"`
	CreditAccountPaymentRequest
}

func (s *paymentService) CreateCreditAccountPayment(ctx context.Context, reference, idempotencyKey string, req CreditAccountPaymentRequest) (*PaymentResult, error) {
	logger.EnterMethod("paymentService.CreateCreditAccountPayment", "reference", reference, "account", logger.MaskAccount(req.AccountNumber))

	hashed := creditAccountRequest{ServiceRequestReference: reference, CreditAccountPaymentRequest: req}
	stored, replayed, err := s.idempotency.GetOrExecute(ctx, idempotencyKey, hashed, func(ctx context.Context) (domain.StoredResponse, error) {
		return s.payByAccount(ctx, reference, req)
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.CreateCreditAccountPayment", err, "reference", reference)
		return nil, err
	}

	result := &PaymentResult{Code: stored.Code, Replayed: replayed}
	if err := json.Unmarshal(stored.Body, &result.Payment); err != nil {
		return nil, fmt.Errorf("failed to decode stored payment response: %w", err)
	}

	logger.ExitMethod("paymentService.CreateCreditAccountPayment", "paymentReference", result.Payment.PaymentReference,
		"status", result.Payment.Status, "replayed", replayed)
	return result, nil
}

func (s *paymentService) validateCreditAccountRequest(req CreditAccountPaymentRequest) error {
	if !req.Amount.IsPositive() {
		return domain.NewValidationError("amount", "amount must be greater than zero")
	}
	if !req.Amount.Equal(utils.Money(req.Amount)) {
		return domain.NewValidationError("amount", "amount must have at most two decimal places")
	}
	if !strings.EqualFold(req.Currency, s.opts.Currency) {
		return domain.NewValidationError("currency", "currency must be "+s.opts.Currency)
	}
	if strings.TrimSpace(req.AccountNumber) == "" {
		return domain.NewValidationError("account_number", "account number is required")
	}
	return nil
}

// checkPayable rejects payments that do not settle the ledger's fees exactly, and
// ledgers with nothing left to pay.
func (s *paymentService) checkPayable(ledger *domain.Ledger, amount decimal.Decimal) error {
	summary := utils.ComputeStatus(s.opts.StatusRule, ledger.Fees, ledger.Remissions, utils.PaymentLines(ledger.Payments))
	if !summary.FeeTotal.Equal(amount) {
		return domain.ErrAmountMismatch
	}

	amountDue := decimal.Zero
	for _, f := range ledger.Fees {
		amountDue = amountDue.Add(f.AmountDue)
	}
	if amountDue.IsZero() || (!summary.PendingTotal.IsPositive() && summary.PaymentTotal.IsPositive()) {
		return domain.ErrAlreadyPaid
	}
	return nil
}

func (s *paymentService) payByAccount(ctx context.Context, reference string, req CreditAccountPaymentRequest) (domain.StoredResponse, error) {
	if err := s.validateCreditAccountRequest(req); err != nil {
		return domain.StoredResponse{}, err
	}

	ledger, err := s.ledgerRepo.GetByReference(ctx, reference)
	if err != nil {
		return domain.StoredResponse{}, err
	}
	if err := s.checkPayable(ledger, req.Amount); err != nil {
		logger.Warn("Credit account payment rejected", "reference", reference, "error", err)
		return domain.StoredResponse{}, err
	}

	now := s.now()
	payment := &domain.Payment{
		Reference:         s.refs.Payment(),
		Amount:            utils.Money(req.Amount),
		Currency:          strings.ToUpper(req.Currency),
		Status:            domain.PaymentStatusCreated,
		Method:            domain.PaymentMethodAccount,
		AccountNumber:     req.AccountNumber,
		CustomerReference: req.CustomerReference,
		ServiceName:       ledger.ServiceName,
		CcdCaseNumber:     ledger.CcdCaseNumber,
		DateCreated:       now,
		DateUpdated:       now,
	}

	if err := s.checkAccount(ctx, ledger, payment, now); err != nil {
		return domain.StoredResponse{}, err
	}

	var saved *domain.Ledger
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		locked, err := repos.Ledgers.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		// another payment may have landed while the account was checked
		if err := s.checkPayable(locked, req.Amount); err != nil {
			return err
		}
		if err := repos.Ledgers.AddPayment(ctx, locked.ID, payment); err != nil {
			return err
		}
		locked.Payments = append(locked.Payments, *payment)

		if payment.Status != domain.PaymentStatusFailed {
			if err := s.apportion(ctx, repos, locked, payment); err != nil {
				return err
			}
		}
		if _, err := saveStatus(ctx, repos, locked, s.opts.StatusRule); err != nil {
			return err
		}
		saved = locked
		return nil
	})
	if err != nil {
		return domain.StoredResponse{}, err
	}

	s.publish(ctx, saved, payment)

	code := http.StatusCreated
	if payment.Status == domain.PaymentStatusFailed {
		logger.Info("Credit account payment failed", "reference", reference, "paymentReference", payment.Reference,
			"errorCode", deref(payment.ErrorCode))
		code = http.StatusPaymentRequired
	}
	body, err := json.Marshal(toPaymentResponse(payment, saved.Status))
	if err != nil {
		return domain.StoredResponse{}, fmt.Errorf("failed to encode payment response: %w", err)
	}
	return domain.StoredResponse{Code: code, Body: body, LedgerReference: reference}, nil
}

// checkAccount settles the payment status before anything is persisted. Services on
// the legacy journey are left pending without an account lookup.
func (s *paymentService) checkAccount(ctx context.Context, ledger *domain.Ledger, payment *domain.Payment, now time.Time) error {
	if s.services != nil && s.services.IsLegacyPBA(ledger.ServiceName) {
		logger.Info("Legacy PBA service, setting payment to pending", "service", ledger.ServiceName)
		payment.Status = domain.PaymentStatusPending
		return nil
	}

	details, err := s.accounts.GetAccountDetails(ctx, payment.AccountNumber)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			logger.Error("Account information could not be found", "account", logger.MaskAccount(payment.AccountNumber), "error", err)
		case errors.Is(err, domain.ErrServiceUnavailable):
			logger.Error("Unable to retrieve account information", "account", logger.MaskAccount(payment.AccountNumber), "error", err)
		}
		return err
	}

	decision := utils.DecidePayment(*details, payment.Amount)
	if !utils.ApplyDecision(payment, decision, now) {
		logger.Error("Unhandled account status, payment not recorded",
			"account", logger.MaskAccount(payment.AccountNumber), "accountStatus", decision.AccountStatus)
		return fmt.Errorf("%w: %s", domain.ErrUnhandledAccountStatus, decision.AccountStatus)
	}
	if payment.Status == domain.PaymentStatusSuccess {
		payment.AppendHistory(domain.PaymentStatusSuccess, nil, nil, now)
	}
	logger.Info("Credit account checked", "account", logger.MaskAccount(payment.AccountNumber), "accountStatus", details.Status,
		"outcome", decision.Outcome.String())
	return nil
}

// apportion allocates the payment across the ledger fees when apportionment is on.
func (s *paymentService) apportion(ctx context.Context, repos repository.Repositories, ledger *domain.Ledger, payment *domain.Payment) error {
	if !s.opts.ApportionEnabled || hasApportion(ledger, payment.ID) {
		return nil
	}
	result := utils.Apportion(ledger.Fees, *payment, s.opts.ApportionGoLive)
	if len(result.Apportions) == 0 {
		return nil
	}
	if err := repos.Ledgers.SaveApportions(ctx, result.Fees, result.Apportions); err != nil {
		return err
	}
	ledger.Fees = result.Fees
	ledger.Apportions = append(ledger.Apportions, result.Apportions...)
	return nil
}

func hasApportion(ledger *domain.Ledger, paymentID int64) bool {
	for _, a := range ledger.Apportions {
		if a.PaymentID == paymentID {
			return true
		}
	}
	return false
}

func (s *paymentService) UpdatePaymentStatus(ctx context.Context, paymentReference string, status domain.PaymentStatus, errorCode, message string) (*domain.Payment, error) {
	logger.EnterMethod("paymentService.UpdatePaymentStatus", "paymentReference", paymentReference, "status", status)

	if !status.IsValid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown payment status %q", status))
	}

	ledger, payment, err := s.withPayment(ctx, paymentReference, func(ctx context.Context, repos repository.Repositories, ledger *domain.Ledger, payment *domain.Payment) error {
		now := s.now()
		payment.Status = status
		var code, msg *string
		if errorCode != "" {
			code = &errorCode
		}
		if message != "" {
			msg = &message
		}
		payment.ErrorCode, payment.ErrorMessage = code, msg
		payment.AppendHistory(status, code, msg, now)
		if err := repos.Ledgers.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		if status == domain.PaymentStatusSuccess {
			return s.apportion(ctx, repos, ledger, payment)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.UpdatePaymentStatus", err, "paymentReference", paymentReference)
		return nil, err
	}

	s.publish(ctx, ledger, payment)
	logger.ExitMethod("paymentService.UpdatePaymentStatus", "paymentReference", paymentReference, "ledgerStatus", ledger.Status)
	return payment, nil
}

func (s *paymentService) RaiseDispute(ctx context.Context, paymentReference string, amount decimal.Decimal) (*domain.Dispute, error) {
	logger.EnterMethod("paymentService.RaiseDispute", "paymentReference", paymentReference, "amount", amount)

	if !amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "dispute amount must be greater than zero")
	}

	var dispute domain.Dispute
	_, _, err := s.withPayment(ctx, paymentReference, func(ctx context.Context, repos repository.Repositories, ledger *domain.Ledger, payment *domain.Payment) error {
		if payment.Status != domain.PaymentStatusSuccess {
			return domain.NewValidationError("payment_reference", "only successful payments can be disputed")
		}
		if amount.Add(payment.ActiveDisputeTotal()).GreaterThan(payment.Amount) {
			return domain.NewValidationError("amount", "active disputes would exceed the payment amount")
		}
		now := s.now()
		payment.Disputes = append(payment.Disputes, domain.Dispute{
			Amount:      utils.Money(amount),
			Active:      true,
			DateCreated: now,
			DateUpdated: now,
		})
		if err := repos.Ledgers.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		dispute = payment.Disputes[len(payment.Disputes)-1]
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.RaiseDispute", err, "paymentReference", paymentReference)
		return nil, err
	}

	logger.ExitMethod("paymentService.RaiseDispute", "disputeID", dispute.ID)
	return &dispute, nil
}

func (s *paymentService) ResolveDispute(ctx context.Context, paymentReference string, disputeID int64) error {
	logger.EnterMethod("paymentService.ResolveDispute", "paymentReference", paymentReference, "disputeID", disputeID)

	_, _, err := s.withPayment(ctx, paymentReference, func(ctx context.Context, repos repository.Repositories, ledger *domain.Ledger, payment *domain.Payment) error {
		for i := range payment.Disputes {
			d := &payment.Disputes[i]
			if d.ID != disputeID || !d.Active {
				continue
			}
			d.Active = false
			d.DateUpdated = s.now()
			return repos.Ledgers.UpdatePayment(ctx, payment)
		}
		return domain.NewValidationError("dispute_id", fmt.Sprintf("no active dispute %d on payment %s", disputeID, paymentReference))
	})
	if err != nil {
		logger.ExitMethodWithError("paymentService.ResolveDispute", err, "paymentReference", paymentReference)
		return err
	}

	logger.ExitMethod("paymentService.ResolveDispute", "disputeID", disputeID)
	return nil
}

// withPayment locks the ledger owning the payment, runs fn on it and stores the
// recomputed ledger status, all in one transaction.
func (s *paymentService) withPayment(
	ctx context.Context,
	paymentReference string,
	fn func(ctx context.Context, repos repository.Repositories, ledger *domain.Ledger, payment *domain.Payment) error,
) (*domain.Ledger, *domain.Payment, error) {
	reference, err := s.ledgerRepo.GetReferenceByPaymentReference(ctx, paymentReference)
	if err != nil {
		return nil, nil, err
	}

	var (
		ledger  *domain.Ledger
		payment *domain.Payment
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ledger, err = repos.Ledgers.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		payment = ledger.FindPayment(paymentReference)
		if payment == nil {
			return domain.ErrPaymentNotFound
		}
		if err := fn(ctx, repos, ledger, payment); err != nil {
			return err
		}
		_, err = saveStatus(ctx, repos, ledger, s.opts.StatusRule)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return ledger, payment, nil
}

// publish notifies the owning service. Delivery failures are logged and never
// undo the payment.
func (s *paymentService) publish(ctx context.Context, ledger *domain.Ledger, payment *domain.Payment) {
	if !s.opts.CallbacksEnabled || s.publisher == nil || !ledger.HasCallback() {
		return
	}
	evt := events.NewPaymentStatusEvent(ledger, payment, ledger.Status, s.now())
	if err := s.publisher.PublishPaymentStatus(ctx, evt); err != nil {
		logger.Error("Failed to publish payment status", "paymentReference", payment.Reference, "eventID", evt.ID, "error", err)
		return
	}
	logger.Info("Payment status published", "paymentReference", payment.Reference, "eventID", evt.ID)
}

func toPaymentResponse(p *domain.Payment, ledgerStatus domain.LedgerStatus) PaymentResponse {
	resp := PaymentResponse{
		PaymentReference:     p.Reference,
		ServiceRequestStatus: string(ledgerStatus),
		Status:               p.Status.External(),
		ErrorCode:            deref(p.ErrorCode),
		ErrorMessage:         deref(p.ErrorMessage),
		DateCreated:          p.DateCreated,
		StatusHistories:      make([]StatusHistoryResponse, 0, len(p.StatusHistories)),
	}
	for _, h := range p.StatusHistories {
		resp.StatusHistories = append(resp.StatusHistories, StatusHistoryResponse{
			Status:       h.Status.External(),
			ErrorCode:    deref(h.ErrorCode),
			ErrorMessage: deref(h.Message),
			DateCreated:  h.DateCreated,
		})
	}
	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
