package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"payhub-backend/internal/domain"
	"payhub-backend/internal/logger"
	"payhub-backend/internal/repository"
	"payhub-backend/internal/utils"
)

type ledgerService struct {
	ledgerRepo repository.LedgerRepository
	tx         repository.Transactor
	refs       *utils.ReferenceGenerator
	rule       utils.StatusRule
	now        func() time.Time
}

func NewLedgerService(
	ledgerRepo repository.LedgerRepository,
	tx repository.Transactor,
	refs *utils.ReferenceGenerator,
	rule utils.StatusRule,
) LedgerService {
	return &ledgerService{
		ledgerRepo: ledgerRepo,
		tx:         tx,
		refs:       refs,
		rule:       rule,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *ledgerService) CreateLedger(ctx context.Context, req CreateLedgerRequest) (*domain.Ledger, error) {
	logger.EnterMethod("ledgerService.CreateLedger", "ccdCaseNumber", req.CcdCaseNumber, "service", req.ServiceName)

	if strings.TrimSpace(req.CcdCaseNumber) == "" {
		return nil, domain.NewValidationError("ccd_case_number", "ccd case number is required")
	}
	if strings.TrimSpace(req.ServiceName) == "" {
		return nil, domain.NewValidationError("service_name", "service name is required")
	}
	if len(req.Fees) == 0 {
		return nil, domain.NewValidationError("fees", "at least one fee is required")
	}

	now := s.now()
	ledger := &domain.Ledger{
		Kind:           req.Kind,
		CcdCaseNumber:  req.CcdCaseNumber,
		CaseReference:  req.CaseReference,
		OrganisationID: req.OrganisationID,
		ServiceName:    req.ServiceName,
		CallbackURL:    req.CallbackURL,
	}
	if ledger.Kind == "" {
		ledger.Kind = domain.LedgerKindServiceRequest
	}
	for _, fr := range req.Fees {
		fee := domain.Fee{
			Code:             fr.Code,
			Version:          fr.Version,
			Volume:           fr.Volume,
			FeeAmount:        fr.FeeAmount,
			CalculatedAmount: fr.CalculatedAmount,
			CcdCaseNumber:    req.CcdCaseNumber,
			DateCreated:      now,
		}
		if err := utils.ValidateFee(fee); err != nil {
			logger.ExitMethodWithError("ledgerService.CreateLedger", err)
			return nil, err
		}
		utils.NormalizeFee(&fee)
		ledger.Fees = append(ledger.Fees, fee)
	}
	ledger.Status = utils.ComputeStatus(s.rule, ledger.Fees, nil, nil).Status

	// a clashing reference aborts the transaction, so each attempt gets its own
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		ledger.Reference = s.refs.Ledger()
		err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			return repos.Ledgers.Create(ctx, ledger)
		})
		if !errors.Is(err, domain.ErrDuplicateKey) {
			break
		}
		logger.Warn("Ledger reference collision, retrying", "reference", ledger.Reference)
	}
	if err != nil {
		logger.ExitMethodWithError("ledgerService.CreateLedger", err)
		return nil, err
	}

	logger.ExitMethod("ledgerService.CreateLedger", "reference", ledger.Reference, "status", ledger.Status)
	return ledger, nil
}

func (s *ledgerService) GetLedger(ctx context.Context, reference string) (*domain.Ledger, error) {
	return s.ledgerRepo.GetByReference(ctx, reference)
}

func (s *ledgerService) GetStatus(ctx context.Context, reference string) (*utils.BalanceSummary, error) {
	ledger, err := s.ledgerRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	summary := utils.ComputeStatus(s.rule, ledger.Fees, ledger.Remissions, utils.PaymentLines(ledger.Payments))
	return &summary, nil
}

func (s *ledgerService) ListLedgersByCase(ctx context.Context, ccdCaseNumber string) ([]domain.Ledger, error) {
	if strings.TrimSpace(ccdCaseNumber) == "" {
		return nil, domain.NewValidationError("ccd_case_number", "ccd case number is required")
	}
	return s.ledgerRepo.ListByCcdCaseNumber(ctx, ccdCaseNumber)
}

func (s *ledgerService) AddRemission(ctx context.Context, reference string, req RemissionRequest) (*domain.Remission, error) {
	logger.EnterMethod("ledgerService.AddRemission", "reference", reference, "hwfReference", req.HwfReference)

	if strings.TrimSpace(req.HwfReference) == "" {
		return nil, domain.NewValidationError("hwf_reference", "help with fees reference is required")
	}
	if !req.HwfAmount.IsPositive() {
		return nil, domain.NewValidationError("hwf_amount", "remission amount must be greater than zero")
	}

	var remission *domain.Remission
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ledger, err := repos.Ledgers.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			return err
		}

		before := utils.ComputeStatus(s.rule, ledger.Fees, ledger.Remissions, nil)
		if req.HwfAmount.GreaterThan(before.PendingTotal) {
			return domain.NewValidationError("hwf_amount", "remission amount exceeds the outstanding fee total")
		}

		remission = &domain.Remission{
			RemissionReference: s.refs.Remission(),
			HwfReference:       req.HwfReference,
			HwfAmount:          utils.NullMoney(req.HwfAmount),
			BeneficiaryName:    req.BeneficiaryName,
			CcdCaseNumber:      ledger.CcdCaseNumber,
			DateCreated:        s.now(),
		}
		if req.FeeCode != "" {
			fee := findFeeByCode(ledger.Fees, req.FeeCode)
			if fee == nil {
				return domain.NewValidationError("fee_code", "fee "+req.FeeCode+" is not on this ledger")
			}
			remission.FeeID = &fee.ID
		}

		if err := repos.Ledgers.AddRemission(ctx, ledger.ID, remission); err != nil {
			return err
		}
		ledger.Remissions = append(ledger.Remissions, *remission)
		_, err = saveStatus(ctx, repos, ledger, s.rule)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.AddRemission", err, "reference", reference)
		return nil, err
	}

	logger.ExitMethod("ledgerService.AddRemission", "remissionReference", remission.RemissionReference)
	return remission, nil
}

func (s *ledgerService) RecalculateStatus(ctx context.Context, reference string) (domain.LedgerStatus, bool, error) {
	var (
		status  domain.LedgerStatus
		drifted bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ledger, err := repos.Ledgers.GetByReferenceForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		previous := ledger.Status
		summary := utils.ComputeStatus(s.rule, ledger.Fees, ledger.Remissions, utils.PaymentLines(ledger.Payments))
		status = summary.Status
		if summary.Status == previous {
			return nil
		}
		drifted = true
		logger.Warn("Ledger status drifted", "reference", reference, "stored", previous, "computed", summary.Status)
		return repos.Ledgers.UpdateStatus(ctx, ledger.ID, summary.Status)
	})
	if err != nil {
		return "", false, err
	}
	return status, drifted, nil
}

// saveStatus recomputes the ledger status from its current contents and stores it.
// The update is unconditional so date_updated tracks every change to the ledger.
func saveStatus(ctx context.Context, repos repository.Repositories, ledger *domain.Ledger, rule utils.StatusRule) (utils.BalanceSummary, error) {
	summary := utils.ComputeStatus(rule, ledger.Fees, ledger.Remissions, utils.PaymentLines(ledger.Payments))
	if err := repos.Ledgers.UpdateStatus(ctx, ledger.ID, summary.Status); err != nil {
		return summary, err
	}
	ledger.Status = summary.Status
	return summary, nil
}

func findFeeByCode(fees []domain.Fee, code string) *domain.Fee {
	for i := range fees {
		if fees[i].Code == code {
			return &fees[i]
		}
	}
	return nil
}
