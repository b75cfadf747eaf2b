package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"payhub-backend/internal/domain"
)

const (
	ErrorCodeInsufficientFunds = "CA-E0001"
	ErrorCodeAccountOnHold     = "CA-E0003"
	ErrorCodeAccountDeleted    = "CA-E0004"
)

type GateOutcome int

const (
	GateSuccess GateOutcome = iota
	GateFailed
	GateUnhandled
)

func (o GateOutcome) String() string {
	switch o {
	case GateSuccess:
		return "success"
	case GateFailed:
		return "failed"
	default:
		return "unhandled"
	}
}

// GateDecision is the tagged result of DecidePayment. ErrorCode and Message are
// set only for GateFailed; AccountStatus is echoed for GateUnhandled.
type GateDecision struct {
	Outcome       GateOutcome
	ErrorCode     string
	Message       string
	AccountStatus domain.AccountStatus
}

// Status is the payment status the decision maps to. Unhandled decisions have none.
func (d GateDecision) Status() (domain.PaymentStatus, bool) {
	switch d.Outcome {
	case GateSuccess:
		return domain.PaymentStatusSuccess, true
	case GateFailed:
		return domain.PaymentStatusFailed, true
	default:
		return "", false
	}
}

// DecidePayment decides a credit account payment from the account state.
func DecidePayment(account domain.AccountDetails, amount decimal.Decimal) GateDecision {
	switch account.Status {
	case domain.AccountStatusActive:
		if account.AvailableBalance.GreaterThanOrEqual(amount) {
			return GateDecision{Outcome: GateSuccess, AccountStatus: account.Status}
		}
		return GateDecision{
			Outcome:       GateFailed,
			ErrorCode:     ErrorCodeInsufficientFunds,
			Message:       fmt.Sprintf("Payment request failed. PBA account %s have insufficient funds available", account.AccountName),
			AccountStatus: account.Status,
		}
	case domain.AccountStatusOnHold:
		return GateDecision{
			Outcome:       GateFailed,
			ErrorCode:     ErrorCodeAccountOnHold,
			Message:       "Your account is on hold",
			AccountStatus: account.Status,
		}
	case domain.AccountStatusDeleted:
		return GateDecision{
			Outcome:       GateFailed,
			ErrorCode:     ErrorCodeAccountDeleted,
			Message:       "Your account is deleted",
			AccountStatus: account.Status,
		}
	default:
		return GateDecision{Outcome: GateUnhandled, AccountStatus: account.Status}
	}
}

// ApplyDecision writes a gate decision onto a payment. Failures set the error
// fields and append exactly one history entry; success only sets the status.
// It returns false, leaving the payment untouched, for unhandled decisions.
func ApplyDecision(p *domain.Payment, d GateDecision, now time.Time) bool {
	status, ok := d.Status()
	if !ok {
		return false
	}
	p.Status = status
	if d.Outcome == GateFailed {
		code, msg := d.ErrorCode, d.Message
		p.ErrorCode = &code
		p.ErrorMessage = &msg
		p.AppendHistory(status, &code, &msg, now)
	}
	p.DateUpdated = now
	return true
}
