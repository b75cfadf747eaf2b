package utils

import (
	"fmt"

	"github.com/shopspring/decimal"

	"payhub-backend/internal/domain"
)

// StatusRule selects how a ledger status is derived from its totals.
type StatusRule string

const (
	// StatusRuleLiteral keeps the historical decision table, whose "paid" branch
	// (pending <= 0 and pending > 0) can never match. Settled ledgers report "Not paid".
	StatusRuleLiteral StatusRule = "literal"
	// StatusRuleSettled reports "Paid" once nothing is pending and a payment succeeded.
	StatusRuleSettled StatusRule = "settled"
)

func ParseStatusRule(s string) (StatusRule, error) {
	switch StatusRule(s) {
	case "", StatusRuleLiteral:
		return StatusRuleLiteral, nil
	case StatusRuleSettled:
		return StatusRuleSettled, nil
	default:
		return "", fmt.Errorf("unknown status rule %q", s)
	}
}

// SuccessStatus is the only payment status counted towards the payment total.
const SuccessStatus = "Success"

// PaymentLine is the calculator's view of a payment. Amount is gross; active
// disputes are deducted while totalling.
type PaymentLine struct {
	Amount   decimal.NullDecimal
	Status   string
	Disputes []domain.Dispute
}

// disputed reports an active dispute on a successful payment. Disputes left on a
// payment that has since failed do not affect the ledger.
func (p PaymentLine) disputed() bool {
	if p.Status != SuccessStatus {
		return false
	}
	for _, d := range p.Disputes {
		if d.Active {
			return true
		}
	}
	return false
}

// BalanceSummary is the result of ComputeStatus.
type BalanceSummary struct {
	FeeTotal       decimal.Decimal     `json:"fee_total"`
	RemissionTotal decimal.Decimal     `json:"remission_total"`
	PaymentTotal   decimal.Decimal     `json:"payment_total"`
	PendingTotal   decimal.Decimal     `json:"pending_total"`
	Status         domain.LedgerStatus `json:"status"`
}

// PaymentLines maps stored payments to calculator input using their external status.
func PaymentLines(payments []domain.Payment) []PaymentLine {
	lines := make([]PaymentLine, 0, len(payments))
	for _, p := range payments {
		lines = append(lines, PaymentLine{
			Amount:   decimal.NewNullDecimal(p.Amount),
			Status:   p.Status.External(),
			Disputes: p.Disputes,
		})
	}
	return lines
}

// ComputeStatus totals a ledger and derives its status. It has no side effects.
func ComputeStatus(rule StatusRule, fees []domain.Fee, remissions []domain.Remission, payments []PaymentLine) BalanceSummary {
	feeTotal := decimal.Zero
	for _, f := range fees {
		if f.CalculatedAmount.Valid {
			feeTotal = feeTotal.Add(f.CalculatedAmount.Decimal)
		}
	}

	remissionTotal := decimal.Zero
	for _, r := range remissions {
		if r.HwfAmount.Valid {
			remissionTotal = remissionTotal.Add(r.HwfAmount.Decimal)
		}
	}

	paymentTotal := decimal.Zero
	anyDisputed := false
	for _, p := range payments {
		if p.disputed() {
			anyDisputed = true
		}
		if p.Status != SuccessStatus || !p.Amount.Valid {
			continue
		}
		amount := p.Amount.Decimal
		for _, d := range p.Disputes {
			if d.Active {
				amount = amount.Sub(d.Amount)
			}
		}
		paymentTotal = paymentTotal.Add(amount)
	}

	pendingTotal := feeTotal.Sub(remissionTotal).Sub(paymentTotal)

	return BalanceSummary{
		FeeTotal:       feeTotal,
		RemissionTotal: remissionTotal,
		PaymentTotal:   paymentTotal,
		PendingTotal:   pendingTotal,
		Status:         decideStatus(rule, feeTotal, remissionTotal, paymentTotal, pendingTotal, anyDisputed),
	}
}

func decideStatus(rule StatusRule, feeTotal, remissionTotal, paymentTotal, pendingTotal decimal.Decimal, disputed bool) domain.LedgerStatus {
	var status domain.LedgerStatus
	switch {
	case settled(rule, paymentTotal, pendingTotal):
		status = domain.LedgerStatusPaid
	case feeTotal.IsPositive() && (paymentTotal.IsPositive() || remissionTotal.IsPositive()) && pendingTotal.IsPositive():
		status = domain.LedgerStatusPartiallyPaid
	default:
		status = domain.LedgerStatusNotPaid
	}
	if disputed {
		return domain.LedgerStatusDisputed
	}
	return status
}

func settled(rule StatusRule, paymentTotal, pendingTotal decimal.Decimal) bool {
	if rule == StatusRuleSettled {
		return !pendingTotal.IsPositive() && paymentTotal.IsPositive()
	}
	// historical condition, always false
	return !pendingTotal.IsPositive() && pendingTotal.IsPositive()
}
