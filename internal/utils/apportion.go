package utils

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"payhub-backend/internal/domain"
)

// ApportionResult holds the allocation of one payment across a ledger's fees.
type ApportionResult struct {
	Apportions []domain.FeePayApportion
	Fees       []domain.Fee
	Surplus    decimal.Decimal
	Shortfall  decimal.Decimal
}

// Apportion spreads a payment over the fees in creation order. Each fee takes at
// most what is still outstanding on it; anything left over is credited to the
// last apportioned fee. Fees and payments created before goLive are ignored.
// The input slice is not modified.
func Apportion(fees []domain.Fee, payment domain.Payment, goLive time.Time) ApportionResult {
	result := ApportionResult{
		Fees:      append([]domain.Fee(nil), fees...),
		Surplus:   decimal.Zero,
		Shortfall: decimal.Zero,
	}
	if payment.DateCreated.Before(goLive) {
		return result
	}

	order := make([]int, 0, len(result.Fees))
	for i, f := range result.Fees {
		if f.NetAmount.Valid && !f.DateCreated.Before(goLive) {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return result.Fees[order[a]].DateCreated.Before(result.Fees[order[b]].DateCreated)
	})

	remaining := payment.Amount
	for _, idx := range order {
		if !remaining.IsPositive() {
			break
		}
		fee := &result.Fees[idx]
		net := fee.NetAmount.Decimal
		outstanding := net.Sub(fee.AllocatedAmount)
		if !outstanding.IsPositive() {
			continue
		}

		amount := decimal.Min(remaining, outstanding)
		fee.AllocatedAmount = fee.AllocatedAmount.Add(amount)
		fee.AmountDue = amountDue(*fee)
		if fee.AllocatedAmount.Equal(net) {
			fee.IsFullyApportioned = true
		}
		remaining = remaining.Sub(amount)

		result.Apportions = append(result.Apportions, domain.FeePayApportion{
			FeeID:            fee.ID,
			PaymentID:        payment.ID,
			ApportionAmount:  amount,
			AllocatedAmount:  fee.AllocatedAmount,
			CalculatedAmount: fee.CalculatedAmount.Decimal,
			FeeAmount:        net,
			PaymentAmount:    payment.Amount,
			SurplusAmount:    decimal.Zero,
			ShortfallAmount:  decimal.Zero,
			CcdCaseNumber:    payment.CcdCaseNumber,
			ApportionType:    domain.ApportionTypeAuto,
			DateCreated:      payment.DateCreated,
		})
	}

	if remaining.IsPositive() {
		result.Surplus = remaining
		creditSurplus(&result, order, remaining)
	} else if n := len(result.Apportions); n > 0 {
		last := &result.Apportions[n-1]
		if last.AllocatedAmount.LessThan(last.FeeAmount) {
			last.ShortfallAmount = last.FeeAmount.Sub(last.AllocatedAmount)
			result.Shortfall = last.ShortfallAmount
		}
	}
	return result
}

func creditSurplus(result *ApportionResult, order []int, surplus decimal.Decimal) {
	if n := len(result.Apportions); n > 0 {
		last := &result.Apportions[n-1]
		last.SurplusAmount = surplus
		last.AllocatedAmount = last.AllocatedAmount.Add(surplus)
		for i := range result.Fees {
			if result.Fees[i].ID == last.FeeID {
				result.Fees[i].AllocatedAmount = last.AllocatedAmount
				result.Fees[i].AmountDue = amountDue(result.Fees[i])
			}
		}
		return
	}
	if len(order) > 0 {
		fee := &result.Fees[order[len(order)-1]]
		fee.AllocatedAmount = fee.AllocatedAmount.Add(surplus)
		fee.AmountDue = amountDue(*fee)
	}
}

func amountDue(fee domain.Fee) decimal.Decimal {
	due := fee.NetAmount.Decimal.Sub(fee.AllocatedAmount)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}
