package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"payhub-backend/internal/domain"
)

// MoneyScale is the number of fractional digits carried by currency amounts.
const MoneyScale = 2

// ParseAmount converts a decimal string into an amount, rejecting anything that
// is not a plain base-10 number with at most two fractional digits.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, domain.NewValidationError("amount", "amount is required")
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, domain.NewValidationError("amount", fmt.Sprintf("invalid amount %q", s))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.NewValidationError("amount", fmt.Sprintf("invalid amount %q", s))
	}
	if d.Exponent() < -MoneyScale && !d.Equal(d.Round(MoneyScale)) {
		return decimal.Zero, domain.NewValidationError("amount", fmt.Sprintf("amount %q has more than %d decimal places", s, MoneyScale))
	}
	return d, nil
}

// Money rounds an amount to currency scale.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// NullMoney wraps a present amount, rounded to currency scale.
func NullMoney(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(Money(d))
}

// FormatMoney renders an amount with exactly two fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

// SumNullable adds the present values and skips missing ones.
func SumNullable(values ...decimal.NullDecimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		if v.Valid {
			total = total.Add(v.Decimal)
		}
	}
	return total
}

// NormalizeFee applies volume defaulting and fixes the net amount.
// A missing calculated amount is derived from the unit fee amount times volume.
func NormalizeFee(fee *domain.Fee) {
	if fee.Volume <= 0 {
		fee.Volume = 1
	}
	if !fee.CalculatedAmount.Valid && fee.FeeAmount.Valid {
		fee.CalculatedAmount = decimal.NewNullDecimal(fee.FeeAmount.Decimal.Mul(decimal.NewFromInt32(fee.Volume)))
	}
	fee.NetAmount = fee.CalculatedAmount
	if fee.NetAmount.Valid && fee.AmountDue.IsZero() && fee.AllocatedAmount.IsZero() {
		fee.AmountDue = fee.NetAmount.Decimal
	}
}

// ValidateFee checks a fee line item before it is attached to a ledger.
func ValidateFee(fee domain.Fee) error {
	if strings.TrimSpace(fee.Code) == "" {
		return domain.NewValidationError("fees.code", "fee code is required")
	}
	if strings.TrimSpace(fee.Version) == "" {
		return domain.NewValidationError("fees.version", "fee version is required")
	}
	if fee.Volume < 0 {
		return domain.NewValidationError("fees.volume", "volume must be positive")
	}
	if fee.CalculatedAmount.Valid && fee.CalculatedAmount.Decimal.IsNegative() {
		return domain.NewValidationError("fees.calculated_amount", "calculated amount must not be negative")
	}
	if fee.FeeAmount.Valid && fee.FeeAmount.Decimal.IsNegative() {
		return domain.NewValidationError("fees.fee_amount", "fee amount must not be negative")
	}
	if !fee.CalculatedAmount.Valid && !fee.FeeAmount.Valid {
		return domain.NewValidationError("fees.calculated_amount", "calculated amount is required")
	}
	return nil
}
