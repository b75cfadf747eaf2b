package utils

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"payhub-backend/internal/domain"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"10", "10.00", false},
		{"10.00", "10.00", false},
		{" 99.5 ", "99.50", false},
		{"10.500", "10.50", false},
		{"10.005", "", true},
		{"1e3", "", true},
		{"ten", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrValidation))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, FormatMoney(got))
		})
	}

	t.Run("Numeric equality", func(t *testing.T) {
		a, _ := ParseAmount("10.00")
		b, _ := ParseAmount("10")
		assert.True(t, a.Equal(b))
	})
}

func TestSumNullable(t *testing.T) {
	sum := SumNullable(amt("1.10"), decimal.NullDecimal{}, amt("2.20"))
	assert.Equal(t, "3.30", FormatMoney(sum))
	assert.True(t, SumNullable().IsZero())
}

func TestNormalizeFee(t *testing.T) {
	t.Run("Volume defaults to one", func(t *testing.T) {
		f := domain.Fee{Code: "FEE0226", Version: "3", CalculatedAmount: amt("215.00")}
		NormalizeFee(&f)
		assert.Equal(t, int32(1), f.Volume)
		assert.True(t, f.NetAmount.Valid)
		assert.Equal(t, "215.00", FormatMoney(f.NetAmount.Decimal))
		assert.Equal(t, "215.00", FormatMoney(f.AmountDue))
	})

	t.Run("Calculated amount derived from unit price", func(t *testing.T) {
		f := domain.Fee{Code: "FEE0226", Version: "3", Volume: 3, FeeAmount: amt("10.50")}
		NormalizeFee(&f)
		assert.Equal(t, "31.50", FormatMoney(f.CalculatedAmount.Decimal))
		assert.Equal(t, "31.50", FormatMoney(f.NetAmount.Decimal))
	})

	t.Run("Explicit calculated amount wins", func(t *testing.T) {
		f := domain.Fee{Code: "FEE0226", Version: "3", Volume: 2, FeeAmount: amt("10.00"), CalculatedAmount: amt("15.00")}
		NormalizeFee(&f)
		assert.Equal(t, "15.00", FormatMoney(f.NetAmount.Decimal))
	})
}

func TestValidateFee(t *testing.T) {
	assert.NoError(t, ValidateFee(fee("10.00")))
	assert.ErrorIs(t, ValidateFee(domain.Fee{Version: "1", CalculatedAmount: amt("1")}), domain.ErrValidation)
	assert.ErrorIs(t, ValidateFee(domain.Fee{Code: "X", CalculatedAmount: amt("1")}), domain.ErrValidation)
	assert.ErrorIs(t, ValidateFee(domain.Fee{Code: "X", Version: "1", CalculatedAmount: amt("-1")}), domain.ErrValidation)
	assert.ErrorIs(t, ValidateFee(domain.Fee{Code: "X", Version: "1"}), domain.ErrValidation)
}
