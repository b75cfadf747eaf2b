package account

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payhub-backend/internal/domain"
)

func TestMockAccountService(t *testing.T) {
	svc := NewMockAccountService([]Fixture{
		{Details: domain.AccountDetails{
			AccountNumber:    "PBA0000001",
			AccountName:      "Smith Solicitors",
			Status:           domain.AccountStatusActive,
			AvailableBalance: decimal.RequireFromString("1000.00"),
		}},
		{Details: domain.AccountDetails{AccountNumber: "PBA0000002"}, Unavailable: true},
	})
	ctx := context.Background()

	t.Run("Known account", func(t *testing.T) {
		acc, err := svc.GetAccountDetails(ctx, "PBA0000001")
		require.NoError(t, err)
		assert.Equal(t, domain.AccountStatusActive, acc.Status)
		assert.Equal(t, "Smith Solicitors", acc.AccountName)
	})

	t.Run("Unknown account", func(t *testing.T) {
		_, err := svc.GetAccountDetails(ctx, "PBA9999999")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		assert.False(t, domain.IsRetryable(err))
	})

	t.Run("Service outage", func(t *testing.T) {
		_, err := svc.GetAccountDetails(ctx, "PBA0000002")
		assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
		assert.True(t, domain.IsRetryable(err))
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.GetAccountDetails(cancelled, "PBA0000001")
		assert.True(t, domain.IsRetryable(err))
	})
}

func TestNew(t *testing.T) {
	c, err := New(Config{Type: "mock"})
	assert.NoError(t, err)
	assert.NotNil(t, c)

	_, err = New(Config{Type: "liberata"})
	assert.Error(t, err)
}
