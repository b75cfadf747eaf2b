package account

import (
	"context"
	"fmt"

	"payhub-backend/internal/domain"
	"payhub-backend/internal/logger"
)

// MockAccountService serves account details from configuration
// This is for demo/testing without the external account service
type MockAccountService struct {
	accounts map[string]Fixture
}

// NewMockAccountService creates a new mock account service
func NewMockAccountService(fixtures []Fixture) *MockAccountService {
	accounts := make(map[string]Fixture, len(fixtures))
	for _, f := range fixtures {
		accounts[f.Details.AccountNumber] = f
	}
	return &MockAccountService{accounts: accounts}
}

// GetAccountDetails returns a copy of the configured account
func (m *MockAccountService) GetAccountDetails(ctx context.Context, accountNumber string) (*domain.AccountDetails, error) {
	logger.ExternalServiceCall("accounts", "GetAccountDetails", "accountNumber", accountNumber)

	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("account lookup for %s: %w: %v", accountNumber, domain.ErrServiceUnavailable, err)
		logger.ExternalServiceResult("accounts", "GetAccountDetails", err)
		return nil, err
	}

	f, ok := m.accounts[accountNumber]
	if !ok {
		err := fmt.Errorf("account %s: %w", accountNumber, domain.ErrAccountNotFound)
		logger.ExternalServiceResult("accounts", "GetAccountDetails", err)
		return nil, err
	}
	if f.Unavailable {
		err := fmt.Errorf("account lookup for %s: %w", accountNumber, domain.ErrServiceUnavailable)
		logger.ExternalServiceResult("accounts", "GetAccountDetails", err)
		return nil, err
	}

	logger.ExternalServiceResult("accounts", "GetAccountDetails", nil, "status", f.Details.Status)
	details := f.Details
	return &details, nil
}
