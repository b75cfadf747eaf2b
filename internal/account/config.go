package account

import (
	"fmt"

	"payhub-backend/internal/domain"
)

// Config holds account provider configuration
type Config struct {
	Type     string // "mock"
	Accounts []Fixture
}

// Fixture is one account served by the mock provider.
type Fixture struct {
	Details     domain.AccountDetails
	Unavailable bool // simulate an account service outage for this account
}

// New builds the account client selected by cfg.Type.
func New(cfg Config) (AccountClient, error) {
	switch cfg.Type {
	case "", "mock":
		return NewMockAccountService(cfg.Accounts), nil
	default:
		return nil, fmt.Errorf("unsupported account provider type: %s", cfg.Type)
	}
}
