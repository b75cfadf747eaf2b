package account

import (
	"context"

	"payhub-backend/internal/domain"
)

// AccountClient looks up credit account details from the external account service.
// Implementations return domain.ErrAccountNotFound for unknown accounts and wrap
// domain.ErrServiceUnavailable for timeouts and transport failures.
type AccountClient interface {
	GetAccountDetails(ctx context.Context, accountNumber string) (*domain.AccountDetails, error)
}
