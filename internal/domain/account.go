package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "ACTIVE"
	AccountStatusOnHold  AccountStatus = "ON_HOLD"
	AccountStatusDeleted AccountStatus = "DELETED"
)

// AccountDetails is supplied by the external credit account service and never mutated here.
type AccountDetails struct {
	AccountNumber    string          `json:"account_number"`
	AccountName      string          `json:"account_name"`
	Status           AccountStatus   `json:"status"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	EffectiveDate    *time.Time      `json:"effective_date,omitempty"`
}
