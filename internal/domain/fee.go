package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Fee struct {
	ID                 int64               `json:"id"`
	LedgerID           int64               `json:"ledger_id"`
	Code               string              `json:"code"`
	Version            string              `json:"version"`
	Volume             int32               `json:"volume"`
	FeeAmount          decimal.NullDecimal `json:"fee_amount"` // unit price
	CalculatedAmount   decimal.NullDecimal `json:"calculated_amount"`
	NetAmount          decimal.NullDecimal `json:"net_amount"`
	AmountDue          decimal.Decimal     `json:"amount_due"`
	AllocatedAmount    decimal.Decimal     `json:"allocated_amount"`
	IsFullyApportioned bool                `json:"is_fully_apportioned"`
	CcdCaseNumber      string              `json:"ccd_case_number"`
	DateCreated        time.Time           `json:"date_created"`
}

type Remission struct {
	ID                 int64               `json:"id"`
	LedgerID           int64               `json:"ledger_id"`
	FeeID              *int64              `json:"fee_id,omitempty"`
	RemissionReference string              `json:"remission_reference"`
	HwfReference       string              `json:"hwf_reference"`
	HwfAmount          decimal.NullDecimal `json:"hwf_amount"`
	BeneficiaryName    string              `json:"beneficiary_name"`
	CcdCaseNumber      string              `json:"ccd_case_number"`
	DateCreated        time.Time           `json:"date_created"`
}

type ApportionType string

const (
	ApportionTypeAuto ApportionType = "AUTO"
)

// FeePayApportion records how much of one payment was allocated to one fee.
type FeePayApportion struct {
	ID               int64           `json:"id"`
	FeeID            int64           `json:"fee_id"`
	PaymentID        int64           `json:"payment_id"`
	ApportionAmount  decimal.Decimal `json:"apportion_amount"`
	AllocatedAmount  decimal.Decimal `json:"allocated_amount"`
	CalculatedAmount decimal.Decimal `json:"calculated_amount"`
	FeeAmount        decimal.Decimal `json:"fee_amount"`
	PaymentAmount    decimal.Decimal `json:"payment_amount"`
	SurplusAmount    decimal.Decimal `json:"surplus_amount"`
	ShortfallAmount  decimal.Decimal `json:"shortfall_amount"`
	CcdCaseNumber    string          `json:"ccd_case_number"`
	ApportionType    ApportionType   `json:"apportion_type"`
	DateCreated      time.Time       `json:"date_created"`
}
