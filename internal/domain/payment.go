package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusError     PaymentStatus = "error"
	PaymentStatusDecline   PaymentStatus = "decline"
)

// External returns the status string reported to callers and used by the balance calculator.
func (s PaymentStatus) External() string {
	switch s {
	case PaymentStatusCreated:
		return "Initiated"
	case PaymentStatusSuccess:
		return "Success"
	case PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusError:
		return "Failed"
	case PaymentStatusPending:
		return "Pending"
	case PaymentStatusDecline:
		return "Declined"
	default:
		return string(s)
	}
}

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusCreated, PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed,
		PaymentStatusCancelled, PaymentStatusError, PaymentStatusDecline:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodAccount   PaymentMethod = "payment by account"
	PaymentMethodCard      PaymentMethod = "card"
	PaymentMethodTelephony PaymentMethod = "telephony"
	PaymentMethodBulkScan  PaymentMethod = "bulk scan"
)

const CurrencyGBP = "GBP"

type Payment struct {
	ID                int64           `json:"id"`
	LedgerID          int64           `json:"ledger_id"`
	Reference         string          `json:"reference"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            PaymentStatus   `json:"status"`
	Method            PaymentMethod   `json:"method"`
	AccountNumber     string          `json:"account_number,omitempty"`
	CustomerReference string          `json:"customer_reference,omitempty"`
	ServiceName       string          `json:"service_name"`
	CcdCaseNumber     string          `json:"ccd_case_number"`
	ErrorCode         *string         `json:"error_code,omitempty"`
	ErrorMessage      *string         `json:"error_message,omitempty"`
	StatusHistories   []StatusHistory `json:"status_histories"`
	Disputes          []Dispute       `json:"disputes,omitempty"`
	DateCreated       time.Time       `json:"date_created"`
	DateUpdated       time.Time       `json:"date_updated"`
}

// StatusHistory is append-only. Entries with a zero ID have not been persisted yet.
type StatusHistory struct {
	ID          int64         `json:"id"`
	PaymentID   int64         `json:"payment_id"`
	Status      PaymentStatus `json:"status"`
	ErrorCode   *string       `json:"error_code,omitempty"`
	Message     *string       `json:"message,omitempty"`
	DateCreated time.Time     `json:"date_created"`
}

type Dispute struct {
	ID          int64           `json:"id"`
	PaymentID   int64           `json:"payment_id"`
	Amount      decimal.Decimal `json:"amount"`
	Active      bool            `json:"active"`
	DateCreated time.Time       `json:"date_created"`
	DateUpdated time.Time       `json:"date_updated"`
}

// IsDisputed reports whether the payment has at least one active dispute.
// ActiveDisputeTotal sums the amounts of the payment's active disputes.
func (p *Payment) ActiveDisputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, d := range p.Disputes {
		if d.Active {
			total = total.Add(d.Amount)
		}
	}
	return total
}

func (p *Payment) IsDisputed() bool {
	for _, d := range p.Disputes {
		if d.Active {
			return true
		}
	}
	return false
}

// AppendHistory records a status transition on the payment's audit trail.
func (p *Payment) AppendHistory(status PaymentStatus, errorCode, message *string, at time.Time) {
	p.StatusHistories = append(p.StatusHistories, StatusHistory{
		PaymentID:   p.ID,
		Status:      status,
		ErrorCode:   errorCode,
		Message:     message,
		DateCreated: at,
	})
}
