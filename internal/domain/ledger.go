package domain

import "time"

type LedgerKind string

const (
	LedgerKindOrder          LedgerKind = "order"
	LedgerKindServiceRequest LedgerKind = "service_request"
	LedgerKindPaymentGroup   LedgerKind = "payment_group"
)

// LedgerStatus is always derived from the fee, remission and payment totals.
type LedgerStatus string

const (
	LedgerStatusPaid          LedgerStatus = "Paid"
	LedgerStatusPartiallyPaid LedgerStatus = "Partially paid"
	LedgerStatusNotPaid       LedgerStatus = "Not paid"
	LedgerStatusDisputed      LedgerStatus = "Disputed"
)

type Ledger struct {
	ID             int64             `json:"id"`
	Reference      string            `json:"reference"`
	Kind           LedgerKind        `json:"kind"`
	CcdCaseNumber  string            `json:"ccd_case_number"`
	CaseReference  string            `json:"case_reference"`
	OrganisationID string            `json:"organisation_id"`
	ServiceName    string            `json:"service_name"`
	CallbackURL    string            `json:"callback_url"`
	Status         LedgerStatus      `json:"status"`
	Fees           []Fee             `json:"fees"`
	Remissions     []Remission       `json:"remissions"`
	Payments       []Payment         `json:"payments"`
	Apportions     []FeePayApportion `json:"apportions,omitempty"`
	DateCreated    time.Time         `json:"date_created"`
	DateUpdated    time.Time         `json:"date_updated"`
}

// FindPayment returns the ledger payment with the given reference, or nil.
func (l *Ledger) FindPayment(reference string) *Payment {
	for i := range l.Payments {
		if l.Payments[i].Reference == reference {
			return &l.Payments[i]
		}
	}
	return nil
}

// HasCallback reports whether status changes should be pushed to the owning service.
func (l *Ledger) HasCallback() bool {
	return l.CallbackURL != ""
}
