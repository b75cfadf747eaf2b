package domain

import "time"

// IdempotencyRecord is unique on (IdempotencyKey, RequestHash).
type IdempotencyRecord struct {
	ID              int64     `json:"id"`
	IdempotencyKey  string    `json:"idempotency_key"`
	RequestHash     string    `json:"request_hash"`
	RequestBody     string    `json:"request_body"`
	ResponseCode    int       `json:"response_code"`
	ResponseBody    string    `json:"response_body"`
	LedgerReference string    `json:"ledger_reference,omitempty"`
	DateCreated     time.Time `json:"date_created"`
	DateUpdated     time.Time `json:"date_updated"`
}

// StoredResponse is what an idempotent operation hands back to its caller.
type StoredResponse struct {
	Code            int    `json:"code"`
	Body            []byte `json:"body"`
	LedgerReference string `json:"ledger_reference,omitempty"`
}
