package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	AccountCreated  EventType = "account.created"
	AccountUpdated  EventType = "account.updated"
	AccountDeleted  EventType = "account.deleted"
	StatementCredit EventType = "statement.credit"
	StatementDebit  EventType = "statement.debit"
)

// LedgerEvent describes one committed mutation of the customer store.
type LedgerEvent struct {
	ID         string     `json:"id"`
	Type       EventType  `json:"type"`
	CustomerID string     `json:"customer_id"`
	CPF        string     `json:"cpf"`
	Name       string     `json:"name"`
	Operation  *Operation `json:"operation,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// IsStatementEvent reports whether the event carries a statement operation.
func (e *LedgerEvent) IsStatementEvent() bool {
	return e.Type == StatementCredit || e.Type == StatementDebit
}

// AuditTrail is what the processor has recorded about one CPF.
type AuditTrail struct {
	CPF        string          `json:"cpf"`
	Events     []LedgerEvent   `json:"events"`
	Operations []Operation     `json:"operations"`
	Balance    decimal.Decimal `json:"balance"`
}

func (a AuditTrail) MarshalJSON() ([]byte, error) {
	type auditTrail AuditTrail
	return json.Marshal(struct {
		auditTrail
		Balance json.Number `json:"balance"`
	}{auditTrail(a), AmountJSON(a.Balance)})
}
