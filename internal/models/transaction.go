package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type OperationType string

const (
	// Credit adds the amount to the balance
	Credit OperationType = "credit"

	// Debit subtracts the amount from the balance
	Debit OperationType = "debit"
)

// Operation is a single statement entry. Only credits carry a description.
type Operation struct {
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
	Type        OperationType   `json:"type"`
}

// AmountJSON renders an amount or balance as a plain JSON number.
func AmountJSON(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// MarshalJSON writes the amount as a number instead of decimal's default quoted string.
func (o Operation) MarshalJSON() ([]byte, error) {
	type operation Operation
	return json.Marshal(struct {
		operation
		Amount json.Number `json:"amount"`
	}{operation(o), AmountJSON(o.Amount)})
}

// represents the request body of POST /deposit
type DepositRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// represents the request body of POST /withdraw
type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
