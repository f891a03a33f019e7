package service

import (
	"time"

	"github.com/abkawan/cpf-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// DateLayout is the format of the date query parameter.
const DateLayout = "2006-01-02"

// CalculateBalance folds a statement into its balance: credits add, debits subtract.
func CalculateBalance(statement []models.Operation) decimal.Decimal {
	balance := decimal.Zero
	for _, op := range statement {
		if op.Type == models.Credit {
			balance = balance.Add(op.Amount)
		} else {
			balance = balance.Sub(op.Amount)
		}
	}
	return balance
}

// FilterByDay returns the operations created on the calendar day of day in loc,
// keeping statement order. The result is never nil.
func FilterByDay(statement []models.Operation, day time.Time, loc *time.Location) []models.Operation {
	y, m, d := day.In(loc).Date()

	filtered := make([]models.Operation, 0)
	for _, op := range statement {
		oy, om, od := op.CreatedAt.In(loc).Date()
		if oy == y && om == m && od == d {
			filtered = append(filtered, op)
		}
	}
	return filtered
}
