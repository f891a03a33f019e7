package service

import (
	"context"
	"time"

	"github.com/abkawan/cpf-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Bounds on what a single operation may carry: at most maxAmountScale
// fractional digits and maxAmountDigits integer digits.
const (
	maxAmountScale  = 18
	maxAmountDigits = 18
)

// checkAmount rejects negative amounts and ones outside the bounds above.
// Both checks read the coefficient and exponent only, so a value like 1e100000000
// is refused without being expanded.
func checkAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	exp := int(amount.Exponent())
	if -exp > maxAmountScale {
		return ErrInvalidAmount
	}
	if amount.NumDigits()+exp > maxAmountDigits {
		return ErrInvalidAmount
	}
	return nil
}

// Deposit appends a credit to the customer's statement. There is no balance check.
func (s *LedgerService) Deposit(ctx context.Context, cpf, description string, amount decimal.Decimal) (*models.Operation, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	op := models.Operation{
		Description: description,
		Amount:      amount,
		CreatedAt:   s.now(),
		Type:        models.Credit,
	}

	customer, err := s.store.Update(cpf, func(c *models.Customer) error {
		c.Statement = append(c.Statement, op)
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.publish(ctx, models.StatementCredit, customer, &op)
	return &op, nil
}

// Withdraw appends a debit if the current balance covers amount.
// A withdrawal of exactly the balance succeeds.
func (s *LedgerService) Withdraw(ctx context.Context, cpf string, amount decimal.Decimal) (*models.Operation, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	op := models.Operation{
		Amount:    amount,
		CreatedAt: s.now(),
		Type:      models.Debit,
	}

	customer, err := s.store.Update(cpf, func(c *models.Customer) error {
		if CalculateBalance(c.Statement).LessThan(amount) {
			return ErrInsufficientFunds
		}
		c.Statement = append(c.Statement, op)
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.publish(ctx, models.StatementDebit, customer, &op)
	return &op, nil
}

// StatementByDate keeps the operations created on date (YYYY-MM-DD) in the
// service's time zone.
func (s *LedgerService) StatementByDate(statement []models.Operation, date string) ([]models.Operation, error) {
	day, err := time.ParseInLocation(DateLayout, date, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return FilterByDay(statement, day, s.loc), nil
}
