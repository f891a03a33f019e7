package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/abkawan/cpf-ledger/internal/models"
	"github.com/abkawan/cpf-ledger/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// creates a new account with an empty statement
func (s *LedgerService) CreateAccount(ctx context.Context, cpf, name string) (*models.Customer, error) {
	customer := &models.Customer{
		ID:        uuid.New().String(),
		CPF:       cpf,
		Name:      name,
		Statement: []models.Operation{},
	}

	if err := s.store.Create(customer); err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("account created", zap.String("customer_id", customer.ID))
	s.publish(ctx, models.AccountCreated, customer, nil)

	return customer, nil
}

// Customer resolves a CPF to its customer record.
func (s *LedgerService) Customer(ctx context.Context, cpf string) (*models.Customer, error) {
	customer, err := s.store.Get(cpf)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return customer, nil
}

// UpdateName overwrites the customer's name and nothing else.
func (s *LedgerService) UpdateName(ctx context.Context, cpf, name string) (*models.Customer, error) {
	customer, err := s.store.Update(cpf, func(c *models.Customer) error {
		c.Name = name
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	s.publish(ctx, models.AccountUpdated, customer, nil)
	return customer, nil
}

// removes the account with the given CPF
func (s *LedgerService) DeleteAccount(ctx context.Context, cpf string) error {
	customer, err := s.store.Delete(cpf)
	if err != nil {
		return translateStoreError(err)
	}

	s.logger.Info("account deleted", zap.String("customer_id", customer.ID))
	s.publish(ctx, models.AccountDeleted, customer, nil)
	return nil
}

func translateStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrCustomerNotFound):
		return ErrCustomerNotFound
	case errors.Is(err, store.ErrCustomerExists):
		return ErrDuplicateCustomer
	case IsClientError(err):
		return err
	default:
		return fmt.Errorf("customer store: %w", err)
	}
}
