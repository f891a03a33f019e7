// Package store holds the process-wide customer ledger state.
package store

import (
	"errors"
	"sync"

	"github.com/abkawan/cpf-ledger/internal/models"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrCustomerExists   = errors.New("customer already exists")
)

// Memory is an in-memory customer store keyed by CPF.
// Records never leave the store by reference; callers get copies.
type Memory struct {
	mu        sync.RWMutex
	customers map[string]*models.Customer
}

// creates an empty store
func NewMemory() *Memory {
	return &Memory{
		customers: make(map[string]*models.Customer),
	}
}

// Create inserts the customer unless its CPF is already taken.
func (m *Memory) Create(customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.customers[customer.CPF]; ok {
		return ErrCustomerExists
	}

	m.customers[customer.CPF] = customer.Clone()
	return nil
}

// retrieves a copy of the customer with the given CPF
func (m *Memory) Get(cpf string) (*models.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	customer, ok := m.customers[cpf]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return customer.Clone(), nil
}

// Update runs fn against the stored record while holding the write lock and
// returns a copy of the result. If fn fails the record is left untouched.
func (m *Memory) Update(cpf string, fn func(*models.Customer) error) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.customers[cpf]
	if !ok {
		return nil, ErrCustomerNotFound
	}

	draft := current.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}

	// cpf and id are immutable
	draft.CPF = current.CPF
	draft.ID = current.ID
	m.customers[cpf] = draft

	return draft.Clone(), nil
}

// Delete removes the customer and returns its last state.
func (m *Memory) Delete(cpf string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	customer, ok := m.customers[cpf]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	delete(m.customers, cpf)

	return customer, nil
}

// Len returns the number of customers.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.customers)
}
