package service

import (
	"context"
	"time"

	"github.com/abkawan/cpf-ledger/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerStore is the state the ledger operates on.
type CustomerStore interface {
	Create(customer *models.Customer) error
	Get(cpf string) (*models.Customer, error)
	Update(cpf string, fn func(*models.Customer) error) (*models.Customer, error)
	Delete(cpf string) (*models.Customer, error)
}

// EventPublisher receives an event after every committed mutation.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *models.LedgerEvent) error
}

// LedgerService handles customer accounts and their statements
type LedgerService struct {
	store     CustomerStore
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
	loc       *time.Location
}

type Option func(*LedgerService)

// WithClock overrides the time source used to stamp operations.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// WithLocation sets the time zone used to decide which day an operation belongs to.
func WithLocation(loc *time.Location) Option {
	return func(s *LedgerService) { s.loc = loc }
}

// creates a new LedgerService
func NewLedgerService(store CustomerStore, publisher EventPublisher, logger *zap.Logger, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LedgerService) publish(ctx context.Context, eventType models.EventType, customer *models.Customer, op *models.Operation) {
	event := &models.LedgerEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		CustomerID: customer.ID,
		CPF:        customer.CPF,
		Name:       customer.Name,
		Operation:  op,
		OccurredAt: s.now(),
	}

	// the store already committed, so a lost event is logged rather than surfaced
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish ledger event",
			zap.String("event_id", event.ID),
			zap.String("type", string(eventType)),
			zap.Error(err),
		)
	}
}
