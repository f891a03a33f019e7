package service

import (
	"context"
	"fmt"

	"github.com/abkawan/cpf-ledger/internal/models"
	"go.uber.org/zap"
)

// CustomerAuditor records account.* events.
type CustomerAuditor interface {
	RecordCustomerEvent(ctx context.Context, event *models.LedgerEvent) (bool, error)
	CustomerHistory(ctx context.Context, cpf string) ([]models.LedgerEvent, error)
}

// OperationJournal records statement.* events.
type OperationJournal interface {
	AppendOperation(ctx context.Context, event *models.LedgerEvent) (bool, error)
	OperationsByCPF(ctx context.Context, cpf string) ([]models.Operation, error)
}

// EventSource delivers ledger events until ctx is done.
type EventSource interface {
	ConsumeEvents(ctx context.Context) (<-chan models.LedgerEvent, error)
}

// JournalService mirrors ledger events into the audit stores
type JournalService struct {
	auditor CustomerAuditor
	journal OperationJournal
	source  EventSource
	logger  *zap.Logger
}

// creates a new JournalService
func NewJournalService(auditor CustomerAuditor, journal OperationJournal, source EventSource, logger *zap.Logger) *JournalService {
	return &JournalService{
		auditor: auditor,
		journal: journal,
		source:  source,
		logger:  logger,
	}
}

// ProcessEvent routes one event to the store responsible for its type.
func (s *JournalService) ProcessEvent(ctx context.Context, event *models.LedgerEvent) error {
	var (
		recorded bool
		err      error
	)

	switch event.Type {
	case models.AccountCreated, models.AccountUpdated, models.AccountDeleted:
		recorded, err = s.auditor.RecordCustomerEvent(ctx, event)
	case models.StatementCredit, models.StatementDebit:
		if event.Operation == nil {
			return fmt.Errorf("statement event %s has no operation", event.ID)
		}
		recorded, err = s.journal.AppendOperation(ctx, event)
	default:
		return fmt.Errorf("unknown ledger event type %q", event.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to journal event %s: %w", event.ID, err)
	}

	if !recorded {
		s.logger.Debug("ledger event already journaled", zap.String("event_id", event.ID))
	}
	return nil
}

// starts the event processor
func (s *JournalService) StartProcessor(ctx context.Context) error {
	events, err := s.source.ConsumeEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to consume ledger events: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}

				if err := s.ProcessEvent(ctx, &event); err != nil {
					s.logger.Error("failed to process ledger event",
						zap.String("event_id", event.ID),
						zap.String("type", string(event.Type)),
						zap.Error(err),
					)
				} else {
					s.logger.Info("processed ledger event",
						zap.String("event_id", event.ID),
						zap.String("type", string(event.Type)),
					)
				}
			}
		}
	}()

	return nil
}

// History collects the recorded trail of a CPF and the balance its journal adds up to.
func (s *JournalService) History(ctx context.Context, cpf string) (*models.AuditTrail, error) {
	events, err := s.auditor.CustomerHistory(ctx, cpf)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer history: %w", err)
	}

	ops, err := s.journal.OperationsByCPF(ctx, cpf)
	if err != nil {
		return nil, fmt.Errorf("failed to load operations: %w", err)
	}

	if events == nil {
		events = []models.LedgerEvent{}
	}
	if ops == nil {
		ops = []models.Operation{}
	}

	return &models.AuditTrail{
		CPF:        cpf,
		Events:     events,
		Operations: ops,
		Balance:    CalculateBalance(ops),
	}, nil
}
