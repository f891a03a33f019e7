package queue

import (
	"context"

	"github.com/abkawan/cpf-ledger/internal/models"
)

// NopPublisher discards events. The API uses it when event publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, *models.LedgerEvent) error {
	return nil
}
