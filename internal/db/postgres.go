package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/abkawan/cpf-ledger/internal/models"
	_ "github.com/lib/pq"
)

// Postgres keeps the audit trail of customer lifecycle events
type Postgres struct {
	db *sql.DB
}

// creates a new Postgres instance
func NewPostgres(connStr string) (*Postgres, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}

// customerEventsSchema creates the audit table. Timestamps keep their zone so
// history read back in another zone still lines up; the ALTERs migrate tables
// created with plain TIMESTAMP columns.
const customerEventsSchema = `
	CREATE TABLE IF NOT EXISTS customer_events (
		event_id VARCHAR(36) PRIMARY KEY,
		event_type VARCHAR(32) NOT NULL,
		customer_id VARCHAR(36) NOT NULL,
		cpf VARCHAR(64) NOT NULL,
		name TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	);
	ALTER TABLE customer_events ALTER COLUMN occurred_at TYPE TIMESTAMPTZ;
	ALTER TABLE customer_events ALTER COLUMN recorded_at TYPE TIMESTAMPTZ;
	CREATE INDEX IF NOT EXISTS customer_events_cpf_idx ON customer_events (cpf, occurred_at);`

// initialize the database schema
func (p *Postgres) InitSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, customerEventsSchema)
	if err != nil {
		return fmt.Errorf("failed to create customer_events table: %w", err)
	}
	return nil
}

// RecordCustomerEvent stores an account.* event. Redelivered events are ignored
// and reported as not recorded.
func (p *Postgres) RecordCustomerEvent(ctx context.Context, event *models.LedgerEvent) (bool, error) {
	query := `
	INSERT INTO customer_events (event_id, event_type, customer_id, cpf, name, occurred_at, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (event_id) DO NOTHING`

	res, err := p.db.ExecContext(ctx, query,
		event.ID, string(event.Type), event.CustomerID, event.CPF, event.Name, event.OccurredAt, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to record customer event: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// retrieves the lifecycle events of a CPF, oldest first
func (p *Postgres) CustomerHistory(ctx context.Context, cpf string) ([]models.LedgerEvent, error) {
	query := `
	SELECT event_id, event_type, customer_id, cpf, name, occurred_at
	FROM customer_events
	WHERE cpf = $1
	ORDER BY occurred_at ASC`

	rows, err := p.db.QueryContext(ctx, query, cpf)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer events: %w", err)
	}
	defer rows.Close()

	var events []models.LedgerEvent
	for rows.Next() {
		var (
			event     models.LedgerEvent
			eventType string
		)
		if err := rows.Scan(&event.ID, &eventType, &event.CustomerID, &event.CPF, &event.Name, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer event: %w", err)
		}
		event.Type = models.EventType(eventType)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customer events: %w", err)
	}

	return events, nil
}
