package db

import (
	"context"
	"fmt"
	"time"

	"github.com/abkawan/cpf-ledger/internal/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const closeTimeout = 5 * time.Second

// MongoDB journals statement operations
type MongoDB struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// operationDocument is how a statement operation is stored in the journal
type operationDocument struct {
	EventID     string               `bson:"event_id"`
	CustomerID  string               `bson:"customer_id"`
	CPF         string               `bson:"cpf"`
	Type        models.OperationType `bson:"type"`
	Description string               `bson:"description,omitempty"`
	Amount      primitive.Decimal128 `bson:"amount"`
	CreatedAt   time.Time            `bson:"created_at"`
	RecordedAt  time.Time            `bson:"recorded_at"`
}

// creates a new MongoDB instance
func NewMongoDB(uri, dbName string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Mongodb: %w", err)
	}

	// pinging the database
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping Mongodb: %w", err)
	}

	collection := client.Database(dbName).Collection("operations")

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cpf", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetBackground(true),
		},
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetBackground(true),
		},
	}

	_, err = collection.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return &MongoDB{
		client:     client,
		collection: collection,
	}, nil
}

// closes the mongoDB connection. It runs on its own deadline because callers
// usually close after their context is cancelled.
func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// AppendOperation journals the operation carried by a statement.* event.
// An event that was already journaled is reported as not recorded.
func (m *MongoDB) AppendOperation(ctx context.Context, event *models.LedgerEvent) (bool, error) {
	if event.Operation == nil {
		return false, fmt.Errorf("event %s carries no operation", event.ID)
	}

	amount, err := primitive.ParseDecimal128(event.Operation.Amount.String())
	if err != nil {
		return false, fmt.Errorf("failed to convert amount: %w", err)
	}

	doc := operationDocument{
		EventID:     event.ID,
		CustomerID:  event.CustomerID,
		CPF:         event.CPF,
		Type:        event.Operation.Type,
		Description: event.Operation.Description,
		Amount:      amount,
		CreatedAt:   event.Operation.CreatedAt,
		RecordedAt:  time.Now(),
	}

	_, err = m.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert operation: %w", err)
	}

	return true, nil
}

// retrieves the journaled operations of a CPF in chronological order
func (m *MongoDB) OperationsByCPF(ctx context.Context, cpf string) ([]models.Operation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := m.collection.Find(ctx, bson.M{"cpf": cpf}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find operations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []operationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode operations: %w", err)
	}

	ops := make([]models.Operation, 0, len(docs))
	for _, doc := range docs {
		amount, err := decimal.NewFromString(doc.Amount.String())
		if err != nil {
			return nil, fmt.Errorf("failed to convert amount of event %s: %w", doc.EventID, err)
		}
		ops = append(ops, models.Operation{
			Description: doc.Description,
			Amount:      amount,
			CreatedAt:   doc.CreatedAt,
			Type:        doc.Type,
		})
	}

	return ops, nil
}
