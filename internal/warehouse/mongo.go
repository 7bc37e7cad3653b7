package warehouse

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/acronymdata/complaints-etl/internal/config"
	"github.com/acronymdata/complaints-etl/internal/models"
)

// MongoWarehouse implements Warehouse on a MongoDB collection. Unlike
// Redshift it does not read the staged object; records are inserted directly.
type MongoWarehouse struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoWarehouse creates a new MongoDB warehouse instance
func NewMongoWarehouse(cfg config.WarehouseConfig) (*MongoWarehouse, error) {
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoWarehouse{
		client:     client,
		collection: client.Database(cfg.MongoDBDatabase).Collection(cfg.Table),
	}, nil
}

// EnsureTable drops the collection in create mode; collections are otherwise
// created implicitly on first insert.
func (w *MongoWarehouse) EnsureTable(ctx context.Context, mode Mode) error {
	if mode != ModeCreate {
		return nil
	}
	if err := w.collection.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", w.collection.Name(), err)
	}
	return nil
}

// Load inserts the typed records; stagedURI is ignored.
func (w *MongoWarehouse) Load(ctx context.Context, complaints []models.Complaint, stagedURI string) error {
	if len(complaints) == 0 {
		return nil
	}

	docs := make([]interface{}, len(complaints))
	for i, c := range complaints {
		docs[i] = bson.M{
			"complaint_id":         c.ComplaintID,
			"date_received":        c.DateReceived.Time,
			"product":              c.Product,
			"sub_product":          c.SubProduct,
			"issue":                c.Issue,
			"sub_issue":            c.SubIssue,
			"company":              c.Company,
			"state":                c.State,
			"zip":                  c.ZipCode,
			"consumer_consent":     c.ConsumerConsent,
			"submitted_via":        c.SubmittedVia,
			"date_sent_to_company": c.DateSentToCompany.Time,
			"company_response":     c.CompanyResponse,
			"timely_response":      c.TimelyResponse,
			"disputed":             c.Disputed,
		}
	}

	if _, err := w.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert %d complaints: %w", len(docs), err)
	}
	return nil
}

// Close disconnects the MongoDB client
func (w *MongoWarehouse) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.client.Disconnect(ctx)
}
