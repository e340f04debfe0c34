// v0
// internal/store/mongo.go
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

// MongoConfig locates the collection holding scan events.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// MongoStore keeps one document per event, keyed by the event id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewMongoStore connects to cfg.URI and ensures the collection indexes.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "ecosort"
	}
	if cfg.Collection == "" {
		cfg.Collection = "wastescans"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	opts := options.Client().ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout).
		SetConnectTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	coll := client.Database(cfg.Database).Collection(cfg.Collection)

	ictx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	_, err = coll.Indexes().CreateOne(ictx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo index: %w", err)
	}
	return &MongoStore{client: client, coll: coll, now: time.Now}, nil
}

// Append inserts e as one document.
func (s *MongoStore) Append(ctx context.Context, e scan.Event) (scan.Event, error) {
	e, err := prepare(e, s.now)
	if err != nil {
		return scan.Event{}, err
	}
	if _, err := s.coll.InsertOne(ctx, e); err != nil {
		return scan.Event{}, Transient("append", err)
	}
	return e, nil
}

// Query finds the matching documents.
func (s *MongoStore) Query(ctx context.Context, f Filter) ([]scan.Event, error) {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if !f.Since.IsZero() {
		filter["timestamp"] = bson.M{"$gte": f.Since.UTC()}
	}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, Transient("query", err)
	}
	var out []scan.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, Transient("query", err)
	}
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	return out, nil
}

// Clear deletes every document.
func (s *MongoStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, Transient("clear", err)
	}
	return res.DeletedCount, nil
}

// Ping checks the primary.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
