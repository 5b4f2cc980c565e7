package history

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	database   = "tubebridge"
	collection = "history"
)

type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// Mongo stores entries in a MongoDB collection.
type Mongo struct {
	client *mongo.Client
	coll   inserter
	now    func() time.Time
}

// NewMongo connects to uri and pings the server.
func NewMongo(ctx context.Context, uri string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(collection),
		now:    time.Now,
	}, nil
}

func (m *Mongo) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = m.now().UTC()
	}
	if _, err := m.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}
