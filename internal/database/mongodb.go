package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions locates the collection holding the document state.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// OpenCollection connects, pings and returns the configured collection. The
// returned close func disconnects the client.
func OpenCollection(ctx context.Context, o MongoOptions) (*mongo.Collection, func(), error) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(o.URI).SetAppName("doctracker"))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	closeFn := func() {
		dctx, dcancel := context.WithTimeout(context.Background(), timeout)
		defer dcancel()
		_ = client.Disconnect(dctx)
	}
	return client.Database(o.Database).Collection(o.Collection), closeFn, nil
}
