// Package db provides the MongoDB storage layer for subscription records
// and the append-only payment event log.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/lumeapp/payments-backend/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStorage uses an external MongoDB service for storing the subscription
// records and payment events.
type MongoStorage struct {
	client *mongo.Client

	subscriptions *mongo.Collection
	paymentEvents *mongo.Collection
}

// New connects to the MongoDB server at the given URL and initializes the
// collections and indexes in the given database.
func New(url, database string) (*MongoStorage, error) {
	ms := &MongoStorage{}
	if url == "" {
		return nil, fmt.Errorf("mongo URL is not defined")
	}
	if database == "" {
		return nil, fmt.Errorf("mongo database is not defined")
	}
	log.Infow("connecting to mongodb", "database", database)
	// preparing connection
	opts := options.Client()
	opts.ApplyURI(url)
	opts.SetMaxConnecting(200)
	timeout := time.Second * 10
	opts.ConnectTimeout = &timeout
	// create a new client with the connection options
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	// check if the connection is successful
	ctx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	// init the collections
	ms.client = client
	if err := ms.initCollections(database); err != nil {
		return nil, err
	}
	if err := ms.createIndexes(); err != nil {
		return nil, err
	}
	return ms, nil
}

// Close disconnects the underlying MongoDB client.
func (ms *MongoStorage) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ms.client.Disconnect(ctx); err != nil {
		log.Warnf("error disconnecting from mongodb: %v", err)
	}
}

// Reset drops the collections and recreates their indexes. Used by tests.
func (ms *MongoStorage) Reset() error {
	log.Infof("resetting database")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ms.subscriptions.Drop(ctx); err != nil {
		return err
	}
	if err := ms.paymentEvents.Drop(ctx); err != nil {
		return err
	}
	return ms.createIndexes()
}
