package db

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Subscription method returns the subscription record of the user with the
// given ID. If the record doesn't exist, it returns ErrNotFound.
func (ms *MongoStorage) Subscription(userID string) (*Subscription, error) {
	if userID == "" {
		return nil, ErrInvalidData
	}
	// Create a context with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result := ms.subscriptions.FindOne(ctx, bson.M{"_id": userID})
	sub := &Subscription{}
	if err := result.Decode(sub); err != nil {
		// if the record doesn't exist return a specific error
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

// SubscriptionByProcessorID method returns the subscription record holding
// the given processor subscription ID. Lifecycle events after checkout carry
// only this ID, not the user ID. If no record holds it, it returns
// ErrNotFound.
func (ms *MongoStorage) SubscriptionByProcessorID(subscriptionID string) (*Subscription, error) {
	if subscriptionID == "" {
		return nil, ErrInvalidData
	}
	// Create a context with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result := ms.subscriptions.FindOne(ctx, bson.M{"processorSubscriptionID": subscriptionID})
	sub := &Subscription{}
	if err := result.Decode(sub); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

// SetSubscription method creates or updates the subscription record in the
// database. If the record already exists, it updates the fields that have
// changed. If it doesn't exist, it creates it.
func (ms *MongoStorage) SetSubscription(sub *Subscription) error {
	if sub == nil || sub.UserID == "" {
		return ErrInvalidData
	}
	// Create a context with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Prepare the document to be updated in the database modifying only the
	// fields that have changed. Tier and status always carry a value, so
	// they are updated unconditionally.
	updateDoc, err := dynamicUpdateDocument(sub, []string{"tier", "status"})
	if err != nil {
		return err
	}
	// Set upsert to true to create the document if it doesn't exist
	opts := options.Update().SetUpsert(true)
	if _, err := ms.subscriptions.UpdateOne(ctx, bson.M{"_id": sub.UserID}, updateDoc, opts); err != nil {
		if strings.Contains(err.Error(), "duplicate key error") {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// DelSubscription method deletes the subscription record of the given user
// from the database.
func (ms *MongoStorage) DelSubscription(userID string) error {
	if userID == "" {
		return ErrInvalidData
	}
	// Create a context with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := ms.subscriptions.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}
