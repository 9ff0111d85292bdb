package db

import (
	"context"
	"time"

	"github.com/lumeapp/payments-backend/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AddPaymentEvent method appends a payment event record to the database.
// The processor event ID is the document key, so inserting a redelivered
// event returns ErrAlreadyExists and leaves the original row untouched.
func (ms *MongoStorage) AddPaymentEvent(ev *PaymentEvent) error {
	if ev == nil || ev.EventID == "" {
		return ErrInvalidData
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	// Create a context with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := ms.paymentEvents.InsertOne(ctx, ev); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// PaymentEvent method returns the payment event with the given processor
// event ID. If the event doesn't exist, it returns ErrNotFound.
func (ms *MongoStorage) PaymentEvent(eventID string) (*PaymentEvent, error) {
	if eventID == "" {
		return nil, ErrInvalidData
	}
	// Create a context with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result := ms.paymentEvents.FindOne(ctx, bson.M{"_id": eventID})
	ev := &PaymentEvent{}
	if err := result.Decode(ev); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ev, nil
}

// PaymentEventsByUser method returns the payment events recorded for the
// given user, newest first.
func (ms *MongoStorage) PaymentEventsByUser(userID string) ([]PaymentEvent, error) {
	if userID == "" {
		return nil, ErrInvalidData
	}
	// Create a context with a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := ms.paymentEvents.Find(ctx, bson.M{"userID": userID})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Warnw("error closing cursor", "error", err)
		}
	}()
	events := []PaymentEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
