package db

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/lumeapp/payments-backend/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// initCollections creates the collections in the MongoDB database if they
// don't exist yet.
func (ms *MongoStorage) initCollections(database string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// get the current collections names to create only the missing ones
	currentCollections, err := ms.collectionNames(ctx, database)
	if err != nil {
		return err
	}
	// aux method to get a collection if it exists, or create it if it doesn't
	getCollection := func(name string) (*mongo.Collection, error) {
		alreadyCreated := false
		for _, c := range currentCollections {
			if c == name {
				alreadyCreated = true
				break
			}
		}
		// if the collection doesn't exist, create it
		if !alreadyCreated {
			if err := ms.client.Database(database).CreateCollection(ctx, name); err != nil {
				return nil, err
			}
		}
		// return the collection
		return ms.client.Database(database).Collection(name), nil
	}
	// subscriptions collection
	if ms.subscriptions, err = getCollection("subscriptions"); err != nil {
		return err
	}
	// payment events collection
	if ms.paymentEvents, err = getCollection("paymentEvents"); err != nil {
		return err
	}
	return nil
}

// collectionNames returns the names of the collections in the given database.
func (ms *MongoStorage) collectionNames(ctx context.Context, database string) ([]string, error) {
	collectionsCursor, err := ms.client.Database(database).ListCollections(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := collectionsCursor.Close(ctx); err != nil {
			log.Warnw("failed to close collections cursor", "error", err)
		}
	}()
	collections := []bson.D{}
	if err := collectionsCursor.All(ctx, &collections); err != nil {
		return nil, err
	}
	names := []string{}
	for _, col := range collections {
		for _, v := range col {
			if v.Key == "name" {
				names = append(names, v.Value.(string))
			}
		}
	}
	return names, nil
}

// createIndexes creates the indexes for the collections in the MongoDB
// database. Add more indexes here as needed.
func (ms *MongoStorage) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	// create an index for the 'processorSubscriptionID' field on subscriptions,
	// since subscription lifecycle events locate records by it instead of
	// the user ID
	subscriptionIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "processorSubscriptionID", Value: 1}}, // 1 for ascending order
		Options: options.Index().SetSparse(true),
	}
	if _, err := ms.subscriptions.Indexes().CreateOne(ctx, subscriptionIDIndex); err != nil {
		return fmt.Errorf("failed to create index on processorSubscriptionID for subscriptions: %w", err)
	}
	// create an index for the 'sessionID' field on payment events
	sessionIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionID", Value: 1}}, // 1 for ascending order
		Options: options.Index().SetSparse(true),
	}
	if _, err := ms.paymentEvents.Indexes().CreateOne(ctx, sessionIDIndex); err != nil {
		return fmt.Errorf("failed to create index on sessionID for payment events: %w", err)
	}
	// create an index for the 'userID' field on payment events
	userIDIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "userID", Value: 1}}, // 1 for ascending order
	}
	if _, err := ms.paymentEvents.Indexes().CreateOne(ctx, userIDIndex); err != nil {
		return fmt.Errorf("failed to create index on userID for payment events: %w", err)
	}
	return nil
}

// dynamicUpdateDocument creates a BSON update document from a struct, including only non-zero fields.
// It uses reflection to iterate over the struct fields and create the update document.
// The struct fields must have a bson tag to be included in the update document.
// The _id field is skipped.
func dynamicUpdateDocument(item any, alwaysUpdateTags []string) (bson.M, error) {
	val := reflect.ValueOf(item)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if !val.IsValid() || val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input must be a valid struct")
	}
	update := bson.M{}
	typ := val.Type()
	// create a map for quick lookup
	alwaysUpdateMap := make(map[string]bool, len(alwaysUpdateTags))
	for _, tag := range alwaysUpdateTags {
		alwaysUpdateMap[tag] = true
	}
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanInterface() {
			continue
		}
		fieldType := typ.Field(i)
		tag := fieldType.Tag.Get("bson")
		if tag == "" || tag == "-" || tag == "_id" {
			continue
		}
		// strip bson tag options such as omitempty
		for j := 0; j < len(tag); j++ {
			if tag[j] == ',' {
				tag = tag[:j]
				break
			}
		}
		if tag == "_id" {
			continue
		}
		// check if the field should always be updated or is not the zero value
		_, alwaysUpdate := alwaysUpdateMap[tag]
		if alwaysUpdate || !reflect.DeepEqual(field.Interface(), reflect.Zero(field.Type()).Interface()) {
			update[tag] = field.Interface()
		}
	}
	return bson.M{"$set": update}, nil
}
