package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/lumeapp/payments-backend/test"
)

var testDB *MongoStorage

const (
	testUserID     = "user_123"
	testOtherUser  = "user_456"
	testCustomerID = "cus_123"
	testSubID      = "sub_123"
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	// start a MongoDB container for testing
	dbContainer, err := test.StartMongoContainer(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to start MongoDB container: %v", err))
	}

	// get the MongoDB connection string
	mongoURI, err := dbContainer.ConnectionString(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to get MongoDB connection string: %v", err))
	}

	testDB, err = New(mongoURI, test.RandomDatabaseName())
	if err != nil {
		panic(fmt.Sprintf("failed to create new MongoDB connection: %v", err))
	}

	code := m.Run()

	// close the database connection
	testDB.Close()

	// stop the MongoDB container
	if err := dbContainer.Terminate(ctx); err != nil {
		panic(fmt.Sprintf("failed to stop MongoDB container: %v", err))
	}

	os.Exit(code)
}

func TestSubscriptionCRUD(t *testing.T) {
	c := qt.New(t)
	defer func() {
		c.Assert(testDB.Reset(), qt.IsNil)
	}()

	// unknown user yields ErrNotFound
	_, err := testDB.Subscription(testUserID)
	c.Assert(err, qt.Equals, ErrNotFound)

	now := time.Now().Truncate(time.Millisecond)
	sub := &Subscription{
		UserID:                  testUserID,
		Tier:                    TierWeekly,
		Status:                  StatusTrial,
		ProcessorCustomerID:     testCustomerID,
		ProcessorSubscriptionID: testSubID,
		TrialEndsAt:             now.Add(7 * 24 * time.Hour),
		StartedAt:               now,
		LastEventAt:             now,
	}
	c.Assert(testDB.SetSubscription(sub), qt.IsNil)

	stored, err := testDB.Subscription(testUserID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Tier, qt.Equals, TierWeekly)
	c.Assert(stored.Status, qt.Equals, StatusTrial)
	c.Assert(stored.ProcessorCustomerID, qt.Equals, testCustomerID)
	c.Assert(stored.ProcessorSubscriptionID, qt.Equals, testSubID)
	c.Assert(stored.TrialEndsAt.Equal(sub.TrialEndsAt), qt.IsTrue)

	// a later upsert updates the record in place
	stored.Status = StatusActive
	stored.LastPaymentAt = now.Add(time.Hour)
	c.Assert(testDB.SetSubscription(stored), qt.IsNil)

	updated, err := testDB.Subscription(testUserID)
	c.Assert(err, qt.IsNil)
	c.Assert(updated.Status, qt.Equals, StatusActive)
	c.Assert(updated.LastPaymentAt.IsZero(), qt.IsFalse)
	// untouched fields survive the partial update
	c.Assert(updated.ProcessorSubscriptionID, qt.Equals, testSubID)

	c.Assert(testDB.DelSubscription(testUserID), qt.IsNil)
	_, err = testDB.Subscription(testUserID)
	c.Assert(err, qt.Equals, ErrNotFound)
}

func TestSubscriptionByProcessorID(t *testing.T) {
	c := qt.New(t)
	defer func() {
		c.Assert(testDB.Reset(), qt.IsNil)
	}()

	c.Assert(testDB.SetSubscription(&Subscription{
		UserID:                  testUserID,
		Tier:                    TierWeekly,
		Status:                  StatusActive,
		ProcessorSubscriptionID: testSubID,
	}), qt.IsNil)
	c.Assert(testDB.SetSubscription(&Subscription{
		UserID: testOtherUser,
		Tier:   TierLifetime,
		Status: StatusActive,
	}), qt.IsNil)

	found, err := testDB.SubscriptionByProcessorID(testSubID)
	c.Assert(err, qt.IsNil)
	c.Assert(found.UserID, qt.Equals, testUserID)

	_, err = testDB.SubscriptionByProcessorID("sub_missing")
	c.Assert(err, qt.Equals, ErrNotFound)
}

func TestSubscriptionTierDowngrade(t *testing.T) {
	c := qt.New(t)
	defer func() {
		c.Assert(testDB.Reset(), qt.IsNil)
	}()

	c.Assert(testDB.SetSubscription(&Subscription{
		UserID:                  testUserID,
		Tier:                    TierWeekly,
		Status:                  StatusActive,
		ProcessorSubscriptionID: testSubID,
	}), qt.IsNil)

	// cancellation downgrades to the free tier, the update must not be
	// dropped even though "free" is the tier zero value semantically
	c.Assert(testDB.SetSubscription(&Subscription{
		UserID:                  testUserID,
		Tier:                    TierFree,
		Status:                  StatusCanceled,
		ProcessorSubscriptionID: testSubID,
		EndedAt:                 time.Now(),
	}), qt.IsNil)

	stored, err := testDB.Subscription(testUserID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Tier, qt.Equals, TierFree)
	c.Assert(stored.Status, qt.Equals, StatusCanceled)
	c.Assert(stored.EndedAt.IsZero(), qt.IsFalse)
}

func TestPaymentEventDedup(t *testing.T) {
	c := qt.New(t)
	defer func() {
		c.Assert(testDB.Reset(), qt.IsNil)
	}()

	ev := &PaymentEvent{
		EventID:   "evt_123",
		SessionID: "cs_123",
		UserID:    testUserID,
		Plan:      TierLifetime,
		Amount:    49.99,
		Currency:  "USD",
		Type:      PaymentTypeOneTime,
		Status:    PaymentStatusSucceeded,
	}
	c.Assert(testDB.AddPaymentEvent(ev), qt.IsNil)

	// redelivered event hits the primary key
	dup := *ev
	c.Assert(testDB.AddPaymentEvent(&dup), qt.Equals, ErrAlreadyExists)

	stored, err := testDB.PaymentEvent("evt_123")
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Amount, qt.Equals, 49.99)
	c.Assert(stored.Currency, qt.Equals, "USD")
	c.Assert(stored.CreatedAt.IsZero(), qt.IsFalse)

	events, err := testDB.PaymentEventsByUser(testUserID)
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 1)

	events, err = testDB.PaymentEventsByUser(testOtherUser)
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 0)
}

func TestPaymentEventValidation(t *testing.T) {
	c := qt.New(t)

	c.Assert(testDB.AddPaymentEvent(nil), qt.Equals, ErrInvalidData)
	c.Assert(testDB.AddPaymentEvent(&PaymentEvent{}), qt.Equals, ErrInvalidData)
	_, err := testDB.PaymentEvent("")
	c.Assert(err, qt.Equals, ErrInvalidData)
	_, err = testDB.PaymentEventsByUser("")
	c.Assert(err, qt.Equals, ErrInvalidData)
}
