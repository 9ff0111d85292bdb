package db

import (
	"time"
)

// Tier identifies the product plan a user is entitled to.
type Tier string

// Status is the current standing of a user's subscription.
type Status string

// PaymentType distinguishes one-time purchases from recurring charges.
type PaymentType string

// Subscription is the billing record of a single user, keyed by the opaque
// user identifier issued at account signup. It is created implicitly and
// mutated exclusively by the webhook reconciler.
type Subscription struct {
	UserID                  string    `json:"userId" bson:"_id"`
	Tier                    Tier      `json:"tier" bson:"tier"`
	Status                  Status    `json:"status" bson:"status"`
	ProcessorCustomerID     string    `json:"processorCustomerId" bson:"processorCustomerID,omitempty"`
	ProcessorSubscriptionID string    `json:"processorSubscriptionId" bson:"processorSubscriptionID,omitempty"`
	TrialEndsAt             time.Time `json:"trialEndsAt" bson:"trialEndsAt,omitempty"`
	StartedAt               time.Time `json:"subscriptionStartedAt" bson:"startedAt,omitempty"`
	EndedAt                 time.Time `json:"subscriptionEndedAt" bson:"endedAt,omitempty"`
	LastPaymentAt           time.Time `json:"lastPaymentAt" bson:"lastPaymentAt,omitempty"`
	// LastEventAt records the creation time of the newest processor event
	// applied to this record; older events must not regress the status.
	LastEventAt time.Time `json:"lastEventAt" bson:"lastEventAt,omitempty"`
}

// PaymentEvent is the append-only record of a successfully processed
// checkout completion. The processor event ID is the document key, so a
// redelivered event cannot produce a second row.
type PaymentEvent struct {
	EventID   string      `json:"eventId" bson:"_id"`
	SessionID string      `json:"sessionId" bson:"sessionID"`
	UserID    string      `json:"userId" bson:"userID"`
	Plan      Tier        `json:"plan" bson:"plan"`
	Amount    float64     `json:"amount" bson:"amount"`
	Currency  string      `json:"currency" bson:"currency"`
	Type      PaymentType `json:"type" bson:"type"`
	Status    string      `json:"status" bson:"status"`
	CreatedAt time.Time   `json:"createdAt" bson:"createdAt"`
}
