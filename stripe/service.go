package stripe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	stripeapi "github.com/stripe/stripe-go/v81"

	"github.com/lumeapp/payments-backend/db"
	"github.com/lumeapp/payments-backend/log"
	"github.com/lumeapp/payments-backend/metrics"
)

// Repository is the datastore surface the service needs. *db.MongoStorage
// satisfies it; tests substitute a mock.
type Repository interface {
	Subscription(userID string) (*db.Subscription, error)
	SubscriptionByProcessorID(subscriptionID string) (*db.Subscription, error)
	SetSubscription(sub *db.Subscription) error
	AddPaymentEvent(ev *db.PaymentEvent) error
}

// Service provides the main business logic for Stripe operations
type Service struct {
	client      *Client
	repo        Repository
	eventStore  EventStore
	lockManager *LockManager
	config      *Config
}

// NewService creates a new Stripe service
func NewService(config *Config, repo Repository) (*Service, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return &Service{
		client:      NewClient(config),
		repo:        repo,
		eventStore:  NewMemoryEventStore(0),
		lockManager: NewLockManager(),
		config:      config,
	}, nil
}

// CreateCheckoutSession creates a new checkout session for the given plan and
// user. The plan must be one of the purchasable tiers.
func (s *Service) CreateCheckoutSession(req *CheckoutSessionRequest) (*stripeapi.CheckoutSession, error) {
	if !db.IsPurchasableTier(req.Plan) {
		return nil, NewStripeError(CodeInvalidEvent,
			fmt.Sprintf("unknown plan %q", req.Plan), nil)
	}
	return s.client.CreateCheckoutSession(req)
}

// CreatePortalSession creates a billing portal session
func (s *Service) CreatePortalSession(customerID string) (*stripeapi.BillingPortalSession, error) {
	return s.client.CreatePortalSession(customerID)
}

// ProcessWebhookEvent validates a webhook delivery and applies it with
// idempotency. Redeliveries of an already processed event are acknowledged
// without touching the datastore.
func (s *Service) ProcessWebhookEvent(payload []byte, signatureHeader string) error {
	event, err := s.client.ValidateWebhookEvent(payload, signatureHeader)
	if err != nil {
		metrics.WebhookSignatureFailures.Inc()
		return err
	}
	metrics.WebhookEvents.WithLabelValues(string(event.Type)).Inc()

	if s.eventStore.EventExists(event.ID) {
		log.Debugf("stripe webhook: event %s already processed, skipping", event.ID)
		return nil
	}

	if err := s.HandleEvent(event); err != nil {
		return err
	}

	if err := s.eventStore.MarkProcessed(event.ID); err != nil {
		log.Warnw("stripe webhook: failed to mark event as processed",
			"eventID", event.ID, "error", err)
	}
	return nil
}

// HandleEvent dispatches a verified event to the matching handler. Unknown
// event types are acknowledged and ignored.
func (s *Service) HandleEvent(event *stripeapi.Event) error {
	switch event.Type {
	case stripeapi.EventTypeCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(event)
	case stripeapi.EventTypeCustomerSubscriptionUpdated:
		return s.handleSubscriptionUpdated(event)
	case stripeapi.EventTypeCustomerSubscriptionDeleted:
		return s.handleSubscriptionDeleted(event)
	case stripeapi.EventTypeInvoicePaymentSucceeded:
		return s.handleInvoicePaid(event)
	case stripeapi.EventTypeInvoicePaymentFailed:
		return s.handleInvoiceFailed(event)
	default:
		log.Debugf("stripe webhook: received unhandled event type %s (id %s)", event.Type, event.ID)
		return nil
	}
}

// handleCheckoutCompleted provisions the subscription record for a finished
// checkout and appends one payment event row. The user ID and plan come from
// the session metadata stamped at creation time; their absence means the
// session was not created by us and the event is rejected.
func (s *Service) handleCheckoutCompleted(event *stripeapi.Event) error {
	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		metrics.WebhookInvalidEvents.Inc()
		return NewStripeError(CodeInvalidEvent, "failed to parse checkout session from event", err)
	}

	userID := session.Metadata["userId"]
	plan := db.Tier(session.Metadata["plan"])
	if userID == "" || plan == "" {
		metrics.WebhookInvalidEvents.Inc()
		return NewStripeError(CodeInvalidEvent,
			fmt.Sprintf("checkout session %s missing userId/plan metadata", session.ID), nil)
	}
	if !db.IsPurchasableTier(plan) {
		metrics.WebhookInvalidEvents.Inc()
		return NewStripeError(CodeInvalidEvent,
			fmt.Sprintf("checkout session %s references unknown plan %q", session.ID, plan), nil)
	}

	unlock := s.lockManager.Lock("user:" + userID)
	defer unlock()

	eventTime := time.Unix(event.Created, 0)

	existing, err := s.repo.Subscription(userID)
	if err != nil && err != db.ErrNotFound {
		metrics.WebhookStoreFailures.Inc()
		return NewStripeError(CodeStoreFailed,
			fmt.Sprintf("failed to load subscription for user %s", userID), err)
	}
	if existing != nil && staleEvent(existing, eventTime) {
		log.Infow("stripe webhook: skipping stale checkout event",
			"eventID", event.ID, "userID", userID)
		return nil
	}

	sub := &db.Subscription{
		UserID:      userID,
		Tier:        plan,
		StartedAt:   eventTime,
		LastEventAt: eventTime,
	}
	if session.Customer != nil {
		sub.ProcessorCustomerID = session.Customer.ID
	}

	paymentType := db.PaymentTypeOneTime
	if session.Subscription != nil {
		// Recurring plan: the subscription starts in its trial window
		paymentType = db.PaymentTypeSubscription
		sub.ProcessorSubscriptionID = session.Subscription.ID
		sub.Status = db.StatusTrial
		sub.TrialEndsAt = eventTime.Add(time.Duration(s.config.TrialPeriodDays) * 24 * time.Hour)
	} else {
		sub.Status = db.StatusActive
	}

	if err := s.repo.SetSubscription(sub); err != nil {
		metrics.WebhookStoreFailures.Inc()
		return NewStripeError(CodeStoreFailed,
			fmt.Sprintf("failed to save subscription for user %s", userID), err)
	}

	paymentEvent := &db.PaymentEvent{
		EventID:   event.ID,
		SessionID: session.ID,
		UserID:    userID,
		Plan:      plan,
		Amount:    float64(session.AmountTotal) / 100,
		Currency:  strings.ToUpper(string(session.Currency)),
		Type:      paymentType,
		Status:    db.PaymentStatusSucceeded,
		CreatedAt: eventTime,
	}
	if err := s.repo.AddPaymentEvent(paymentEvent); err != nil {
		if err == db.ErrAlreadyExists {
			log.Debugf("stripe webhook: payment event %s already recorded, skipping", event.ID)
			return nil
		}
		metrics.WebhookStoreFailures.Inc()
		return NewStripeError(CodeStoreFailed,
			fmt.Sprintf("failed to record payment event %s", event.ID), err)
	}
	metrics.PaymentsRecorded.WithLabelValues(string(paymentType)).Inc()

	log.Infow("stripe webhook: checkout completed",
		"userID", userID, "plan", plan, "status", sub.Status, "eventID", event.ID)
	return nil
}

// handleSubscriptionUpdated maps the processor's subscription status onto the
// matching record.
func (s *Service) handleSubscriptionUpdated(event *stripeapi.Event) error {
	subscription, err := parseSubscriptionFromEvent(event)
	if err != nil {
		metrics.WebhookInvalidEvents.Inc()
		return err
	}

	unlock := s.lockManager.Lock("sub:" + subscription.ID)
	defer unlock()

	eventTime := time.Unix(event.Created, 0)

	sub, err := s.lookupByProcessorID(subscription.ID)
	if err != nil {
		return err
	}
	if staleEvent(sub, eventTime) {
		log.Infow("stripe webhook: skipping stale subscription update",
			"eventID", event.ID, "subscriptionID", subscription.ID)
		return nil
	}

	sub.Status = mapSubscriptionStatus(subscription.Status)
	sub.LastPaymentAt = eventTime
	sub.LastEventAt = eventTime

	if err := s.repo.SetSubscription(sub); err != nil {
		metrics.WebhookStoreFailures.Inc()
		return NewStripeError(CodeStoreFailed,
			fmt.Sprintf("failed to update subscription %s", subscription.ID), err)
	}

	log.Infow("stripe webhook: subscription updated",
		"userID", sub.UserID, "subscriptionID", subscription.ID, "status", sub.Status)
	return nil
}

// handleSubscriptionDeleted downgrades the matching record to the free tier.
func (s *Service) handleSubscriptionDeleted(event *stripeapi.Event) error {
	subscription, err := parseSubscriptionFromEvent(event)
	if err != nil {
		metrics.WebhookInvalidEvents.Inc()
		return err
	}

	unlock := s.lockManager.Lock("sub:" + subscription.ID)
	defer unlock()

	eventTime := time.Unix(event.Created, 0)

	sub, err := s.lookupByProcessorID(subscription.ID)
	if err != nil {
		return err
	}
	if staleEvent(sub, eventTime) {
		log.Infow("stripe webhook: skipping stale subscription deletion",
			"eventID", event.ID, "subscriptionID", subscription.ID)
		return nil
	}

	sub.Status = db.StatusCanceled
	sub.Tier = db.TierFree
	sub.EndedAt = eventTime
	sub.LastEventAt = eventTime

	if err := s.repo.SetSubscription(sub); err != nil {
		metrics.WebhookStoreFailures.Inc()
		return NewStripeError(CodeStoreFailed,
			fmt.Sprintf("failed to cancel subscription %s", subscription.ID), err)
	}

	log.Infow("stripe webhook: subscription canceled",
		"userID", sub.UserID, "subscriptionID", subscription.ID)
	return nil
}

// handleInvoicePaid marks the matching record active after a successful
// recurring charge. Invoices without a subscription belong to one-time
// payments and are ignored.
func (s *Service) handleInvoicePaid(event *stripeapi.Event) error {
	invoice, err := parseInvoiceFromEvent(event)
	if err != nil {
		metrics.WebhookInvalidEvents.Inc()
		return err
	}
	if invoice.Subscription == nil {
		log.Debugf("stripe webhook: invoice %s has no subscription, skipping", invoice.ID)
		return nil
	}

	unlock := s.lockManager.Lock("sub:" + invoice.Subscription.ID)
	defer unlock()

	eventTime := time.Unix(event.Created, 0)

	sub, err := s.lookupByProcessorID(invoice.Subscription.ID)
	if err != nil {
		return err
	}
	if staleEvent(sub, eventTime) {
		log.Infow("stripe webhook: skipping stale invoice payment",
			"eventID", event.ID, "subscriptionID", invoice.Subscription.ID)
		return nil
	}

	sub.Status = db.StatusActive
	sub.LastPaymentAt = eventTime
	sub.LastEventAt = eventTime

	if err := s.repo.SetSubscription(sub); err != nil {
		metrics.WebhookStoreFailures.Inc()
		return NewStripeError(CodeStoreFailed,
			fmt.Sprintf("failed to record payment for subscription %s", invoice.Subscription.ID), err)
	}

	log.Infow("stripe webhook: invoice paid",
		"userID", sub.UserID, "subscriptionID", invoice.Subscription.ID)
	return nil
}

// handleInvoiceFailed marks the matching record past due. No other field
// changes.
func (s *Service) handleInvoiceFailed(event *stripeapi.Event) error {
	invoice, err := parseInvoiceFromEvent(event)
	if err != nil {
		metrics.WebhookInvalidEvents.Inc()
		return err
	}
	if invoice.Subscription == nil {
		log.Debugf("stripe webhook: invoice %s has no subscription, skipping", invoice.ID)
		return nil
	}

	unlock := s.lockManager.Lock("sub:" + invoice.Subscription.ID)
	defer unlock()

	eventTime := time.Unix(event.Created, 0)

	sub, err := s.lookupByProcessorID(invoice.Subscription.ID)
	if err != nil {
		return err
	}
	if staleEvent(sub, eventTime) {
		log.Infow("stripe webhook: skipping stale invoice failure",
			"eventID", event.ID, "subscriptionID", invoice.Subscription.ID)
		return nil
	}

	sub.Status = db.StatusPastDue
	sub.LastEventAt = eventTime

	if err := s.repo.SetSubscription(sub); err != nil {
		metrics.WebhookStoreFailures.Inc()
		return NewStripeError(CodeStoreFailed,
			fmt.Sprintf("failed to mark subscription %s past due", invoice.Subscription.ID), err)
	}

	log.Infow("stripe webhook: invoice payment failed",
		"userID", sub.UserID, "subscriptionID", invoice.Subscription.ID)
	return nil
}

// lookupByProcessorID resolves a subscription record by its processor
// subscription ID. A missing record is a business condition, not a transport
// failure, so the caller acknowledges it instead of requesting redelivery.
func (s *Service) lookupByProcessorID(subscriptionID string) (*db.Subscription, error) {
	sub, err := s.repo.SubscriptionByProcessorID(subscriptionID)
	if err == db.ErrNotFound {
		return nil, NewStripeError(CodeSubscriptionNotFound,
			fmt.Sprintf("no record for subscription %s", subscriptionID), nil)
	}
	if err != nil {
		metrics.WebhookStoreFailures.Inc()
		return nil, NewStripeError(CodeStoreFailed,
			fmt.Sprintf("failed to load subscription %s", subscriptionID), err)
	}
	return sub, nil
}

// staleEvent reports whether the event is older than the last one already
// applied to the record. Webhook delivery is unordered, so an old event must
// not regress the record.
func staleEvent(sub *db.Subscription, eventTime time.Time) bool {
	return !sub.LastEventAt.IsZero() && eventTime.Before(sub.LastEventAt)
}

// mapSubscriptionStatus folds the processor's status taxonomy into ours.
// Anything neither trialing nor active means the payment is in trouble.
func mapSubscriptionStatus(status stripeapi.SubscriptionStatus) db.Status {
	switch status {
	case stripeapi.SubscriptionStatusTrialing:
		return db.StatusTrial
	case stripeapi.SubscriptionStatusActive:
		return db.StatusActive
	default:
		return db.StatusPastDue
	}
}

// parseSubscriptionFromEvent extracts the subscription object from a webhook event
func parseSubscriptionFromEvent(event *stripeapi.Event) (*stripeapi.Subscription, error) {
	var subscription stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return nil, NewStripeError(CodeInvalidEvent, "failed to parse subscription from event", err)
	}
	if subscription.ID == "" {
		return nil, NewStripeError(CodeInvalidEvent, "subscription event missing subscription id", nil)
	}
	return &subscription, nil
}

// parseInvoiceFromEvent extracts the invoice object from a webhook event
func parseInvoiceFromEvent(event *stripeapi.Event) (*stripeapi.Invoice, error) {
	var invoice stripeapi.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return nil, NewStripeError(CodeInvalidEvent, "failed to parse invoice from event", err)
	}
	return &invoice, nil
}
