// Package stripe provides integration with the Stripe payment service,
// handling checkout sessions, billing portal sessions, and webhook events.
package stripe

import (
	"net/http"
	"time"

	//revive:disable:import-alias-naming
	stripeapi "github.com/stripe/stripe-go/v81"
	stripePortalSession "github.com/stripe/stripe-go/v81/billingportal/session"
	stripeCheckoutSession "github.com/stripe/stripe-go/v81/checkout/session"
	stripeCustomer "github.com/stripe/stripe-go/v81/customer"
	stripeWebhook "github.com/stripe/stripe-go/v81/webhook"

	"github.com/lumeapp/payments-backend/db"
)

// Client wraps the Stripe API client with additional functionality
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new Stripe client with the given configuration
func NewClient(config *Config) *Client {
	stripeapi.Key = config.APIKey

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ValidateWebhookEvent validates and parses a webhook event
func (c *Client) ValidateWebhookEvent(payload []byte, signatureHeader string) (*stripeapi.Event, error) {
	event, err := stripeWebhook.ConstructEvent(payload, signatureHeader, c.config.WebhookSecret)
	if err != nil {
		return nil, NewStripeError(CodeWebhookValidation, "webhook signature validation failed", err)
	}
	return &event, nil
}

// GetCustomer retrieves a customer by ID
func (*Client) GetCustomer(customerID string) (*stripeapi.Customer, error) {
	params := &stripeapi.CustomerParams{}
	customer, err := stripeCustomer.Get(customerID, params)
	if err != nil {
		return nil, NewStripeError(CodeAPICallFailed, "failed to get customer", err)
	}
	return customer, nil
}

// CheckoutSessionRequest holds the caller-provided parameters for creating a
// checkout session.
type CheckoutSessionRequest struct {
	UserID        string
	Plan          db.Tier
	CustomerEmail string
	SkipTrial     bool
}

// buildCheckoutSessionParams assembles the Stripe checkout session parameters
// for the requested plan. Recurring plans get subscription mode and a trial
// period, one-time plans get payment mode. The user ID and plan are stamped
// into the session metadata so the webhook reconciler never has to guess who
// a session belongs to.
// Overview of stripe checkout mechanics: https://docs.stripe.com/checkout/quickstart
// API description https://docs.stripe.com/api/checkout/sessions
func buildCheckoutSessionParams(config *Config, req *CheckoutSessionRequest) *stripeapi.CheckoutSessionParams {
	metadata := map[string]string{
		"userId": req.UserID,
		"plan":   string(req.Plan),
	}

	checkoutParams := &stripeapi.CheckoutSessionParams{
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				Price:    stripeapi.String(config.PriceID(req.Plan)),
				Quantity: stripeapi.Int64(1),
			},
		},
		// The URLs are used to redirect the user after the payment flow
		SuccessURL: stripeapi.String(config.WebAppURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripeapi.String(config.WebAppURL + "/payment/cancel"),
	}

	switch req.Plan {
	case db.TierLifetime:
		// One-time payment, no subscription object is ever created
		checkoutParams.Mode = stripeapi.String(string(stripeapi.CheckoutSessionModePayment))
	default:
		checkoutParams.Mode = stripeapi.String(string(stripeapi.CheckoutSessionModeSubscription))
		checkoutParams.SubscriptionData = &stripeapi.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		}
		if !req.SkipTrial {
			checkoutParams.SubscriptionData.TrialPeriodDays = stripeapi.Int64(config.TrialPeriodDays)
		}
	}

	if req.CustomerEmail != "" {
		checkoutParams.CustomerEmail = stripeapi.String(req.CustomerEmail)
	}

	// Session-level metadata travels on the checkout.session.completed event
	for k, v := range metadata {
		checkoutParams.AddMetadata(k, v)
	}

	return checkoutParams
}

// CreateCheckoutSession creates a new checkout session for the requested
// plan. Returns the created checkout session and any error encountered.
func (c *Client) CreateCheckoutSession(req *CheckoutSessionRequest) (*stripeapi.CheckoutSession, error) {
	session, err := stripeCheckoutSession.New(buildCheckoutSessionParams(c.config, req))
	if err != nil {
		return nil, NewStripeError(CodeAPICallFailed, "failed to create checkout session", err)
	}
	return session, nil
}

// CreatePortalSession creates a billing portal session for a customer
func (c *Client) CreatePortalSession(customerID string) (*stripeapi.BillingPortalSession, error) {
	params := &stripeapi.BillingPortalSessionParams{
		Customer:  stripeapi.String(customerID),
		ReturnURL: stripeapi.String(c.config.WebAppURL),
	}

	session, err := stripePortalSession.New(params)
	if err != nil {
		return nil, NewStripeError(CodeAPICallFailed, "failed to create portal session", err)
	}
	return session, nil
}
