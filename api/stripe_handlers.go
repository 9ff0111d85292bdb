package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/mail"
	"strings"

	"github.com/lumeapp/payments-backend/db"
	"github.com/lumeapp/payments-backend/errors"
	"github.com/lumeapp/payments-backend/log"
	"github.com/lumeapp/payments-backend/stripe"
)

// MaxBodyBytes bounds webhook payload size before signature verification.
const MaxBodyBytes = int64(65536)

// StripeHandlers contains the Stripe service and handles HTTP requests
type StripeHandlers struct {
	service *stripe.Service
}

// NewStripeHandlers creates new Stripe HTTP handlers
func NewStripeHandlers(service *stripe.Service) *StripeHandlers {
	return &StripeHandlers{
		service: service,
	}
}

// CreateCheckoutSession starts a checkout flow for the requested plan and
// returns the processor-issued redirect URL.
func (h *StripeHandlers) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		errors.ErrStripeError.Withf("Stripe service not available").Write(w)
		return
	}

	req := &CheckoutRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}

	var missing []string
	if req.Plan == "" {
		missing = append(missing, "plan")
	}
	if req.UserID == "" {
		missing = append(missing, "userId")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		errors.ErrMissingField.Withf("missing required fields: %s", strings.Join(missing, ", ")).Write(w)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errors.ErrEmailMalformed.Write(w)
		return
	}
	if !db.IsPurchasableTier(db.Tier(req.Plan)) {
		errors.ErrInvalidPlan.Withf("unknown plan %q", req.Plan).Write(w)
		return
	}

	session, err := h.service.CreateCheckoutSession(&stripe.CheckoutSessionRequest{
		UserID:        req.UserID,
		Plan:          db.Tier(req.Plan),
		CustomerEmail: req.Email,
		SkipTrial:     req.SkipTrial,
	})
	if err != nil {
		log.Errorf("failed to create checkout session: %v", err)
		errors.ErrStripeError.Withf("Cannot create session: %v", err).Write(w)
		return
	}

	httpWriteJSON(w, &SessionResponse{URL: session.URL})
}

// CreatePortalSession opens the processor's self-service billing portal for
// an existing customer.
func (h *StripeHandlers) CreatePortalSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		errors.ErrStripeError.Withf("Stripe service not available").Write(w)
		return
	}

	req := &PortalRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if req.CustomerID == "" {
		errors.ErrMissingField.Withf("missing required fields: customerId").Write(w)
		return
	}

	session, err := h.service.CreatePortalSession(req.CustomerID)
	if err != nil {
		log.Errorf("failed to create portal session: %v", err)
		errors.ErrStripeError.Withf("Cannot create customer portal session: %v", err).Write(w)
		return
	}

	httpWriteJSON(w, &SessionResponse{URL: session.URL})
}

// HandleWebhook verifies and applies a webhook delivery. The body must reach
// the service unparsed, the signature covers the raw bytes.
func (h *StripeHandlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		log.Errorf("stripe webhook: Stripe service not available")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Errorf("stripe webhook: error reading request body: %s", err.Error())
		errors.ErrWebhookPayload.Write(w)
		return
	}

	signatureHeader := r.Header.Get("Stripe-Signature")
	if signatureHeader == "" {
		log.Errorf("stripe webhook: missing Stripe-Signature header")
		errors.ErrWebhookSignature.Withf("missing Stripe-Signature header").Write(w)
		return
	}

	if err := h.service.ProcessWebhookEvent(payload, signatureHeader); err != nil {
		log.Errorf("stripe webhook: failed to process event: %v", err)

		switch stripe.ErrorCode(err) {
		case stripe.CodeWebhookValidation:
			errors.ErrWebhookSignature.Write(w)
		case stripe.CodeInvalidEvent:
			errors.ErrWebhookPayload.Write(w)
		case stripe.CodeSubscriptionNotFound:
			// Business condition, acknowledge so the processor does not
			// retry an event we can never apply
			httpWriteJSON(w, &WebhookResponse{Received: true})
		default:
			errors.ErrStripeWebhookError.Write(w)
		}
		return
	}

	httpWriteJSON(w, &WebhookResponse{Received: true})
}
