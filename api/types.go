package api

// CheckoutRequest is the request to start a checkout flow.
type CheckoutRequest struct {
	Plan      string `json:"plan"`
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	SkipTrial bool   `json:"skipTrial,omitempty"`
}

// PortalRequest is the request to open a billing portal session.
type PortalRequest struct {
	CustomerID string `json:"customerId"`
}

// SessionResponse carries the processor-issued redirect URL.
type SessionResponse struct {
	URL string `json:"url"`
}

// WebhookResponse acknowledges a processed webhook delivery.
type WebhookResponse struct {
	Received bool `json:"received"`
}
