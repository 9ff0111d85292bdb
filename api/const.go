package api

const (
	// healthEndpoint is the route for the liveness check
	// GET /health
	healthEndpoint = "/health"
	// checkoutSessionEndpoint is the route to start a checkout flow
	// POST /create-checkout-session
	checkoutSessionEndpoint = "/create-checkout-session"
	// portalSessionEndpoint is the route to open the billing portal
	// POST /create-portal-session
	portalSessionEndpoint = "/create-portal-session"
	// webhookEndpoint is the route the payment processor delivers events to
	// POST /webhook
	webhookEndpoint = "/webhook"
	// metricsEndpoint is the route serving prometheus metrics
	// GET /metrics
	metricsEndpoint = "/metrics"
)
