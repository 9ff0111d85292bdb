// Package api provides the HTTP API for the payments backend.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumeapp/payments-backend/db"
	"github.com/lumeapp/payments-backend/log"
	"github.com/lumeapp/payments-backend/stripe"
)

// Config holds the dependencies and listen address for the API server.
type Config struct {
	Host      string
	Port      int
	WebAppURL string
	DB        *db.MongoStorage
	Stripe    *stripe.Service
}

// API type represents the API HTTP server.
type API struct {
	db        *db.MongoStorage
	stripe    *StripeHandlers
	host      string
	port      int
	webAppURL string
	router    *chi.Mux
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *Config) *API {
	if conf == nil {
		return nil
	}
	return &API{
		db:        conf.DB,
		stripe:    NewStripeHandlers(conf.Stripe),
		host:      conf.Host,
		port:      conf.Port,
		webAppURL: conf.WebAppURL,
	}
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", a.host, a.port), a.initRouter()); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
}

// Router returns the fully wired router, building it on first use. Exposed
// for tests that drive the API with httptest.
func (a *API) Router() http.Handler {
	if a.router == nil {
		a.initRouter()
	}
	return a.router
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() http.Handler {
	// Create the router with a basic middleware stack
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{a.webAppURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.Timeout(45 * time.Second))

	log.Infow("new route", "method", "GET", "path", healthEndpoint)
	r.Get(healthEndpoint, a.healthHandler)
	// start a checkout flow with the payment processor
	log.Infow("new route", "method", "POST", "path", checkoutSessionEndpoint)
	r.Post(checkoutSessionEndpoint, a.stripe.CreateCheckoutSession)
	// open the processor's self-service billing portal
	log.Infow("new route", "method", "POST", "path", portalSessionEndpoint)
	r.Post(portalSessionEndpoint, a.stripe.CreatePortalSession)
	// handle stripe webhook
	log.Infow("new route", "method", "POST", "path", webhookEndpoint)
	r.Post(webhookEndpoint, a.stripe.HandleWebhook)
	// prometheus metrics
	log.Infow("new route", "method", "GET", "path", metricsEndpoint)
	r.Get(metricsEndpoint, promhttp.Handler().ServeHTTP)

	a.router = r
	return r
}

// healthHandler reports liveness only.
func (*API) healthHandler(w http.ResponseWriter, _ *http.Request) {
	httpWriteJSON(w, &struct {
		Status string `json:"status"`
		Time   string `json:"time"`
	}{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
