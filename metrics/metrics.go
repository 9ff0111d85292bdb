// Package metrics exposes the Prometheus instrumentation for the payments
// service. Counters are registered on the default registry and served by the
// API's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEvents counts verified webhook deliveries by event type.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_webhook_events_total",
		Help: "Verified webhook events received, by event type.",
	}, []string{"type"})

	// WebhookSignatureFailures counts deliveries rejected at the signature
	// check. A sustained rise here points at a forged-request attempt or a
	// misconfigured signing secret, which is why it is kept separate from
	// store failures.
	WebhookSignatureFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_webhook_signature_failures_total",
		Help: "Webhook deliveries rejected due to an invalid signature.",
	})

	// WebhookInvalidEvents counts verified events whose payload could not be
	// mapped to a subscription mutation.
	WebhookInvalidEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_webhook_invalid_events_total",
		Help: "Verified webhook events with an unusable payload.",
	})

	// WebhookStoreFailures counts datastore errors during reconciliation.
	// These trigger a 5xx so the processor redelivers the event.
	WebhookStoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_webhook_store_failures_total",
		Help: "Datastore failures while applying a webhook event.",
	})

	// PaymentsRecorded counts payment event rows appended, by payment type.
	PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Payment events recorded, by payment type.",
	}, []string{"type"})
)
