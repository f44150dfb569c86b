package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		webhookRequests,
		webhookDuration,
		replayClaims,
		reconcileOutcomes,
		persistenceFailures,
	)
}

var (
	// result: processed|duplicate|ignored|unverified|bad_request|misconfigured|persistence_error
	webhookRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_requests_total",
			Help: "Count of /api/payment-webhook calls by provider and result.",
		},
		[]string{"provider", "result"},
	)

	webhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_webhook_duration_seconds",
			Help:    "Duration of /api/payment-webhook handling in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"provider", "result"},
	)

	// result: claimed|duplicate|error
	replayClaims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_replay_claims_total",
			Help: "Replay ledger claims by result.",
		},
		[]string{"result"},
	)

	// outcome: applied|duplicate|skipped|amount_mismatch|not_found|error
	reconcileOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_reconcile_total",
			Help: "Order reconciliation outcomes by provider.",
		},
		[]string{"provider", "outcome"},
	)

	persistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_persistence_failures_total",
			Help: "Verified webhooks whose order update could not be stored.",
		},
		[]string{"provider"},
	)
)

func ObserveWebhook(provider, result string, d time.Duration) {
	webhookRequests.WithLabelValues(norm(provider), norm(result)).Inc()
	webhookDuration.WithLabelValues(norm(provider), norm(result)).Observe(d.Seconds())
}

func IncReplayClaim(result string) {
	replayClaims.WithLabelValues(norm(result)).Inc()
}

func IncReconcile(provider, outcome string) {
	reconcileOutcomes.WithLabelValues(norm(provider), norm(outcome)).Inc()
}

func IncPersistenceFailure(provider string) {
	persistenceFailures.WithLabelValues(norm(provider)).Inc()
}
