package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(checkoutSessions) }

// result: created|misconfigured|invalid|rate_limited|error
var checkoutSessions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Hosted checkout initiations by provider, plan and result.",
	},
	[]string{"provider", "plan", "result"},
)

func IncCheckout(provider, plan, result string) {
	checkoutSessions.WithLabelValues(norm(provider), norm(plan), norm(result)).Inc()
}
