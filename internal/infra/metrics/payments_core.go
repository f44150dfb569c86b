package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Order transitions applied from verified webhooks, by provider and status (paid/failed).",
		},
		[]string{"provider", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_minor_total",
			Help: "Minor currency units of paid orders, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncPayment(provider, status string) {
	paymentsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amountMinor int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amountMinor))
}
