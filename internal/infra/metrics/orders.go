package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(ordersTotal, ordersRevenueTotal)
}

var (
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Materialized orders by status.",
		},
		[]string{"status"},
	)

	ordersRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_revenue_cents_total",
			Help: "Total captured revenue in cents, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncOrder(status string) {
	ordersTotal.WithLabelValues(norm(status)).Inc()
}

func AddOrderRevenue(currency string, amountCents int64) {
	ordersRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amountCents))
}
