package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(webhookEventsTotal, webhookHandleSeconds)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Processor webhook deliveries by event type and outcome.",
		},
		[]string{"type", "outcome"}, // outcome: processed|duplicate|ignored|rejected|error
	)

	webhookHandleSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_handle_seconds",
			Help:    "Wall time spent handling one webhook delivery.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

func IncWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(outcome)).Inc()
}

func ObserveWebhookHandle(seconds float64) {
	webhookHandleSeconds.Observe(seconds)
}
