package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(notificationJobsTotal, notificationSendSeconds)
}

var (
	notificationJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_jobs_total",
			Help: "Notification job deliveries by channel and status (sent/retried/failed).",
		},
		[]string{"channel", "status"},
	)

	notificationSendSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_send_seconds",
			Help:    "Latency of external delivery attempts.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"channel"},
	)
)

func IncNotificationJob(channel, status string) {
	notificationJobsTotal.WithLabelValues(norm(channel), norm(status)).Inc()
}

func ObserveNotificationSend(channel string, seconds float64) {
	notificationSendSeconds.WithLabelValues(norm(channel)).Observe(seconds)
}
