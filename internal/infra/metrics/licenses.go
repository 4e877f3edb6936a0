package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(licenseClaimsTotal, licensePoolUnused)
}

var (
	licenseClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "license_claims_total",
			Help: "License claim attempts by result (assigned/out_of_stock).",
		},
		[]string{"result"},
	)

	licensePoolUnused = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "license_pool_unused",
			Help: "Unused keys remaining per product and duration.",
		},
		[]string{"product", "duration"},
	)
)

func IncLicenseClaim(result string) {
	licenseClaimsTotal.WithLabelValues(norm(result)).Inc()
}

func SetLicensePoolUnused(product, duration string, n int) {
	licensePoolUnused.WithLabelValues(norm(product), norm(duration)).Set(float64(n))
}
