package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(couponRedemptionsTotal)
}

var couponRedemptionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "coupon_redemptions_total",
		Help: "Coupon redemption attempts by result (redeemed/exhausted/inactive/not_found).",
	},
	[]string{"result"},
)

func IncCouponRedemption(result string) {
	couponRedemptionsTotal.WithLabelValues(norm(result)).Inc()
}
