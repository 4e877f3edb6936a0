// File: internal/infra/web/server.go
package web

import (
	"crypto/subtle"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"skyline-store/internal/infra/redis"
	"skyline-store/internal/usecase"
)

// validateRateLimit throttles the public coupon endpoint per client IP.
const (
	validateRateLimit  = 10
	validateRateWindow = time.Minute
)

type Server struct {
	webhookUC     usecase.WebhookUseCase
	checkoutUC    usecase.CheckoutUseCase
	couponUC      usecase.CouponUseCase
	orderUC       usecase.OrderUseCase
	notifUC       usecase.NotificationUseCase
	auth          *AuthManager
	limiter       *redis.RateLimiter
	webhookSecret string
	opsAPIKey     string
	log           *zerolog.Logger
}

func NewServer(
	webhookUC usecase.WebhookUseCase,
	checkoutUC usecase.CheckoutUseCase,
	couponUC usecase.CouponUseCase,
	orderUC usecase.OrderUseCase,
	notifUC usecase.NotificationUseCase,
	auth *AuthManager,
	limiter *redis.RateLimiter,
	webhookSecret, opsAPIKey string,
	logger *zerolog.Logger,
) *Server {
	compLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		webhookUC:     webhookUC,
		checkoutUC:    checkoutUC,
		couponUC:      couponUC,
		orderUC:       orderUC,
		notifUC:       notifUC,
		auth:          auth,
		limiter:       limiter,
		webhookSecret: webhookSecret,
		opsAPIKey:     opsAPIKey,
		log:           &compLog,
	}
}

// Routes builds the full router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/payment", s.handleWebhook)

		r.Post("/checkout", s.handleCheckout)
		r.Get("/products", s.handleListProducts)
		r.With(s.rateLimit("coupon_validate")).Post("/coupons/validate", s.handleValidateCoupon)
		r.Get("/orders/status", s.handleOrderStatus)

		r.Post("/ops/login", s.handleOpsLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.opsAuth)
			r.Get("/ops/orders/unfulfilled", s.handleUnfulfilledOrders)
			r.Get("/ops/notifications/failed", s.handleFailedNotifications)
			r.Post("/ops/orders/{id}/refund", s.handleRefundOrder)
		})
	})
	return r
}

// rateLimit applies the Redis fixed-window limiter per client IP. A
// limiter outage fails open: losing throttling beats losing checkout.
func (s *Server) rateLimit(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := redis.ClientRouteKey(ip, route)
			allowed, err := s.limiter.Allow(r.Context(), key, validateRateLimit, validateRateWindow)
			if err != nil {
				s.log.Warn().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// opsAuth guards the operator surface with the minted JWT.
func (s *Server) opsAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil || claims.Role != "ops" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleOpsLogin exchanges the configured ops API key for a short-lived
// JWT cookie plus bearer token.
func (s *Server) handleOpsLogin(w http.ResponseWriter, r *http.Request) {
	if s.opsAPIKey == "" {
		s.log.Error().Msg("Ops API key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	key := r.Header.Get("X-Api-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.opsAPIKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to mint token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
