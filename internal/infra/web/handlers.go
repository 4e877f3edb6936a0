// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"skyline-store/internal/domain"
	"skyline-store/internal/infra/metrics"
	"skyline-store/internal/infra/payment"
	"skyline-store/internal/usecase"
)

const maxWebhookBody = 1 << 20 // processors send small events; cap at 1 MiB

// signatureHeader carries the hex HMAC-SHA256 of the raw request body.
const signatureHeader = "X-Skyline-Signature"

type webhookEventRequest struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		SessionID       string `json:"session_id"`
		PaymentIntentID string `json:"payment_intent_id"`
		PaymentMethod   string `json:"payment_method"`
	} `json:"data"`
}

// handleWebhook is the processor-facing entry point. Responses drive the
// processor's retry policy: 2xx stops redelivery, anything else asks for
// another attempt, which is safe because the pipeline is idempotent.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { metrics.ObserveWebhookHandle(time.Since(start).Seconds()) }()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	if !payment.VerifySignature(s.webhookSecret, body, r.Header.Get(signatureHeader)) {
		metrics.IncWebhookEvent("unknown", "rejected")
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature rejected")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var req webhookEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		metrics.IncWebhookEvent("unknown", "rejected")
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.Type == "" || req.Data.SessionID == "" {
		metrics.IncWebhookEvent(req.Type, "rejected")
		http.Error(w, "Missing event fields", http.StatusBadRequest)
		return
	}

	outcome, err := s.webhookUC.Handle(r.Context(), usecase.WebhookEvent{
		ID:   req.ID,
		Type: req.Type,
		Data: usecase.WebhookEventData{
			SessionID:       req.Data.SessionID,
			PaymentIntentID: req.Data.PaymentIntentID,
			PaymentMethod:   req.Data.PaymentMethod,
		},
	})
	if err != nil {
		metrics.IncWebhookEvent(req.Type, "error")
		s.log.Error().Err(err).Str("event_id", req.ID).Str("event_type", req.Type).Msg("webhook processing failed")
		http.Error(w, "Processing failed", http.StatusInternalServerError)
		return
	}

	metrics.IncWebhookEvent(req.Type, string(outcome))
	writeJSON(w, http.StatusOK, map[string]any{
		"received": true,
		"outcome":  string(outcome),
	})
}

type checkoutRequest struct {
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	ProductID  string  `json:"product_id"`
	Duration   string  `json:"duration"`
	Quantity   int     `json:"quantity"`
	CouponCode *string `json:"coupon_code"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.checkoutUC.Start(r.Context(), usecase.CheckoutInput{
		Email:      req.Email,
		Name:       req.Name,
		ProductID:  req.ProductID,
		Duration:   req.Duration,
		Quantity:   req.Quantity,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrValidation):
			http.Error(w, "Invalid checkout request", http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Unknown product, price or coupon", http.StatusNotFound)
		case errors.Is(err, domain.ErrCouponInactive), errors.Is(err, domain.ErrCouponExhausted):
			http.Error(w, "Coupon cannot be applied", http.StatusUnprocessableEntity)
		default:
			http.Error(w, "Failed to start checkout", http.StatusInternalServerError)
		}
		return
	}

	token, err := s.auth.MintOrderToken(res.Session.ID)
	if err != nil {
		http.Error(w, "Failed to mint status token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":          res.Session.ID,
		"external_session_id": res.Session.ExternalSessionID,
		"subtotal_cents":      res.Session.SubtotalCents,
		"discount_cents":      res.DiscountCents,
		"total_cents":         res.Session.TotalCents,
		"currency":            res.Session.Currency,
		"status_token":        token,
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.checkoutUC.ListProducts(r.Context())
	if err != nil {
		http.Error(w, "Failed to list products", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": products})
}

type validateCouponRequest struct {
	Code          string `json:"code"`
	SubtotalCents int64  `json:"subtotal_cents"`
}

func (s *Server) handleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	coupon, discount, err := s.couponUC.Validate(r.Context(), req.Code, req.SubtotalCents)
	if err != nil {
		// The response deliberately does not distinguish unknown from
		// inactive or exhausted codes.
		switch {
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrCouponInactive),
			errors.Is(err, domain.ErrCouponExhausted):
			writeJSON(w, http.StatusOK, map[string]any{"valid": false})
		default:
			http.Error(w, "Failed to validate coupon", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":          true,
		"code":           coupon.Code,
		"discount_type":  coupon.DiscountType,
		"discount_value": coupon.DiscountValue,
		"discount_cents": discount,
	})
}

// handleOrderStatus serves the customer status page. Authorization is the
// per-session JWT minted at checkout, passed as a bearer token or the
// `token` query parameter (email links use the latter).
func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		if hdr := r.Header.Get("Authorization"); len(hdr) > 7 {
			tok = hdr[7:]
		}
	}
	claims, err := s.auth.ParseOrderToken(tok)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	order, license, err := s.orderUC.StatusBySession(r.Context(), claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Session exists but the webhook has not landed yet.
			writeJSON(w, http.StatusOK, map[string]any{"status": "pending"})
			return
		}
		http.Error(w, "Failed to get order status", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"status":       string(order.Status),
		"order_number": order.OrderNumber,
		"product_name": order.ProductName,
		"duration":     order.Duration,
		"amount_cents": order.AmountCents,
		"currency":     order.Currency,
	}
	if license != nil {
		resp["license_key"] = license.KeyValue
	} else if order.NeedsFulfillment {
		resp["license_pending"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnfulfilledOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	orders, err := s.orderUC.ListNeedingFulfillment(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to list orders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": orders})
}

func (s *Server) handleFailedNotifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	jobs, err := s.notifUC.ListTerminallyFailed(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to list notification jobs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": jobs})
}

func (s *Server) handleRefundOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}
	if err := s.orderUC.MarkRefunded(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to mark refund", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
