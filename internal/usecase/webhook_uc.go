// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"skyline-store/internal/domain"
	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/repository"
	"skyline-store/internal/infra/logging"
	"skyline-store/internal/infra/metrics"
)

// Event types the processor sends that we act on. Everything else is
// acknowledged untouched so the processor never retry-storms us over
// events we do not care about.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventPaymentFailed     = "payment_intent.payment_failed"
)

// WebhookEvent is the parsed, signature-verified event handed in by the
// web layer.
type WebhookEvent struct {
	ID   string
	Type string
	Data WebhookEventData
}

type WebhookEventData struct {
	SessionID       string // processor-side session id
	PaymentIntentID string
	PaymentMethod   string
}

// Outcome tells the handler how the event was resolved. Processed,
// duplicate and ignored all answer 2xx; only errors drive redelivery.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

type WebhookUseCase interface {
	Handle(ctx context.Context, ev WebhookEvent) (Outcome, error)
}

type webhookUC struct {
	sessions repository.PaymentSessionRepository
	coupons  repository.CouponRepository
	orderUC  OrderUseCase
	notifUC  NotificationUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewWebhookUseCase(
	sessions repository.PaymentSessionRepository,
	coupons repository.CouponRepository,
	orderUC OrderUseCase,
	notifUC NotificationUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *webhookUC {
	compLog := logger.With().Str("component", "WebhookUC").Logger()
	return &webhookUC{
		sessions: sessions,
		coupons:  coupons,
		orderUC:  orderUC,
		notifUC:  notifUC,
		tm:       tm,
		log:      &compLog,
	}
}

func (u *webhookUC) Handle(ctx context.Context, ev WebhookEvent) (Outcome, error) {
	defer logging.TraceDuration(u.log, "WebhookUC.Handle")()
	ctx = logging.WithEventID(ctx, ev.ID)

	var target model.SessionStatus
	switch ev.Type {
	case EventCheckoutCompleted:
		target = model.SessionStatusCompleted
	case EventCheckoutExpired:
		target = model.SessionStatusExpired
	case EventPaymentFailed:
		target = model.SessionStatusFailed
	default:
		return OutcomeIgnored, nil
	}

	sess, err := u.sessions.FindByExternalID(ctx, nil, ev.Data.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// A session we never recorded. Redelivery cannot fix this, so
			// acknowledge instead of asking the processor to retry forever.
			u.log.Warn().
				Str("event_id", ev.ID).
				Str("event_type", ev.Type).
				Str("external_session_id", ev.Data.SessionID).
				Msg("event for unknown session ignored")
			return OutcomeIgnored, nil
		}
		return "", err
	}
	ctx = logging.WithSessID(ctx, sess.ID)

	// Fast duplicate path. The authoritative guards are the CAS terminal
	// transition below and the materializer's own existence check.
	if sess.Status.Terminal() {
		return OutcomeDuplicate, nil
	}

	if target != model.SessionStatusCompleted {
		ok, err := u.sessions.MarkTerminal(ctx, nil, sess.ID, target)
		if err != nil {
			return "", err
		}
		if !ok {
			return OutcomeDuplicate, nil
		}
		logging.With(ctx, u.log).Info().Str("event_type", ev.Type).Str("status", string(target)).Msg("session closed")
		return OutcomeProcessed, nil
	}

	return u.handleCompleted(ctx, ev, sess)
}

// handleCompleted runs the fulfillment pipeline in one transaction:
// materialize the order, claim a license, burn the coupon, enqueue the
// notifications, and only then flip the session to completed. A crash
// anywhere rolls the whole step back and redelivery re-enters safely
// through the materializer's existence check.
func (u *webhookUC) handleCompleted(ctx context.Context, ev WebhookEvent, sess *model.PaymentSession) (Outcome, error) {
	outcome := OutcomeProcessed
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		order, created, err := u.orderUC.Materialize(ctx, tx, sess, ev.Data.PaymentMethod, ev.Data.PaymentIntentID)
		if err != nil {
			return err
		}
		ctx = logging.WithOrderID(ctx, order.ID)
		if !created {
			// A previous delivery got further than the session row shows.
			// Everything after materialization already happened then.
			outcome = OutcomeDuplicate
			_, err := u.sessions.MarkTerminal(ctx, tx, sess.ID, model.SessionStatusCompleted)
			return err
		}

		licenseKey := ""
		outOfStock := false
		lic, err := u.orderUC.AllocateLicense(ctx, tx, order)
		switch {
		case err == nil:
			licenseKey = lic.KeyValue
		case errors.Is(err, domain.ErrOutOfStock):
			outOfStock = true
		default:
			return err
		}

		if sess.CouponCode != nil {
			u.redeemCoupon(ctx, tx, *sess.CouponCode)
		}

		if err := u.notifUC.EnqueueOrderNotifications(ctx, tx, order, licenseKey, outOfStock); err != nil {
			return err
		}

		_, err = u.sessions.MarkTerminal(ctx, tx, sess.ID, model.SessionStatusCompleted)
		return err
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// redeemCoupon burns one use. Exhaustion, deactivation and unknown codes
// are logged and absorbed: the payment is already captured, so a coupon
// problem never fails the order.
func (u *webhookUC) redeemCoupon(ctx context.Context, tx repository.Tx, code string) {
	log := logging.With(ctx, u.log)
	_, err := u.coupons.RedeemOnce(ctx, tx, code)
	switch {
	case err == nil:
		metrics.IncCouponRedemption("redeemed")
	case errors.Is(err, domain.ErrCouponExhausted):
		metrics.IncCouponRedemption("exhausted")
		log.Warn().Str("coupon", code).Msg("coupon already at max uses, order keeps its discount")
	case errors.Is(err, domain.ErrCouponInactive):
		metrics.IncCouponRedemption("inactive")
		log.Warn().Str("coupon", code).Msg("coupon inactive at redemption time")
	case errors.Is(err, domain.ErrNotFound):
		metrics.IncCouponRedemption("not_found")
		log.Warn().Str("coupon", code).Msg("coupon vanished before redemption")
	default:
		// Infra errors on the ledger are also absorbed; the counter can
		// drift low but the captured payment must not bounce for it.
		log.Error().Err(err).Str("coupon", code).Msg("coupon redemption failed")
	}
}
