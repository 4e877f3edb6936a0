// File: internal/usecase/notification_uc.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"skyline-store/internal/domain"
	"skyline-store/internal/domain/model"
	"skyline-store/internal/domain/ports/adapter"
	"skyline-store/internal/domain/ports/repository"
	"skyline-store/internal/infra/logging"
	"skyline-store/internal/infra/metrics"
	"skyline-store/internal/infra/worker"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// stuckClaimAge is how long a processing claim may sit before the sweep
// treats its worker as dead. Long enough that no live delivery attempt,
// however slow, still holds the claim.
const stuckClaimAge = 5 * time.Minute

type NotificationUseCase interface {
	// EnqueueOrderNotifications creates the receipt email job and the ops
	// chat job for an order, payloads rendered now. Called inside the
	// webhook transaction so jobs commit together with the order.
	EnqueueOrderNotifications(ctx context.Context, tx repository.Tx, o *model.Order, licenseKey string, outOfStock bool) error
	// DeliverBatch claims up to batchSize pending jobs and attempts
	// delivery. Returns how many were sent and how many failed this pass.
	DeliverBatch(ctx context.Context) (sent, failed int, err error)
	// RecoverStuck requeues jobs whose claiming worker died before
	// writing an outcome, so they re-enter delivery instead of sitting
	// in processing forever.
	RecoverStuck(ctx context.Context) (int, error)
	ListByOrderID(ctx context.Context, orderID string) ([]*model.NotificationJob, error)
	ListTerminallyFailed(ctx context.Context, limit int) ([]*model.NotificationJob, error)
}

type notificationUC struct {
	jobs        repository.NotificationJobRepository
	mailer      adapter.Mailer
	chat        adapter.ChatNotifier
	pool        *worker.Pool
	batchSize   int
	maxAttempts int
	log         *zerolog.Logger
}

func NewNotificationUseCase(
	jobs repository.NotificationJobRepository,
	mailer adapter.Mailer,
	chat adapter.ChatNotifier,
	pool *worker.Pool,
	batchSize, maxAttempts int,
	logger *zerolog.Logger,
) *notificationUC {
	compLog := logger.With().Str("component", "NotificationUC").Logger()
	if batchSize <= 0 {
		batchSize = 10
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &notificationUC{
		jobs:        jobs,
		mailer:      mailer,
		chat:        chat,
		pool:        pool,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		log:         &compLog,
	}
}

func (u *notificationUC) EnqueueOrderNotifications(ctx context.Context, tx repository.Tx, o *model.Order, licenseKey string, outOfStock bool) error {
	subject, html, err := RenderReceiptEmail(o, licenseKey)
	if err != nil {
		return err
	}
	emailJob, err := model.NewNotificationJob(o.ID, model.ChannelEmail, o.CustomerEmail, subject, html)
	if err != nil {
		return err
	}
	if err := u.jobs.Save(ctx, tx, emailJob); err != nil {
		return err
	}
	metrics.IncNotificationJob(string(model.ChannelEmail), "enqueued")

	embed, err := RenderSaleAlert(o, outOfStock)
	if err != nil {
		return err
	}
	chatJob, err := model.NewNotificationJob(o.ID, model.ChannelChat, "", "", embed)
	if err != nil {
		return err
	}
	if err := u.jobs.Save(ctx, tx, chatJob); err != nil {
		return err
	}
	metrics.IncNotificationJob(string(model.ChannelChat), "enqueued")
	return nil
}

func (u *notificationUC) DeliverBatch(ctx context.Context) (int, int, error) {
	batch, err := u.jobs.ClaimBatch(ctx, u.batchSize)
	if err != nil {
		return 0, 0, err
	}
	if len(batch) == 0 {
		return 0, 0, nil
	}

	// Fan out over the shared sender pool. Each job's outcome is written
	// back individually so a slow channel never blocks the others' results.
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		sentN   int
		failedN int
	)
	for _, job := range batch {
		job := job
		wg.Add(1)
		err := u.pool.Submit(ctx, func(ctx context.Context) error {
			defer wg.Done()
			ok := u.deliverOne(ctx, job)
			mu.Lock()
			if ok {
				sentN++
			} else {
				failedN++
			}
			mu.Unlock()
			return nil
		})
		if err != nil {
			// Pool shutting down mid-batch. The claimed jobs stay in
			// processing until the stuck-claim sweep requeues them.
			wg.Done()
			mu.Lock()
			failedN++
			mu.Unlock()
		}
	}
	wg.Wait()

	return sentN, failedN, nil
}

func (u *notificationUC) deliverOne(ctx context.Context, job *model.NotificationJob) bool {
	start := time.Now()
	var sendErr error
	switch job.Channel {
	case model.ChannelEmail:
		sendErr = u.mailer.Send(ctx, job.Recipient, job.Subject, job.Payload)
	case model.ChannelChat:
		sendErr = u.chat.Post(ctx, job.Payload)
	default:
		sendErr = domain.ErrInvalidArgument
	}
	metrics.ObserveNotificationSend(string(job.Channel), time.Since(start).Seconds())

	if sendErr != nil {
		u.log.Warn().Err(sendErr).
			Str("job_id", job.ID).
			Str("order_id", job.OrderID).
			Str("channel", string(job.Channel)).
			Str("recipient", logging.Redact(job.Recipient, false)).
			Int("attempt", job.Attempts+1).
			Msg("notification delivery failed")
		if err := u.jobs.MarkFailed(ctx, nil, job.ID, sendErr.Error(), u.maxAttempts); err != nil {
			u.log.Error().Err(err).Str("job_id", job.ID).Msg("mark failed write error")
		}
		metrics.IncNotificationJob(string(job.Channel), "failed_attempt")
		return false
	}

	if err := u.jobs.MarkSent(ctx, nil, job.ID); err != nil {
		u.log.Error().Err(err).Str("job_id", job.ID).Msg("mark sent write error")
		return false
	}
	metrics.IncNotificationJob(string(job.Channel), "sent")
	return true
}

func (u *notificationUC) RecoverStuck(ctx context.Context) (int, error) {
	n, err := u.jobs.RequeueProcessing(ctx, nil, stuckClaimAge)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.log.Warn().Int("requeued", n).Msg("recovered jobs stranded in processing")
	}
	return n, nil
}

func (u *notificationUC) ListByOrderID(ctx context.Context, orderID string) ([]*model.NotificationJob, error) {
	return u.jobs.ListByOrderID(ctx, nil, orderID)
}

func (u *notificationUC) ListTerminallyFailed(ctx context.Context, limit int) ([]*model.NotificationJob, error) {
	return u.jobs.ListTerminallyFailed(ctx, nil, limit)
}
