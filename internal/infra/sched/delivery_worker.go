// File: internal/infra/sched/delivery_worker.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"skyline-store/internal/usecase"
)

// DeliveryWorker drains the notification queue on a fixed interval.
// Multiple instances are safe: batch claiming is a conditional update,
// so two workers never hold the same job.
type DeliveryWorker struct {
	interval time.Duration
	notifUC  usecase.NotificationUseCase
	log      *zerolog.Logger
}

func NewDeliveryWorker(interval time.Duration, notifUC usecase.NotificationUseCase, logger *zerolog.Logger) *DeliveryWorker {
	compLog := logger.With().Str("component", "DeliveryWorker").Logger()
	return &DeliveryWorker{
		interval: interval,
		notifUC:  notifUC,
		log:      &compLog,
	}
}

func (w *DeliveryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting delivery worker")
	// Run once on startup, then on every tick
	w.drain(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping delivery worker")
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain runs one bounded delivery pass. Failed jobs go back to pending
// and wait for the next tick, which is what spaces retries out. Each
// pass first sweeps claims stranded by a dead worker back into the
// queue.
func (w *DeliveryWorker) drain(ctx context.Context) {
	if n, err := w.notifUC.RecoverStuck(ctx); err != nil {
		w.log.Error().Err(err).Msg("stuck-claim sweep failed")
	} else if n > 0 {
		w.log.Info().Int("requeued", n).Msg("requeued stranded jobs")
	}

	sent, failed, err := w.notifUC.DeliverBatch(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("delivery pass failed")
		return
	}
	if sent > 0 || failed > 0 {
		w.log.Info().Int("sent", sent).Int("failed", failed).Msg("delivery pass done")
	}
}
