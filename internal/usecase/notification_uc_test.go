//go:build !integration

package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"skyline-store/internal/domain/model"
	"skyline-store/internal/infra/worker"
	"skyline-store/internal/usecase"
)

type notifDeps struct {
	jobs   *MockJobRepo
	mailer *MockMailer
	chat   *MockChat
	uc     usecase.NotificationUseCase
}

func newNotifDeps(t *testing.T, maxAttempts int) *notifDeps {
	t.Helper()
	logger := newTestLogger()

	d := &notifDeps{
		jobs:   NewMockJobRepo(),
		mailer: &MockMailer{},
		chat:   &MockChat{},
	}
	pool := worker.NewPool(2, logger)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	d.uc = usecase.NewNotificationUseCase(d.jobs, d.mailer, d.chat, pool, 10, maxAttempts, logger)
	return d
}

func testOrder(t *testing.T) *model.Order {
	t.Helper()
	item := model.LineItem{ProductID: "P1", ProductName: "Skyline VPN", Duration: "7d", UnitPriceCents: 2999, Quantity: 1}
	sess, err := model.NewPaymentSession("sess_1", "buyer@example.com", "Ada", item, nil, 2999, 2999, "USD")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	o, err := model.NewOrderFromSession(sess, "stripe", "pi_1")
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	return o
}

func TestNotificationUseCase_Enqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("should render both payloads at enqueue time", func(t *testing.T) {
		// --- Arrange ---
		d := newNotifDeps(t, 5)
		order := testOrder(t)

		// --- Act ---
		if err := d.uc.EnqueueOrderNotifications(ctx, nil, order, "KEY-123", false); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}

		// --- Assert ---
		jobs := d.jobs.Jobs()
		if len(jobs) != 2 {
			t.Fatalf("expected 2 jobs, got %d", len(jobs))
		}
		var email, chat *model.NotificationJob
		for _, j := range jobs {
			switch j.Channel {
			case model.ChannelEmail:
				email = j
			case model.ChannelChat:
				chat = j
			}
		}
		if email == nil || chat == nil {
			t.Fatal("expected one email job and one chat job")
		}
		if email.Recipient != order.CustomerEmail {
			t.Errorf("email recipient = %s, want %s", email.Recipient, order.CustomerEmail)
		}
		if !strings.Contains(string(email.Payload), "KEY-123") {
			t.Error("receipt should embed the license key")
		}
		if !strings.Contains(email.Subject, order.OrderNumber) {
			t.Errorf("subject %q should carry the order number", email.Subject)
		}

		var body struct {
			Embeds []struct {
				Title string `json:"title"`
			} `json:"embeds"`
		}
		if err := json.Unmarshal(chat.Payload, &body); err != nil {
			t.Fatalf("chat payload is not embed JSON: %v", err)
		}
		if len(body.Embeds) != 1 || body.Embeds[0].Title != "New sale" {
			t.Errorf("unexpected embed title: %+v", body.Embeds)
		}
	})

	t.Run("should adapt the receipt when no key was assigned", func(t *testing.T) {
		d := newNotifDeps(t, 5)
		order := testOrder(t)

		if err := d.uc.EnqueueOrderNotifications(ctx, nil, order, "", true); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		for _, j := range d.jobs.Jobs() {
			if j.Channel == model.ChannelEmail && !strings.Contains(string(j.Payload), "separate email") {
				t.Error("keyless receipt should promise a follow-up email")
			}
			if j.Channel == model.ChannelChat && !strings.Contains(string(j.Payload), "OUT OF STOCK") {
				t.Error("chat alert should flag the empty pool")
			}
		}
	})
}

func TestNotificationUseCase_DeliverBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("should deliver pending jobs and mark them sent", func(t *testing.T) {
		// --- Arrange ---
		d := newNotifDeps(t, 5)
		order := testOrder(t)
		if err := d.uc.EnqueueOrderNotifications(ctx, nil, order, "KEY-123", false); err != nil {
			t.Fatalf("enqueue: %v", err)
		}

		// --- Act ---
		sent, failed, err := d.uc.DeliverBatch(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if sent != 2 || failed != 0 {
			t.Errorf("sent=%d failed=%d, want 2/0", sent, failed)
		}
		if d.mailer.SentCount() != 1 || d.chat.PostedCount() != 1 {
			t.Errorf("mailer=%d chat=%d, want 1/1", d.mailer.SentCount(), d.chat.PostedCount())
		}
		for _, j := range d.jobs.Jobs() {
			if j.Status != model.NotificationStatusSent {
				t.Errorf("job %s status = %s, want sent", j.ID, j.Status)
			}
			if j.SentAt == nil {
				t.Errorf("job %s missing sent_at", j.ID)
			}
		}
	})

	t.Run("a failing channel should not block the other", func(t *testing.T) {
		d := newNotifDeps(t, 5)
		order := testOrder(t)
		if err := d.uc.EnqueueOrderNotifications(ctx, nil, order, "KEY-123", false); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		d.chat.PostFunc = func(ctx context.Context, payload []byte) error {
			return errors.New("webhook 500")
		}

		sent, failed, err := d.uc.DeliverBatch(ctx)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if sent != 1 || failed != 1 {
			t.Errorf("sent=%d failed=%d, want 1/1", sent, failed)
		}
		for _, j := range d.jobs.Jobs() {
			switch j.Channel {
			case model.ChannelEmail:
				if j.Status != model.NotificationStatusSent {
					t.Errorf("email job = %s, want sent", j.Status)
				}
			case model.ChannelChat:
				if j.Status != model.NotificationStatusPending {
					t.Errorf("chat job = %s, want pending for retry", j.Status)
				}
				if j.Attempts != 1 {
					t.Errorf("chat attempts = %d, want 1", j.Attempts)
				}
				if j.ErrorMessage == nil || *j.ErrorMessage != "webhook 500" {
					t.Error("expected the delivery error recorded on the job")
				}
			}
		}
	})

	t.Run("should park a job as failed after the attempt bound", func(t *testing.T) {
		// --- Arrange ---
		const maxAttempts = 3
		d := newNotifDeps(t, maxAttempts)
		order := testOrder(t)
		if err := d.uc.EnqueueOrderNotifications(ctx, nil, order, "KEY-123", false); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		d.mailer.SendFunc = func(ctx context.Context, to, subject string, htmlBody []byte) error {
			return errors.New("smtp down")
		}
		d.chat.PostFunc = func(ctx context.Context, payload []byte) error {
			return errors.New("webhook down")
		}

		// --- Act --- each pass is one worker tick
		for i := 0; i < maxAttempts+2; i++ {
			if _, _, err := d.uc.DeliverBatch(ctx); err != nil {
				t.Fatalf("pass %d: %v", i, err)
			}
		}

		// --- Assert ---
		for _, j := range d.jobs.Jobs() {
			if j.Status != model.NotificationStatusFailed {
				t.Errorf("job %s status = %s, want failed", j.ID, j.Status)
			}
			if j.Attempts != maxAttempts {
				t.Errorf("job %s attempts = %d, want %d", j.ID, j.Attempts, maxAttempts)
			}
		}
		failedJobs, err := d.uc.ListTerminallyFailed(ctx, 10)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(failedJobs) != 2 {
			t.Errorf("expected 2 terminally failed jobs, got %d", len(failedJobs))
		}
	})

	t.Run("an empty queue is a quiet no-op", func(t *testing.T) {
		d := newNotifDeps(t, 5)
		sent, failed, err := d.uc.DeliverBatch(ctx)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if sent != 0 || failed != 0 {
			t.Errorf("sent=%d failed=%d, want 0/0", sent, failed)
		}
	})
}

func TestNotificationUseCase_RecoverStuck(t *testing.T) {
	ctx := context.Background()

	t.Run("should requeue an aged claim and leave fresh ones alone", func(t *testing.T) {
		// --- Arrange --- two claimed jobs, one held by a worker that died
		d := newNotifDeps(t, 5)
		order := testOrder(t)
		if err := d.uc.EnqueueOrderNotifications(ctx, nil, order, "KEY-123", false); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		claimed, err := d.jobs.ClaimBatch(ctx, 10)
		if err != nil || len(claimed) != 2 {
			t.Fatalf("claim: %v (%d jobs)", err, len(claimed))
		}
		stuck := claimed[0].ID
		d.jobs.BackdateClaim(stuck, time.Hour)

		// --- Act ---
		n, err := d.uc.RecoverStuck(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if n != 1 {
			t.Errorf("requeued = %d, want 1", n)
		}
		for _, j := range d.jobs.Jobs() {
			if j.ID == stuck && j.Status != model.NotificationStatusPending {
				t.Errorf("stuck job status = %s, want pending", j.Status)
			}
			if j.ID != stuck && j.Status != model.NotificationStatusProcessing {
				t.Errorf("fresh claim status = %s, want processing", j.Status)
			}
		}
	})

	t.Run("a requeued job re-enters the next delivery pass", func(t *testing.T) {
		d := newNotifDeps(t, 5)
		order := testOrder(t)
		if err := d.uc.EnqueueOrderNotifications(ctx, nil, order, "KEY-123", false); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		claimed, err := d.jobs.ClaimBatch(ctx, 10)
		if err != nil {
			t.Fatalf("claim: %v", err)
		}
		for _, j := range claimed {
			d.jobs.BackdateClaim(j.ID, time.Hour)
		}
		if _, err := d.uc.RecoverStuck(ctx); err != nil {
			t.Fatalf("recover: %v", err)
		}

		sent, failed, err := d.uc.DeliverBatch(ctx)
		if err != nil {
			t.Fatalf("deliver: %v", err)
		}
		if sent != 2 || failed != 0 {
			t.Errorf("sent=%d failed=%d, want 2/0", sent, failed)
		}
	})
}
