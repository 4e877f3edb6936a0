// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skyline-store/internal/config"
	"skyline-store/internal/domain/ports/adapter"
	"skyline-store/internal/infra/adapters/notify"
	pg "skyline-store/internal/infra/db/postgres"
	"skyline-store/internal/infra/logging"
	"skyline-store/internal/infra/metrics"
	red "skyline-store/internal/infra/redis"
	"skyline-store/internal/infra/sched"
	"skyline-store/internal/infra/web"
	"skyline-store/internal/infra/worker"
	"skyline-store/internal/usecase"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop delivery adapters)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.PoolSize))
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				pg.ReportPoolStats(pool)
			}
		}
	}()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	sessionRepo := pg.NewSessionRepo(pool)
	orderRepo := pg.NewOrderRepo(pool)
	licenseRepo := pg.NewLicenseRepo(pool)
	couponRepo := pg.NewCouponRepoCacheDecorator(pg.NewCouponRepo(pool), redisClient)
	jobRepo := pg.NewNotificationJobRepo(pool)
	productRepo := pg.NewProductRepo(pool)

	// ---- Delivery adapters ----
	var mailer adapter.Mailer
	if cfg.Runtime.Dev || cfg.Email.ResendKey == "" {
		logger.Warn().Msg("email: no Resend key, using noop mailer")
		mailer = notify.NewNoopMailer()
	} else {
		mailer, err = notify.NewResendMailer(cfg.Email.ResendKey, cfg.Email.From)
		if err != nil {
			log.Fatalf("resend mailer: %v", err)
		}
	}

	var chat adapter.ChatNotifier
	switch cfg.Chat.Channel {
	case "discord":
		chat, err = notify.NewDiscordNotifier(cfg.Chat.DiscordWebhook)
		if err != nil {
			log.Fatalf("discord notifier: %v", err)
		}
	case "telegram":
		chat, err = notify.NewTelegramNotifier(cfg.Chat.TelegramToken, cfg.Chat.TelegramChatID)
		if err != nil {
			log.Fatalf("telegram notifier: %v", err)
		}
	case "none":
		chat = notify.NewNoopChatNotifier()
	default:
		log.Fatalf("chat: unknown channel %q (want discord|telegram|none)", cfg.Chat.Channel)
	}
	logger.Info().Str("mailer", mailer.Name()).Str("chat", chat.Name()).Msg("delivery adapters ready")

	// ---- Sender pool ----
	senderPool := worker.NewPool(cfg.Worker.Senders, logger)
	senderPool.Start(ctx)
	defer senderPool.Stop()

	// ---- Use cases ----
	orderUC := usecase.NewOrderUseCase(orderRepo, licenseRepo, logger)
	notifUC := usecase.NewNotificationUseCase(jobRepo, mailer, chat, senderPool, cfg.Worker.BatchSize, cfg.Worker.MaxAttempts, logger)
	webhookUC := usecase.NewWebhookUseCase(sessionRepo, couponRepo, orderUC, notifUC, txManager, logger)
	checkoutUC := usecase.NewCheckoutUseCase(productRepo, sessionRepo, couponRepo, logger)
	couponUC := usecase.NewCouponUseCase(couponRepo, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Ops.JWTSecret, !cfg.Runtime.Dev, "", cfg.Ops.TokenTTL)
	srv := web.NewServer(webhookUC, checkoutUC, couponUC, orderUC, notifUC, auth, rateLimiter, cfg.Payment.WebhookSecret, cfg.Ops.APIKey, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Notification delivery worker ----
	deliveryWorker := sched.NewDeliveryWorker(cfg.Worker.Interval, notifUC, logger)
	go func() { _ = deliveryWorker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
}
