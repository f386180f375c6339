package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opencourt/receptionist/internal/api/router"
	"github.com/opencourt/receptionist/internal/app/bootstrap"
	"github.com/opencourt/receptionist/internal/booking"
	appconfig "github.com/opencourt/receptionist/internal/config"
	"github.com/opencourt/receptionist/internal/facility"
	"github.com/opencourt/receptionist/internal/http/handlers"
	"github.com/opencourt/receptionist/internal/notify"
	"github.com/opencourt/receptionist/internal/observability/metrics"
	"github.com/opencourt/receptionist/internal/voice"
	"github.com/opencourt/receptionist/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting receptionist API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildPgxPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	gateway, err := bootstrap.BuildCalendarGateway(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build calendar gateway", "error", err)
		os.Exit(1)
	}

	facilityRepo := facility.NewRepository(pool)
	facilityCache := facility.NewCache(facilityRepo, redisClient, cfg.FacilityCacheTTL, logger)

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	bookingStore := booking.NewRepository(pool)
	bookingService := booking.NewService(facilityCache, bookingStore, gateway, bookingMetrics, logger)

	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	if emailSender != nil && cfg.NotifyEmail != "" {
		bookingService.WithNotifier(notify.NewService(emailSender, cfg.NotifyEmail, logger))
	}

	r := router.New(&router.Config{
		Logger:          logger,
		BookingHandler:  booking.NewHandler(bookingService, logger),
		FacilityHandler: facility.NewHandler(facilityRepo, facilityCache, logger),
		VoiceWebhook:    handlers.NewVoiceWebhookHandler(facilityRepo, bookingService, logger),
		VoiceSessions:   voice.NewSessionHandler(bookingService, logger),
		MetricsHandler:  promhttp.Handler(),

		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSec:    cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
