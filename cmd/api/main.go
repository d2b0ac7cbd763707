package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vglena/valorapro/internal/email"
	"github.com/vglena/valorapro/internal/events"
	apphttp "github.com/vglena/valorapro/internal/http"
	"github.com/vglena/valorapro/internal/http/router"
	"github.com/vglena/valorapro/internal/maps"
	"github.com/vglena/valorapro/internal/notification"
	"github.com/vglena/valorapro/internal/scheduler"
	"github.com/vglena/valorapro/internal/valuation"
	"github.com/vglena/valorapro/internal/valuation/service"
	"github.com/vglena/valorapro/platform/config"
	"github.com/vglena/valorapro/platform/logger"
	"github.com/vglena/valorapro/platform/metrics"
	"github.com/vglena/valorapro/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	m := metrics.New()

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSender(cfg)
	if !cfg.IsEmailEnabled() {
		log.Warn("SMTP_HOST not configured; summary emails disabled")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	var (
		jobs      service.JobQueue
		jobClient *scheduler.Client
		health    apphttp.HealthChecker
	)
	if cfg.IsSchedulerEnabled() {
		jobClient, err = scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize job client", "error", err)
			panic("failed to initialize job client: " + err.Error())
		}
		defer func() { _ = jobClient.Close() }()
		jobs = jobClient

		redisHealth, err := scheduler.NewRedisHealth(cfg)
		if err != nil {
			log.Error("failed to initialize redis health check", "error", err)
			panic("failed to initialize redis health check: " + err.Error())
		}
		defer func() { _ = redisHealth.Close() }()
		health = redisHealth
		log.Info("background generation enabled", "queue", cfg.GetAsynqQueueName())
	} else {
		log.Warn("REDIS_URL not configured; background generation disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	mapsModule := maps.NewModule(cfg, log)

	var svc *service.Service
	if err := withRetry(ctx, log, "valuation service", 5, 2*time.Second, func() error {
		s, err := valuation.BuildService(ctx, cfg, valuation.Infra{
			Geocoder: mapsModule.Service(),
			Jobs:     jobs,
			Mailer:   sender,
			Bus:      eventBus,
			Metrics:  m,
			Log:      log,
		})
		if err != nil {
			return err
		}
		svc = s
		return nil
	}); err != nil {
		log.Error("failed to initialize valuation service", "error", err)
		panic("failed to initialize valuation service: " + err.Error())
	}

	valuationModule, err := valuation.NewModule(svc, val, log)
	if err != nil {
		log.Error("failed to initialize valuation module", "error", err)
		panic("failed to initialize valuation module: " + err.Error())
	}

	// Notification module subscribes to domain events and streams job outcomes
	notificationModule := notification.New(svc.Exporter(), cfg.GetEmailAttachPDF(), log)
	notificationModule.RegisterHandlers(eventBus)
	if jobClient != nil {
		notificationModule.SSE().WatchJobs(jobClient, 2*time.Second)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		Metrics:  m.Handler(),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			mapsModule,
			valuationModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		notificationModule.SSE().Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
