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
	"github.com/vglena/valorapro/internal/maps"
	"github.com/vglena/valorapro/internal/notification"
	"github.com/vglena/valorapro/internal/scheduler"
	"github.com/vglena/valorapro/internal/valuation"
	"github.com/vglena/valorapro/internal/valuation/service"
	"github.com/vglena/valorapro/platform/config"
	"github.com/vglena/valorapro/platform/logger"
	"github.com/vglena/valorapro/platform/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	eventBus := events.NewInMemoryBus(log)
	sender := email.NewSender(cfg)

	var svc *service.Service
	if err := withRetry(ctx, log, "valuation service", 5, 2*time.Second, func() error {
		s, err := valuation.BuildService(ctx, cfg, valuation.Infra{
			Geocoder: maps.NewService(cfg, log),
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

	// Summary emails for queued generations are sent from here.
	notificationModule := notification.New(svc.Exporter(), cfg.GetEmailAttachPDF(), log)
	notificationModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, svc, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	metricsAddr := os.Getenv("WORKER_METRICS_ADDR")
	if metricsAddr != "" {
		metricsSrv := &http.Server{Addr: metricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}()
		defer func() { _ = metricsSrv.Close() }()
	}

	if err := worker.Run(ctx); err != nil {
		log.Error("worker stopped with error", "error", err)
	}
	eventBus.Wait()
	log.Info("worker stopped")
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
