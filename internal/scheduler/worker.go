package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/config"
	"github.com/vglena/valorapro/platform/logger"
)

// ValuationRunner produces a report for a queued job.
type ValuationRunner interface {
	Generate(ctx context.Context, profile domain.PropertyProfile, notify bool) (domain.Report, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner ValuationRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner ValuationRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
		Logger:   asynqLogger{log: log},
		LogLevel: asynq.WarnLevel,
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		runner: runner,
		log:    log,
	}

	mux.HandleFunc(TaskGenerateValuation, w.handleGenerateValuation)

	return w, nil
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start scheduler worker: %w", err)
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

func (w *Worker) handleGenerateValuation(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseGenerateValuationPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	result, err := w.generate(ctx, payload)
	if err != nil {
		return err
	}

	if _, err := task.ResultWriter().Write(result); err != nil {
		return fmt.Errorf("write valuation result %s: %w", payload.JobID, err)
	}
	return nil
}

// generate runs the valuation and encodes the report as the task result.
func (w *Worker) generate(ctx context.Context, payload GenerateValuationPayload) ([]byte, error) {
	ctx = context.WithValue(ctx, logger.JobIDKey, payload.JobID)
	log := w.log.WithContext(ctx)
	report, err := w.runner.Generate(ctx, payload.Profile, payload.NotifyApplicant)
	if err != nil {
		log.Error("queued valuation failed", "error", err)
		return nil, fmt.Errorf("generate valuation %s: %v: %w", payload.JobID, err, asynq.SkipRetry)
	}

	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode valuation %s: %w", payload.JobID, err)
	}
	log.Info("queued valuation completed", "reportId", report.ID, "provider", report.Provider)
	return data, nil
}

// asynqLogger routes asynq's internal logging through slog.
type asynqLogger struct {
	log *logger.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
