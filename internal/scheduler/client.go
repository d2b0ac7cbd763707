package scheduler

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/config"
)

const (
	defaultRetention  = 24 * time.Hour
	defaultJobTimeout = 5 * time.Minute
)

// Client enqueues valuation jobs and reports their state.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
	retention time.Duration
	timeout   time.Duration
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return NewClientWithRedis(opt, cfg.GetAsynqQueueName(), cfg.GetJobResultRetention(), cfg.GetJobTimeout()), nil
}

// NewClientWithRedis builds a client over an explicit connection. Zero
// durations fall back to a day of retention and a five minute timeout.
func NewClientWithRedis(opt asynq.RedisConnOpt, queue string, retention, timeout time.Duration) *Client {
	if queue == "" {
		queue = "default"
	}
	if retention <= 0 {
		retention = defaultRetention
	}
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		queue:     queue,
		retention: retention,
		timeout:   timeout,
	}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return errors.Join(c.client.Close(), c.inspector.Close())
}

// EnqueueValuation queues a generation under jobID. Jobs are never retried:
// a failed generation is reported as failed.
func (c *Client) EnqueueValuation(ctx context.Context, jobID string, profile domain.PropertyProfile, notify bool) error {
	task, err := NewGenerateValuationTask(GenerateValuationPayload{
		JobID:           jobID,
		Profile:         profile,
		NotifyApplicant: notify,
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.TaskID(jobID),
		asynq.Queue(c.queue),
		asynq.MaxRetry(0),
		asynq.Retention(c.retention),
		asynq.Timeout(c.timeout),
	)
	if err != nil {
		return fmt.Errorf("enqueue valuation %s: %w", jobID, err)
	}
	return nil
}

// ValuationJob returns the state of a queued valuation, with its report once
// completed. Unknown ids return domain.ErrJobNotFound.
func (c *Client) ValuationJob(ctx context.Context, jobID string) (domain.Job, error) {
	info, err := c.inspector.GetTaskInfo(c.queue, jobID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return domain.Job{}, domain.ErrJobNotFound
	}
	if err != nil {
		return domain.Job{}, fmt.Errorf("inspect valuation %s: %w", jobID, err)
	}
	return jobFromTaskInfo(info)
}

func jobFromTaskInfo(info *asynq.TaskInfo) (domain.Job, error) {
	job := domain.Job{ID: info.ID}
	switch info.State {
	case asynq.TaskStateActive, asynq.TaskStateRetry:
		job.State = domain.JobActive
	case asynq.TaskStateCompleted:
		job.State = domain.JobCompleted
		if len(info.Result) > 0 {
			var report domain.Report
			if err := json.Unmarshal(info.Result, &report); err != nil {
				return domain.Job{}, fmt.Errorf("decode valuation result %s: %w", info.ID, err)
			}
			job.Report = &report
		}
	case asynq.TaskStateArchived:
		job.State = domain.JobFailed
		job.Error = info.LastErr
	default:
		job.State = domain.JobPending
	}
	return job, nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
