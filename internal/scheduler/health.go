package scheduler

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vglena/valorapro/platform/config"
)

// RedisHealth pings the Redis instance backing the job queue.
type RedisHealth struct {
	client *redis.Client
}

func NewRedisHealth(cfg config.SchedulerConfig) (*RedisHealth, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() && opt.TLSConfig != nil {
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return &RedisHealth{client: redis.NewClient(opt)}, nil
}

// Ping implements the router's health checker.
func (h *RedisHealth) Ping(ctx context.Context) error {
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

func (h *RedisHealth) Close() error {
	return h.client.Close()
}
