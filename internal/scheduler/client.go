package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"dealflow_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	defaultQueue = "default"

	overdueMaxRetry = 5
	// Completed checks stay visible for this long so a re-schedule of the
	// same task id is still deduplicated.
	overdueRetention = 48 * time.Hour
)

var errNoRedis = errors.New("scheduler: REDIS_URL not configured")

// Client enqueues deferred deal jobs.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := connOpt(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{client: asynq.NewClient(opt), queue: queueName(cfg)}, nil
}

// Close is safe on a nil client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleTaskOverdueCheck enqueues the overdue check of a task at its due
// date. Scheduling the same task twice is a no-op.
func (c *Client) ScheduleTaskOverdueCheck(ctx context.Context, taskID uuid.UUID, dueAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	job, err := NewTaskOverdueCheckTask(TaskOverdueCheckPayload{TaskID: taskID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, job,
		asynq.Queue(c.queue),
		asynq.TaskID(overdueCheckID(taskID)),
		asynq.ProcessAt(dueAt),
		asynq.MaxRetry(overdueMaxRetry),
		asynq.Retention(overdueRetention),
	)
	switch {
	case errors.Is(err, asynq.ErrTaskIDConflict), errors.Is(err, asynq.ErrDuplicateTask):
		return nil
	case err != nil:
		return fmt.Errorf("enqueue overdue check for %s: %w", taskID, err)
	}
	return nil
}

func overdueCheckID(taskID uuid.UUID) string {
	return "overdue:" + taskID.String()
}

func queueName(cfg config.SchedulerConfig) string {
	if q := cfg.GetAsynqQueueName(); q != "" {
		return q
	}
	return defaultQueue
}

// connOpt translates REDIS_URL into asynq connection options. rediss:// URLs
// keep their TLS settings; REDIS_TLS_INSECURE skips certificate checks for
// either scheme.
func connOpt(cfg config.SchedulerConfig) (asynq.RedisClientOpt, error) {
	if cfg.GetRedisURL() == "" {
		return asynq.RedisClientOpt{}, errNoRedis
	}
	parsed, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("scheduler: parse REDIS_URL: %w", err)
	}

	tlsConfig := parsed.TLSConfig
	if cfg.GetRedisTLSInsecure() {
		if tlsConfig == nil {
			tlsConfig = &tls.Config{}
		} else {
			tlsConfig = tlsConfig.Clone()
		}
		tlsConfig.InsecureSkipVerify = true
	}

	return asynq.RedisClientOpt{
		Addr:      parsed.Addr,
		Username:  parsed.Username,
		Password:  parsed.Password,
		DB:        parsed.DB,
		TLSConfig: tlsConfig,
	}, nil
}
