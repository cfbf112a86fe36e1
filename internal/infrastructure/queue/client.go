package queue

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"grimoire-backend/internal/config"
)

// Enqueuer is what services depend on to schedule background work. Kept
// narrow so tests can swap in a fake.
type Enqueuer interface {
	EnqueueImageCleanup(ctx context.Context, filename string) error
	Close() error
}

// Client wraps the asynq producer side.
type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Host,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// EnqueueImageCleanup schedules best-effort deletion of one stored image.
// Callers treat a failure here as non-fatal and fall back to deleting inline.
func (c *Client) EnqueueImageCleanup(ctx context.Context, filename string) error {
	task, err := NewImageCleanupTask(filename)
	if err != nil {
		return fmt.Errorf("build cleanup task: %w", err)
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue cleanup task: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
