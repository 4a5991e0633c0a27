// Package queue enqueues background jobs on asynq (Redis).
package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/hibiken/asynq"
)

// Queue names
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

type enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client wraps an asynq client. A disabled client accepts and drops every task,
// so callers never branch on whether the queue is configured.
type Client struct {
	client   enqueuer
	enabled  bool
	maxRetry int
}

// NewClient creates a queue client from config
func NewClient(qcfg config.QueueConfig, rcfg config.RedisConfig) *Client {
	if !qcfg.Enabled {
		return &Client{}
	}
	return &Client{
		client:   asynq.NewClient(RedisOpt(rcfg)),
		enabled:  true,
		maxRetry: qcfg.MaxRetry,
	}
}

// Enabled reports whether tasks are actually enqueued
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close releases the Redis connection
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueRecurringBilling schedules a month's billing for a tenant.
// One task per tenant and month is kept; a duplicate enqueue is not an error.
func (c *Client) EnqueueRecurringBilling(payload RecurringBillingPayload) error {
	task, err := NewRecurringBillingTask(payload)
	if err != nil {
		return err
	}
	id := fmt.Sprintf("%s:%s:%s", TaskRecurringBilling, payload.TenantID, payload.Month)
	return c.enqueue(task, asynq.Queue(QueueCritical), asynq.TaskID(id), asynq.Retention(24*time.Hour))
}

// EnqueueFiscalRetransmit schedules a retransmission of queued fiscal notes
func (c *Client) EnqueueFiscalRetransmit(payload FiscalRetransmitPayload, delay time.Duration) error {
	task, err := NewFiscalRetransmitTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, asynq.Queue(QueueDefault), asynq.ProcessIn(max(delay, 0)))
}

// EnqueueCommissionStatement schedules PDF rendering for a settlement
func (c *Client) EnqueueCommissionStatement(payload CommissionStatementPayload) error {
	task, err := NewCommissionStatementTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, asynq.Queue(QueueLow))
}

func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	if c.maxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(c.maxRetry))
	}
	if _, err := c.client.Enqueue(task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}

// BuildServerConfig returns the Redis connection and server settings for the worker
func BuildServerConfig(qcfg config.QueueConfig, rcfg config.RedisConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 10
	if qcfg.Concurrency > 0 {
		concurrency = qcfg.Concurrency
	}
	queues := map[string]int{QueueCritical: 6, QueueDefault: 3, QueueLow: 1}
	if len(qcfg.Queues) > 0 {
		queues = qcfg.Queues
	}
	return RedisOpt(rcfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

// RedisOpt maps the Redis config onto asynq's connection options
func RedisOpt(rcfg config.RedisConfig) asynq.RedisClientOpt {
	host := rcfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := rcfg.Port
	if port <= 0 {
		port = 6379
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: rcfg.Password,
		DB:       rcfg.DB,
	}
}
