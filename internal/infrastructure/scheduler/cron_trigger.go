// Package scheduler fires periodic per-tenant jobs such as monthly recurring
// billing, the daily overdue refresh and the fiscal contingency retransmission.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrJobNotFound   = errors.New("job not found")
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

// TenantProvider lists the tenants a job runs for
type TenantProvider interface {
	ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// JobFunc runs one job for one tenant
type JobFunc func(ctx context.Context, tenantID uuid.UUID, now time.Time) error

// Job is a named schedule plus the work to do for each tenant
type Job struct {
	Name     string
	Schedule Schedule
	Run      JobFunc
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	CheckInterval time.Duration
	Location      *time.Location
	JobTimeout    time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		CheckInterval: time.Minute,
		Location:      time.UTC,
		JobTimeout:    10 * time.Minute,
	}
}

// CronTrigger checks its jobs every CheckInterval and runs the due ones for each active tenant
type CronTrigger struct {
	config  CronTriggerConfig
	tenants TenantProvider
	logger  *zap.Logger
	jobs    []Job
	now     func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[string]time.Time
}

// NewCronTrigger creates a trigger for jobs
func NewCronTrigger(config CronTriggerConfig, tenants TenantProvider, logger *zap.Logger, jobs ...Job) (*CronTrigger, error) {
	if config.CheckInterval <= 0 {
		return nil, fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	seen := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		if j.Name == "" || j.Schedule == nil || j.Run == nil {
			return nil, fmt.Errorf("%w: job needs a name, schedule and func", ErrInvalidConfig)
		}
		if seen[j.Name] {
			return nil, fmt.Errorf("%w: duplicate job %q", ErrInvalidConfig, j.Name)
		}
		seen[j.Name] = true
	}
	return &CronTrigger{
		config:  config,
		tenants: tenants,
		logger:  logger,
		jobs:    jobs,
		now:     time.Now,
		lastRun: make(map[string]time.Time),
	}, nil
}

// Start launches the check loop
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runLoop(ctx)

	names := make([]string, len(c.jobs))
	for i, j := range c.jobs {
		names[i] = j.Name + " (" + j.Schedule.String() + ")"
	}
	c.logger.Info("cron trigger started",
		zap.Strings("jobs", names),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop cancels the loop and waits for running jobs or ctx expiry
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick runs every job that is due now. The loop calls it; tests call it directly.
func (c *CronTrigger) Tick(ctx context.Context) {
	now := c.now().In(c.config.Location)
	for _, job := range c.jobs {
		c.mu.Lock()
		last := c.lastRun[job.Name]
		due := job.Schedule.Due(now, last)
		if due {
			c.lastRun[job.Name] = now
		}
		c.mu.Unlock()

		if due {
			c.runForTenants(ctx, job, now)
		}
	}
}

func (c *CronTrigger) runForTenants(ctx context.Context, job Job, now time.Time) {
	tenantIDs, err := c.tenants.ActiveTenantIDs(ctx)
	if err != nil {
		c.logger.Error("failed to list tenants for scheduled job", zap.String("job", job.Name), zap.Error(err))
		return
	}

	failed := 0
	for _, tenantID := range tenantIDs {
		if ctx.Err() != nil {
			return
		}
		if err := c.runOne(ctx, job, tenantID, now); err != nil {
			failed++
			c.logger.Error("scheduled job failed",
				zap.String("job", job.Name),
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}
	c.logger.Info("scheduled job finished",
		zap.String("job", job.Name),
		zap.Int("tenants", len(tenantIDs)),
		zap.Int("failed", failed),
	)
}

func (c *CronTrigger) runOne(ctx context.Context, job Job, tenantID uuid.UUID, now time.Time) (err error) {
	if c.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.JobTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(ctx, tenantID, now)
}

// RunNow runs the named job for every tenant regardless of its schedule
func (c *CronTrigger) RunNow(ctx context.Context, name string) error {
	for _, job := range c.jobs {
		if job.Name == name {
			now := c.now().In(c.config.Location)
			c.mu.Lock()
			c.lastRun[job.Name] = now
			c.mu.Unlock()
			c.runForTenants(ctx, job, now)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrJobNotFound, name)
}
