package schedule

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a repeating background task owned by the process-wide scheduler
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler runs jobs on cron schedules with a defined start/stop
// lifecycle. Job failures are logged and the schedule continues; a job never
// terminates the process.
type CronScheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	ctx     context.Context
}

// NewCronScheduler creates a new scheduler
func NewCronScheduler() *CronScheduler {
	return &CronScheduler{
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}
}

// AddJob schedules a job. The schedule string accepts standard cron
// expressions and descriptors like "@every 10m".
func (c *CronScheduler) AddJob(job Job, spec string) error {
	entryID, err := c.cron.AddFunc(spec, c.wrap(job))
	if err != nil {
		slog.Error("Failed to schedule job", "job", job.Name(), "spec", spec, "err", err)
		return err
	}
	c.entries[job.Name()] = entryID
	slog.Info("Job scheduled", "job", job.Name(), "spec", spec)
	return nil
}

// Start begins running scheduled jobs
func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

// Stop stops the schedule and waits for a running job to finish
func (c *CronScheduler) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *CronScheduler) wrap(job Job) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			slog.Info("Job skipped: previous run still in progress", "job", job.Name())
			return
		}
		defer running.Store(false)

		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			slog.Error("Job failed", "job", job.Name(), "duration", time.Since(start), "err", err)
			return
		}
		slog.Debug("Job finished", "job", job.Name(), "duration", time.Since(start))
	}
}
