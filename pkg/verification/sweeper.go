package verification

import (
	"context"
	"log/slog"
)

// DefaultSweepSpec runs the purge on a fixed interval matching the retention
// window. Cleanup is not latency-sensitive, so no jitter.
const DefaultSweepSpec = "@every 10m"

// PurgeJob is the background sweeper task: each tick deletes every record
// past the retention window. A failed tick is logged and the schedule
// continues; cleanup is best effort and never reaches request traffic.
type PurgeJob struct {
	service *Service
}

// NewPurgeJob creates a purge job bound to a verification service
func NewPurgeJob(service *Service) *PurgeJob {
	return &PurgeJob{service: service}
}

// Name returns the job name used in scheduler logs
func (j *PurgeJob) Name() string {
	return "purge-expired-verification-codes"
}

// Run performs one sweep
func (j *PurgeJob) Run(ctx context.Context) error {
	purged, err := j.service.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if purged > 0 {
		slog.Info("Purged expired verification codes", "count", purged)
	}
	return nil
}
