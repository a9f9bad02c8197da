// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/dailit/dailit-server/internal/utils"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StatusRefresher rewrites stored subscription statuses
type StatusRefresher interface {
	RefreshStatuses(ctx context.Context) (int, error)
}

// Jobs holds the work the scheduler triggers.
type Jobs struct {
	refresher StatusRefresher
	logger    *utils.Logger
	timeout   time.Duration
}

// NewJobs creates the job set.
func NewJobs(refresher StatusRefresher, logger *utils.Logger) *Jobs {
	return &Jobs{refresher: refresher, logger: logger, timeout: 2 * time.Minute}
}

// RefreshStatuses brings stored statuses in line with expiry dates so that
// clients reading the column directly see current values.
func (j *Jobs) RefreshStatuses() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	started := time.Now()
	n, err := j.refresher.RefreshStatuses(ctx)
	if err != nil {
		j.logger.LogError("scheduler", "RefreshStatuses", "status refresh failed", nil, err)
		return
	}
	j.logger.WithFields(logrus.Fields{
		"updated":  n,
		"duration": time.Since(started).String(),
	}).Info("subscription statuses refreshed")
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron                  *cron.Cron
	jobs                  *Jobs
	logger                *utils.Logger
	statusRefreshSchedule string
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *utils.Logger, statusRefreshSchedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(logger.Logrus())
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:                  c,
		jobs:                  jobs,
		logger:                logger,
		statusRefreshSchedule: statusRefreshSchedule,
	}
}

// Start registers the jobs and starts the cron scheduler. An empty schedule
// disables the job.
func (s *Scheduler) Start() error {
	if s.statusRefreshSchedule != "" {
		if _, err := s.cron.AddFunc(s.statusRefreshSchedule, s.jobs.RefreshStatuses); err != nil {
			return err
		}
		s.logger.Info("scheduled status refresh job: %s", s.statusRefreshSchedule)
	}

	s.cron.Start()
	return nil
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
