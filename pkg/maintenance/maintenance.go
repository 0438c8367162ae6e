// Package maintenance runs periodic housekeeping: purging expired admission
// windows and bans, and trimming old conversation history.
package maintenance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bloodplusfight/careline/pkg/admission/store"
	"github.com/bloodplusfight/careline/pkg/history"
)

// Config holds the housekeeping schedules.
type Config struct {
	// AdmissionPurgeSchedule is a cron expression for purging expired
	// admission records. Default: every 10 minutes.
	AdmissionPurgeSchedule string `yaml:"admission_purge_schedule"`

	// HistoryPurgeSchedule is a cron expression for trimming conversation
	// history. Default: daily at 03:00.
	HistoryPurgeSchedule string `yaml:"history_purge_schedule"`

	// HistoryRetention is how long conversation turns are kept.
	// Default: 90 days.
	HistoryRetention time.Duration `yaml:"history_retention"`

	// JobTimeout bounds each housekeeping run. Default: 1 minute.
	JobTimeout time.Duration `yaml:"job_timeout"`
}

func (c Config) withDefaults() Config {
	if c.AdmissionPurgeSchedule == "" {
		c.AdmissionPurgeSchedule = "*/10 * * * *"
	}
	if c.HistoryPurgeSchedule == "" {
		c.HistoryPurgeSchedule = "0 3 * * *"
	}
	if c.HistoryRetention <= 0 {
		c.HistoryRetention = 90 * 24 * time.Hour
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = time.Minute
	}
	return c
}

// Runner schedules and runs the housekeeping jobs.
type Runner struct {
	cfg       Config
	cron      *cron.Cron
	admission store.Store
	hist      *history.Store
	logger    *slog.Logger
}

// New creates a runner. admission and hist may each be nil, in which case
// the corresponding job is not scheduled.
func New(cfg Config, admission store.Store, hist *history.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		cfg:       cfg.withDefaults(),
		cron:      cron.New(),
		admission: admission,
		hist:      hist,
		logger:    logger,
	}
}

// Start registers the jobs and begins the scheduler.
func (r *Runner) Start() error {
	if r.admission != nil {
		if _, err := r.cron.AddFunc(r.cfg.AdmissionPurgeSchedule, r.purgeAdmission); err != nil {
			return fmt.Errorf("scheduling admission purge: %w", err)
		}
	}
	if r.hist != nil {
		if _, err := r.cron.AddFunc(r.cfg.HistoryPurgeSchedule, r.purgeHistory); err != nil {
			return fmt.Errorf("scheduling history purge: %w", err)
		}
	}
	r.cron.Start()
	r.logger.Info("maintenance scheduler started",
		"admission_schedule", r.cfg.AdmissionPurgeSchedule,
		"history_schedule", r.cfg.HistoryPurgeSchedule)
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("maintenance scheduler stopped")
}

func (r *Runner) purgeAdmission() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.JobTimeout)
	defer cancel()

	removed, err := r.admission.PurgeExpired(ctx, time.Now())
	if err != nil {
		r.logger.Error("admission purge failed", "error", err)
		return
	}
	if removed > 0 {
		r.logger.Info("purged expired admission records", "removed", removed)
	}
}

func (r *Runner) purgeHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.JobTimeout)
	defer cancel()

	cutoff := time.Now().Add(-r.cfg.HistoryRetention)
	removed, err := r.hist.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		r.logger.Error("history purge failed", "error", err)
		return
	}
	if removed > 0 {
		r.logger.Info("purged old conversation turns",
			"removed", removed, "cutoff", cutoff.Format(time.RFC3339))
	}
}
