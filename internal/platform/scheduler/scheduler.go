// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package scheduler runs the periodic housekeeping jobs of the server.

Jobs share one cron schedule. A run that is still going when the next tick
fires is skipped, and a panicking job is logged instead of killing the
process.

Usage:

	runner, err := scheduler.New("@every 10m", logger,
	    scheduler.Job{Name: "purge_sessions", Run: sessions.PurgeExpired},
	)
	runner.Start()
	defer runner.Stop(ctx)
*/
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single run of a job.
const jobTimeout = time.Minute

// Job is a named housekeeping task reporting how many rows it touched.
type Job struct {
	Name string
	Run  func(context context.Context) (int64, error)
}

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	jobs   []Job
}

var parser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Parse validates a schedule expression: five cron fields or a descriptor
// such as "@hourly" or "@every 10m".
func Parse(spec string) (cron.Schedule, error) {
	clean := strings.TrimSpace(spec)
	if clean == "" {
		return nil, fmt.Errorf("scheduler: schedule is required")
	}
	schedule, err := parser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", clean, err)
	}
	return schedule, nil
}

// New registers jobs on spec. Nothing runs until [Scheduler.Start].
func New(spec string, logger *slog.Logger, jobs ...Job) (*Scheduler, error) {
	schedule, err := Parse(spec)
	if err != nil {
		return nil, err
	}

	adapter := cronLogger{logger: logger}
	runner := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)

	scheduler := &Scheduler{cron: runner, logger: logger, jobs: jobs}
	for _, job := range jobs {
		runner.Schedule(schedule, cron.FuncJob(func() { scheduler.RunOnce(context.Background(), job) }))
	}
	return scheduler, nil
}

// Start launches the cron loop in its own goroutine.
func (scheduler *Scheduler) Start() {
	scheduler.cron.Start()
	scheduler.logger.Info("scheduler_started", slog.Int("jobs", len(scheduler.jobs)))
}

// Stop halts new runs and waits for running jobs until context is done.
func (scheduler *Scheduler) Stop(context context.Context) {
	done := scheduler.cron.Stop()
	select {
	case <-done.Done():
		scheduler.logger.Info("scheduler_stopped")
	case <-context.Done():
		scheduler.logger.Warn("scheduler_stop_timeout")
	}
}

// RunOnce executes job immediately and logs its outcome.
func (scheduler *Scheduler) RunOnce(parent context.Context, job Job) {
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	started := time.Now()
	affected, err := job.Run(ctx)
	if err != nil {
		scheduler.logger.Error("scheduled_job_failed",
			slog.String("job", job.Name),
			slog.Any("error", err),
		)
		return
	}
	scheduler.logger.Info("scheduled_job_finished",
		slog.String("job", job.Name),
		slog.Int64("affected", affected),
		slog.Int64("latency_ms", time.Since(started).Milliseconds()),
	)
}

// RunAll executes every job once, in registration order.
func (scheduler *Scheduler) RunAll(context context.Context) {
	for _, job := range scheduler.jobs {
		scheduler.RunOnce(context, job)
	}
}

// cronLogger adapts cron's logger interface to slog.
type cronLogger struct {
	logger *slog.Logger
}

// Info implements cron.Logger.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron_"+strings.ReplaceAll(msg, " ", "_"), keysAndValues...)
}

// Error implements cron.Logger.
func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron_"+strings.ReplaceAll(msg, " ", "_"), append(keysAndValues, slog.Any("error", err))...)
}
