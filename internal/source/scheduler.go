package source

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "yearcal/internal/log"
)

// Scheduler runs a job on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	c       *cron.Cron
	timeout time.Duration
}

// NewScheduler registers job under a standard five-field cron spec.
// Each run gets a context bounded by timeout.
func NewScheduler(spec string, timeout time.Duration, job func(ctx context.Context) error) (*Scheduler, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{}),
		cron.SkipIfStillRunning(cronLogger{}),
	))
	s := &Scheduler{c: c, timeout: timeout}

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := job(ctx); err != nil {
			appLog.Error("scheduled job failed", err, "spec", spec)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("source: invalid cron spec %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() { s.c.Start() }

// Stop stops scheduling and waits for a running job or ctx, whichever
// comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Next reports the next scheduled run.
func (s *Scheduler) Next() time.Time {
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts appLog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
