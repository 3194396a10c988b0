// Package scheduler runs the daily auto-debit jobs.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hana-ti/home-planner/internal/autodebit"
	"github.com/hana-ti/home-planner/internal/logging"
)

// ErrRunning is returned when a run is requested while another is in progress.
var ErrRunning = errors.New("auto-debit run already in progress")

// Job processes one day of debits.
type Job interface {
	Run(ctx context.Context, date time.Time) (autodebit.Result, error)
}

// Report collects the results of one run, keyed by job name.
type Report struct {
	Date    string                      `json:"processDate"`
	Results map[string]autodebit.Result `json:"results"`
	Failed  []string                    `json:"failedJobs,omitempty"`
}

// Scheduler triggers every job once a day at a fixed hour.
type Scheduler struct {
	jobs    map[string]Job
	hour    int
	running sync.Mutex
	now     func() time.Time
	after   func(d time.Duration) <-chan time.Time
}

// New creates a scheduler firing at hour (0-23, local time).
func New(hour int, jobs map[string]Job) *Scheduler {
	if hour < 0 || hour > 23 {
		hour = 0
	}
	return &Scheduler{jobs: jobs, hour: hour, now: time.Now, after: time.After}
}

// Next returns the first run time strictly after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start blocks, running the jobs daily until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	for {
		now := s.now()
		next := s.Next(now)
		logger.Info("auto-debit scheduled", slog.Time("next_run", next))
		select {
		case <-ctx.Done():
			logger.Info("auto-debit scheduler stopped")
			return nil
		case <-s.after(next.Sub(now)):
		}
		if _, err := s.RunAll(ctx, next); err != nil && !errors.Is(err, ErrRunning) {
			logger.Error("auto-debit run failed", slog.Any("error", err))
		}
	}
}

// RunAll runs every job for date concurrently. A failing job does not stop
// the others; the first failure is returned alongside the full report.
func (s *Scheduler) RunAll(ctx context.Context, date time.Time) (Report, error) {
	if !s.running.TryLock() {
		return Report{}, ErrRunning
	}
	defer s.running.Unlock()

	report := Report{Date: date.Format(time.DateOnly), Results: make(map[string]autodebit.Result, len(s.jobs))}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for name, job := range s.jobs {
		g.Go(func() error {
			res, err := job.Run(ctx, date)
			mu.Lock()
			defer mu.Unlock()
			report.Results[name] = res
			if err != nil {
				report.Failed = append(report.Failed, name)
				logging.FromContext(ctx).Error("auto-debit job failed", slog.String("job", name), slog.Any("error", err))
			}
			return err
		})
	}
	err := g.Wait()
	sort.Strings(report.Failed)
	return report, err
}
