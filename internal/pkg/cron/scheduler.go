package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Job represents a scheduled job
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error

	// Deferred jobs wait one interval before their first run.
	Deferred bool
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	jobs    []Job
	clock   clockwork.Clock
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	quiet   bool
}

type Option func(*Scheduler)

// WithClock sets the time source used for job tickers.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// Quiet drops the per-scheduler lifecycle logs. Used for short-lived schedulers.
func Quiet() Option {
	return func(s *Scheduler) {
		s.quiet = true
	}
}

// NewScheduler creates a new cron scheduler
func NewScheduler(opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		jobs:   make([]Job, 0),
		clock:  clockwork.NewRealClock(),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob adds a job that runs on Start and then every interval
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.add(Job{Name: name, Interval: interval, Fn: fn})
}

// AddDeferredJob adds a job whose first run is one interval after Start
func (s *Scheduler) AddDeferredJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.add(Job{Name: name, Interval: interval, Fn: fn, Deferred: true})
}

func (s *Scheduler) add(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, job)
	if !s.quiet {
		slog.Info("Cron job registered", "name", job.Name, "interval", job.Interval)
	}
}

// Start begins running all scheduled jobs. Tickers exist once Start returns.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	for _, job := range s.jobs {
		ticker := s.clock.NewTicker(job.Interval)
		s.wg.Add(1)
		go s.runJob(job, ticker)
	}

	if !s.quiet {
		slog.Info("Cron scheduler started", "job_count", len(s.jobs))
	}
}

// Stop gracefully stops all scheduled jobs and waits for them to return.
// Must not be called from inside a job.
func (s *Scheduler) Stop() {
	if !s.quiet {
		slog.Info("Stopping cron scheduler...")
	}
	s.cancel()
	s.wg.Wait()
	if !s.quiet {
		slog.Info("Cron scheduler stopped")
	}
}

// Cancel stops all jobs without waiting. Safe to call from inside a job.
func (s *Scheduler) Cancel() {
	s.cancel()
}

// Done is closed once the scheduler has been stopped or cancelled.
func (s *Scheduler) Done() <-chan struct{} {
	return s.ctx.Done()
}

// runJob runs a single job on its schedule
func (s *Scheduler) runJob(job Job, ticker clockwork.Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	if !job.Deferred {
		s.executeJob(job)
	}

	for {
		select {
		case <-s.ctx.Done():
			if !s.quiet {
				slog.Info("Cron job stopping", "name", job.Name)
			}
			return
		case <-ticker.Chan():
			// A tick can race with cancellation.
			if s.ctx.Err() != nil {
				return
			}
			s.executeJob(job)
		}
	}
}

// executeJob executes a job and logs results
func (s *Scheduler) executeJob(job Job) {
	start := s.clock.Now()
	slog.Debug("Cron job starting", "name", job.Name)

	if err := job.Fn(s.ctx); err != nil {
		slog.Error("Cron job failed", "name", job.Name, "error", err, "duration", s.clock.Since(start))
	} else {
		slog.Debug("Cron job completed", "name", job.Name, "duration", s.clock.Since(start))
	}
}

// RunOnce runs all jobs once (useful for testing)
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if err := job.Fn(ctx); err != nil {
			slog.Error("Cron job failed", "name", job.Name, "error", err)
		}
	}
}
