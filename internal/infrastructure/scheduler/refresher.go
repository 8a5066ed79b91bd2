// Package scheduler periodically refreshes the analysis bundle so that
// insights are recorded even when nobody queries the API.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/erp/aftersales/internal/infrastructure/config"
	"go.uber.org/zap"
)

// AnalysisRunner runs one analysis over a window
type AnalysisRunner interface {
	RunScheduled(ctx context.Context, window ledger.DateRange) error
}

// RefresherConfig holds the refresher configuration
type RefresherConfig struct {
	Interval   time.Duration
	WindowDays int
	JobTimeout time.Duration
}

// RefresherConfigFrom converts the application scheduler settings
func RefresherConfigFrom(cfg config.SchedulerConfig) RefresherConfig {
	return RefresherConfig{
		Interval:   cfg.Interval,
		WindowDays: cfg.WindowDays,
		JobTimeout: cfg.JobTimeout,
	}
}

// Validate checks the configuration
func (c RefresherConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.WindowDays < 1 {
		return fmt.Errorf("%w: window must cover at least one day", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// AnalysisRefresher runs the analysis on a fixed interval over a trailing
// window ending today. Runs never overlap.
type AnalysisRefresher struct {
	config RefresherConfig
	runner AnalysisRunner
	logger *zap.Logger
	now    func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	busy      bool
	lastJob   *Job
}

// RefresherOption configures an AnalysisRefresher
type RefresherOption func(*AnalysisRefresher)

// WithClock overrides the time source
func WithClock(now func() time.Time) RefresherOption {
	return func(r *AnalysisRefresher) {
		r.now = now
	}
}

// NewAnalysisRefresher creates a refresher
func NewAnalysisRefresher(cfg RefresherConfig, runner AnalysisRunner, logger *zap.Logger, opts ...RefresherOption) (*AnalysisRefresher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if runner == nil {
		return nil, fmt.Errorf("%w: runner is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &AnalysisRefresher{
		config: cfg,
		runner: runner,
		logger: logger.Named("refresher"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start launches the refresh loop
func (r *AnalysisRefresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go r.runLoop(ctx)

	r.logger.Info("Analysis refresher started",
		zap.Duration("interval", r.config.Interval),
		zap.Int("window_days", r.config.WindowDays),
		zap.Duration("job_timeout", r.config.JobTimeout),
	)
	return nil
}

// Stop cancels the loop and waits for the current run to return
func (r *AnalysisRefresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Analysis refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (r *AnalysisRefresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}

// LastJob returns a copy of the most recent job, or nil before the first run
func (r *AnalysisRefresher) LastJob() *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastJob == nil {
		return nil
	}
	job := *r.lastJob
	return &job
}

func (r *AnalysisRefresher) runLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunNow(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
				r.logger.Warn("Scheduled analysis refresh failed", zap.Error(err))
			}
		}
	}
}

// Window returns the trailing window ending on the current day
func (r *AnalysisRefresher) Window() ledger.DateRange {
	end := ledger.TruncateDay(r.now())
	start := end.AddDate(0, 0, -(r.config.WindowDays - 1))
	return ledger.DateRange{Start: start, End: end}
}

// RunNow runs one refresh immediately. It returns ErrRunInProgress when a
// refresh is already running.
func (r *AnalysisRefresher) RunNow(ctx context.Context) (*Job, error) {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return nil, ErrRunInProgress
	}
	r.busy = true
	r.mu.Unlock()

	job := NewJob(r.Window())
	job.Start(r.now())

	runCtx, cancel := context.WithTimeout(ctx, r.config.JobTimeout)
	err := r.runner.RunScheduled(runCtx, job.Window)
	if err == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		err = ErrRefreshTimeout
	}
	cancel()

	if err != nil {
		job.Fail(r.now(), err.Error())
		r.logger.Warn("Analysis refresh failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	} else {
		job.Complete(r.now())
		r.logger.Info("Analysis refresh completed",
			zap.String("job_id", job.ID.String()),
			zap.Time("window_start", job.Window.Start),
			zap.Time("window_end", job.Window.End),
			zap.Duration("duration", job.Duration()),
		)
	}

	r.mu.Lock()
	r.busy = false
	r.lastJob = job
	r.mu.Unlock()

	return job, err
}
