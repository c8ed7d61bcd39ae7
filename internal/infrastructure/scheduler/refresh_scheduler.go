// Package scheduler runs the periodic dashboard data refresh.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Refresher reloads the dashboard data
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Config holds refresh scheduling configuration
type Config struct {
	// Interval between scheduled refreshes
	Interval time.Duration
	// RunOnStart refreshes once as soon as the scheduler starts
	RunOnStart bool
	// Timeout bounds a single refresh
	Timeout time.Duration
	// HistorySize is the number of run records kept
	HistorySize int
}

// DefaultConfig returns default scheduling configuration
func DefaultConfig() Config {
	return Config{
		Interval:    6 * time.Hour,
		RunOnStart:  true,
		Timeout:     5 * time.Minute,
		HistorySize: 20,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("%w: history size must be positive", ErrInvalidConfig)
	}
	return nil
}

// Status is a snapshot of the scheduler state
type Status struct {
	Running    bool          `json:"running"`
	InProgress bool          `json:"in_progress"`
	Interval   time.Duration `json:"interval"`
	NextRunAt  *time.Time    `json:"next_run_at,omitempty"`
	LastRun    *Run          `json:"last_run,omitempty"`
	LastOK     *Run          `json:"last_success,omitempty"`
	History    []Run         `json:"history"`
}

// RefreshScheduler triggers refreshes on a fixed interval and on demand
type RefreshScheduler struct {
	config    Config
	refresher Refresher
	logger    *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	busy      bool
	nextRunAt time.Time
	history   []*Run
}

// NewRefreshScheduler creates a new refresh scheduler
func NewRefreshScheduler(config Config, refresher Refresher, logger *zap.Logger) (*RefreshScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshScheduler{
		config:    config,
		refresher: refresher,
		logger:    logger,
	}, nil
}

// Start starts the refresh loop
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true
	s.nextRunAt = time.Now().Add(s.config.Interval)
	loopCtx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runLoop(loopCtx)

	s.logger.Info("Refresh scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)

	return nil
}

// Stop cancels the refresh loop and any manual refresh, then waits for them
// to return
func (s *RefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop refreshes on every tick
func (s *RefreshScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.execute(ctx, TriggerStartup)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.nextRunAt = time.Now().Add(s.config.Interval)
			s.mu.Unlock()
			s.execute(ctx, TriggerScheduled)
		}
	}
}

// TriggerNow starts a manual refresh in the background and returns its run
// record. The refresh runs under the scheduler's context, so Stop cancels
// and waits for it.
func (s *RefreshScheduler) TriggerNow() (Run, error) {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return Run{}, ErrSchedulerNotRunning
	}
	run, err := s.begin(TriggerManual)
	if err != nil {
		s.mu.Unlock()
		return Run{}, err
	}
	ctx := s.ctx
	accepted := *run
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		_, _ = s.finish(ctx, run)
	}()
	return accepted, nil
}

// execute performs one refresh unless another is in flight
func (s *RefreshScheduler) execute(ctx context.Context, trigger Trigger) (*Run, error) {
	s.mu.Lock()
	run, err := s.begin(trigger)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, run)
}

// begin marks the scheduler busy and records a started run. Caller holds mu.
func (s *RefreshScheduler) begin(trigger Trigger) (*Run, error) {
	if s.busy {
		s.logger.Warn("Skipping refresh, another run is in progress", zap.String("trigger", string(trigger)))
		return nil, ErrRefreshInProgress
	}
	s.busy = true
	run := NewRun(trigger)
	run.Start()
	s.record(run)
	return run, nil
}

// finish runs the refresh of a started run and records its outcome
func (s *RefreshScheduler) finish(ctx context.Context, run *Run) (*Run, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	s.logger.Info("Refresh started", zap.String("run_id", run.ID.String()), zap.String("trigger", string(run.Trigger)))
	err := s.refresher.Refresh(runCtx)

	s.mu.Lock()
	if err != nil {
		run.Fail(err.Error())
	} else {
		run.Complete()
	}
	s.busy = false
	result := *run
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Refresh failed",
			zap.String("run_id", run.ID.String()),
			zap.Duration("duration", result.Duration()),
			zap.Error(err),
		)
		return &result, err
	}
	s.logger.Info("Refresh completed",
		zap.String("run_id", run.ID.String()),
		zap.Duration("duration", result.Duration()),
	)
	return &result, nil
}

// record appends a run to the bounded history. Caller holds mu.
func (s *RefreshScheduler) record(run *Run) {
	s.history = append(s.history, run)
	if over := len(s.history) - s.config.HistorySize; over > 0 {
		s.history = s.history[over:]
	}
}

// Status returns a copy of the scheduler state, newest run first
func (s *RefreshScheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Running:    s.isRunning,
		InProgress: s.busy,
		Interval:   s.config.Interval,
		History:    make([]Run, 0, len(s.history)),
	}
	if s.isRunning {
		next := s.nextRunAt
		status.NextRunAt = &next
	}
	for i := len(s.history) - 1; i >= 0; i-- {
		status.History = append(status.History, *s.history[i])
	}
	if len(status.History) > 0 {
		last := status.History[0]
		status.LastRun = &last
	}
	for i := range status.History {
		if status.History[i].Status == RunStatusSuccess {
			ok := status.History[i]
			status.LastOK = &ok
			break
		}
	}
	return status
}
