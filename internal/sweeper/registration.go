package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/config"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/registration"
	"github.com/bomac1193/Issuance/internal/store"
)

const (
	DEFAULT_REGISTRATION_BATCH_SIZE = 50
	DEFAULT_REGISTRATION_POOL_SIZE  = 4
	DEFAULT_REGISTRATION_INTERVAL   = 30 * time.Second
	REGISTRATION_SWEEPER_NAME       = "registration-sweeper"
)

// RegistrationSweeperConfig holds configuration for the registration outbox sweeper
type RegistrationSweeperConfig struct {
	BatchSize      int           // Jobs attempted per cycle
	WorkerPoolSize int           // Concurrent registration attempts
	Interval       time.Duration // Sleep between cycles when the outbox is drained
}

// RegistrationSweeperConfigFrom converts loaded sweeper configuration
func RegistrationSweeperConfigFrom(cfg config.RegistrationSweeperConfig) *RegistrationSweeperConfig {
	c := &RegistrationSweeperConfig{
		BatchSize:      cfg.BatchSize,
		WorkerPoolSize: cfg.Worker.WorkerPoolSize,
		Interval:       cfg.Interval,
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DEFAULT_REGISTRATION_BATCH_SIZE
	}
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = DEFAULT_REGISTRATION_POOL_SIZE
	}
	if c.Interval <= 0 {
		c.Interval = DEFAULT_REGISTRATION_INTERVAL
	}
	return c
}

// registrationSweeper drains the registration outbox, attempting due PENDING and FAILED jobs
type registrationSweeper struct {
	config     *RegistrationSweeperConfig
	store      store.Store
	dispatcher registration.Dispatcher
	clock      adapter.Clock
	pool       pond.Pool
	running    atomic.Bool
	stopChan   chan struct{}
	stoppedCh  chan struct{}
}

// NewRegistrationSweeper creates a new registration outbox sweeper
func NewRegistrationSweeper(
	config *RegistrationSweeperConfig,
	st store.Store,
	dispatcher registration.Dispatcher,
	clock adapter.Clock,
) Sweeper {
	return &registrationSweeper{
		config:     config,
		store:      st,
		dispatcher: dispatcher,
		clock:      clock,
		stopChan:   make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *registrationSweeper) Name() string {
	return REGISTRATION_SWEEPER_NAME
}

// Start begins the sweeper's main loop
func (s *registrationSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting registration sweeper",
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
		zap.Duration("interval", s.config.Interval),
	)

	s.pool = pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)
	defer s.pool.StopAndWait()

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Registration sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Registration sweeper stop requested")
			return nil
		default:
			if err := s.runSweepCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorCtx(ctx, err)
				}
				if !s.sleep(ctx, s.config.Interval) {
					continue
				}
			}
		}
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *registrationSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping registration sweeper")
	close(s.stopChan)

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Registration sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Registration sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle attempts one batch of due jobs
func (s *registrationSweeper) runSweepCycle(ctx context.Context) error {
	startTime := s.clock.Now()

	jobs, err := s.store.GetDueRegistrationJobs(ctx, startTime, s.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get due registration jobs: %w", err)
	}

	if len(jobs) == 0 {
		logger.DebugCtx(ctx, "No registration jobs due")
		if !s.sleep(ctx, s.config.Interval) {
			return ctx.Err()
		}
		return nil
	}

	logger.InfoCtx(ctx, "Found due registration jobs", zap.Int("count", len(jobs)))

	var succeeded, failed atomic.Int32
	group := s.pool.NewGroup()
	for _, job := range jobs {
		group.Submit(func() {
			if _, err := s.dispatcher.Attempt(ctx, job.ID); err != nil {
				failed.Add(1)
				logger.WarnCtx(ctx, "Registration attempt failed",
					zap.String("job_id", job.ID),
					zap.Int64("asset_id", job.AssetID),
					zap.Error(err),
				)
				return
			}
			succeeded.Add(1)
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("registration batch interrupted: %w", err)
	}

	logger.InfoCtx(ctx, "Registration sweep cycle completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("total", len(jobs)),
		zap.Int32("succeeded", succeeded.Load()),
		zap.Int32("failed", failed.Load()),
	)

	// A full batch means more jobs may be due right away
	if len(jobs) < s.config.BatchSize {
		if !s.sleep(ctx, s.config.Interval) {
			return ctx.Err()
		}
	}

	return nil
}

// sleep sleeps for the given duration but can be interrupted.
// Returns true if sleep completed normally.
func (s *registrationSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}
