package registration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/config"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/lock"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/messaging"
	"github.com/bomac1193/Issuance/internal/metrics"
	"github.com/bomac1193/Issuance/internal/registrar"
	"github.com/bomac1193/Issuance/internal/store"
	"github.com/bomac1193/Issuance/internal/store/schema"
)

const (
	DEFAULT_MAX_ATTEMPTS = 5
	DEFAULT_BASE_DELAY   = 30 * time.Second
	DEFAULT_MAX_DELAY    = time.Hour
)

// Config holds outbox retry configuration
type Config struct {
	// MaxAttempts is the number of failed attempts after which a job is ABANDONED
	MaxAttempts int
	// BaseDelay is the wait after the first failure; it doubles per failure up to MaxDelay
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultConfig returns the default outbox retry configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DEFAULT_MAX_ATTEMPTS,
		BaseDelay:   DEFAULT_BASE_DELAY,
		MaxDelay:    DEFAULT_MAX_DELAY,
	}
}

// ConfigFrom converts loaded registration configuration
func ConfigFrom(cfg config.RegistrationConfig) Config {
	c := DefaultConfig()
	if cfg.MaxAttempts > 0 {
		c.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelay > 0 {
		c.BaseDelay = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		c.MaxDelay = cfg.MaxDelay
	}
	return c
}

// NewJob builds a PENDING outbox job for a cleared asset, due immediately
func NewJob(assetID int64, fingerprint string, now time.Time) *schema.RegistrationJob {
	now = now.UTC()
	return &schema.RegistrationJob{
		ID:            ulid.MustNewDefault(now).String(),
		AssetID:       assetID,
		Fingerprint:   fingerprint,
		Status:        domain.RegistrationStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Dispatcher attempts outbox jobs against the external registrar and records each outcome
//
//go:generate mockgen -source=dispatcher.go -destination=../mocks/dispatcher.go -package=mocks -mock_names=Dispatcher=MockRegistrationDispatcher
type Dispatcher interface {
	// Dispatch attempts the job in the background
	Dispatch(ctx context.Context, jobID string)
	// Attempt runs one registration attempt and records its outcome on the job.
	// The registrar error is returned after the failure has been recorded.
	Attempt(ctx context.Context, jobID string) (*schema.RegistrationJob, error)
	// Retry re-queues the FAILED or ABANDONED job of an asset and dispatches it
	Retry(ctx context.Context, assetID int64) (*schema.RegistrationJob, error)
	// Wait blocks until every background attempt has finished
	Wait()
}

type dispatcher struct {
	config    Config
	store     store.Store
	registrar registrar.Registrar
	publisher messaging.Publisher
	clock     adapter.Clock
	metrics   *metrics.Metrics
	locks     *lock.KeyedMutex
	wg        sync.WaitGroup
}

// NewDispatcher creates a new outbox dispatcher
func NewDispatcher(
	cfg Config,
	st store.Store,
	reg registrar.Registrar,
	publisher messaging.Publisher,
	clock adapter.Clock,
	m *metrics.Metrics,
) (Dispatcher, error) {
	if reg == nil {
		return nil, domain.ErrRegistrarUnavailable
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DEFAULT_MAX_ATTEMPTS
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DEFAULT_BASE_DELAY
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}

	return &dispatcher{
		config:    cfg,
		store:     st,
		registrar: reg,
		publisher: publisher,
		clock:     clock,
		metrics:   m,
		locks:     lock.NewKeyedMutex(),
	}, nil
}

// Dispatch attempts the job in the background, detached from the caller's cancellation
func (d *dispatcher) Dispatch(ctx context.Context, jobID string) {
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if _, err := d.Attempt(ctx, jobID); err != nil {
			logger.WarnCtx(ctx, "Registration attempt failed, left for the sweeper",
				zap.String("job_id", jobID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every background attempt has finished
func (d *dispatcher) Wait() {
	d.wg.Wait()
}

// Attempt runs one registration attempt and records its outcome
func (d *dispatcher) Attempt(ctx context.Context, jobID string) (*schema.RegistrationJob, error) {
	job, err := d.store.GetRegistrationJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration job: %w", err)
	}

	unlock := d.locks.Lock(job.AssetID)
	defer unlock()

	// Another attempt may have finished while waiting for the lock
	job, err = d.store.GetRegistrationJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration job: %w", err)
	}
	if !job.Status.IsRetryable() {
		logger.DebugCtx(ctx, "Registration job not retryable, skipping",
			zap.String("job_id", job.ID),
			zap.String("status", string(job.Status)),
		)
		return job, nil
	}

	ctx = logger.WithAsset(ctx, job.AssetID, zap.String("job_id", job.ID))
	logger.InfoCtx(ctx, "Attempting external registration", zap.Int("attempt", job.Attempts+1))

	reference, regErr := d.registrar.Register(ctx, job.AssetID, job.Fingerprint)
	if regErr != nil {
		return d.recordFailure(ctx, job, regErr)
	}

	now := d.clock.Now()
	updated, err := d.store.CompleteRegistrationJob(ctx, store.CompleteRegistrationJobInput{
		JobID:       job.ID,
		Reference:   reference,
		CompletedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete registration job: %w", err)
	}

	d.metrics.ObserveRegistration(string(updated.Status))
	logger.InfoCtx(ctx, "External registration succeeded", zap.String("reference", reference))
	messaging.Notify(ctx, d.publisher, &domain.AssetEvent{
		Type:       domain.AssetEventRegistered,
		AssetID:    updated.AssetID,
		OccurredAt: now.UTC(),
		Attributes: map[string]any{
			"job_id":    updated.ID,
			"reference": reference,
		},
	})

	return updated, nil
}

func (d *dispatcher) recordFailure(ctx context.Context, job *schema.RegistrationJob, regErr error) (*schema.RegistrationJob, error) {
	attempts := job.Attempts + 1
	abandon := attempts >= d.config.MaxAttempts
	now := d.clock.Now()

	updated, err := d.store.FailRegistrationJob(ctx, store.FailRegistrationJobInput{
		JobID:         job.ID,
		Error:         regErr.Error(),
		NextAttemptAt: now.Add(d.retryDelay(attempts)),
		Abandon:       abandon,
	})
	if err != nil {
		return nil, errors.Join(regErr, fmt.Errorf("failed to record registration failure: %w", err))
	}

	d.metrics.ObserveRegistration(string(updated.Status))
	logger.ErrorCtx(ctx, fmt.Errorf("external registration failed: %w", regErr),
		zap.Int("attempts", updated.Attempts),
		zap.Bool("abandoned", abandon),
		zap.Time("next_attempt_at", updated.NextAttemptAt),
	)
	messaging.Notify(ctx, d.publisher, &domain.AssetEvent{
		Type:       domain.AssetEventRegistrationFailed,
		AssetID:    updated.AssetID,
		OccurredAt: now.UTC(),
		Attributes: map[string]any{
			"job_id":    updated.ID,
			"attempts":  updated.Attempts,
			"abandoned": abandon,
			"error":     regErr.Error(),
		},
	})

	return updated, fmt.Errorf("%w: %w", domain.ErrRegistrationFailed, regErr)
}

// retryDelay returns BaseDelay doubled per previous failure, capped at MaxDelay
func (d *dispatcher) retryDelay(attempts int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.config.BaseDelay
	b.MaxInterval = d.config.MaxDelay
	b.Multiplier = 2.0
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 1; i < attempts; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

// Retry re-queues the FAILED or ABANDONED job of an asset and dispatches it
func (d *dispatcher) Retry(ctx context.Context, assetID int64) (*schema.RegistrationJob, error) {
	job, err := d.store.RequeueRegistrationJob(ctx, assetID, d.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to requeue registration job: %w", err)
	}

	if job.Status != domain.RegistrationStatusPending {
		logger.InfoCtx(ctx, "Registration job not requeued",
			zap.Int64("asset_id", assetID),
			zap.String("status", string(job.Status)),
		)
		return job, nil
	}

	d.Dispatch(ctx, job.ID)
	return job, nil
}
