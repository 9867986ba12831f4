package rightscheck

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/config"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/metrics"
)

// Outcome is the combined result of every provider
type Outcome string

const (
	// OutcomeMatch means at least one provider matched, whatever the others did
	OutcomeMatch Outcome = "MATCH"
	// OutcomeNoMatch means every provider answered and none matched
	OutcomeNoMatch Outcome = "NO_MATCH"
	// OutcomeIndeterminate means none matched but at least one provider could not answer
	OutcomeIndeterminate Outcome = "INDETERMINATE"
)

const (
	DEFAULT_PROVIDER_TIMEOUT = 10 * time.Second
	DEFAULT_PROVIDER_RETRIES = 1
	DEFAULT_RETRY_INTERVAL   = 250 * time.Millisecond
	DEFAULT_MAX_CONCURRENCY  = 16
)

// Config holds aggregator configuration
type Config struct {
	// Timeout bounds a single provider call
	Timeout time.Duration
	// Retries is the number of extra attempts after a failed call
	Retries int
	// RetryInterval is the initial backoff between attempts
	RetryInterval time.Duration
	// MaxConcurrency bounds provider calls in flight across all checks
	MaxConcurrency int
}

// DefaultConfig returns the default aggregator configuration
func DefaultConfig() Config {
	return Config{
		Timeout:        DEFAULT_PROVIDER_TIMEOUT,
		Retries:        DEFAULT_PROVIDER_RETRIES,
		RetryInterval:  DEFAULT_RETRY_INTERVAL,
		MaxConcurrency: DEFAULT_MAX_CONCURRENCY,
	}
}

// ConfigFrom converts loaded clearance configuration
func ConfigFrom(cfg config.ClearanceConfig) Config {
	c := DefaultConfig()
	if cfg.ProviderTimeout > 0 {
		c.Timeout = cfg.ProviderTimeout
	}
	if cfg.ProviderRetries >= 0 {
		c.Retries = cfg.ProviderRetries
	}
	return c
}

// ProviderResult is the audit record of one provider's participation in a check
type ProviderResult struct {
	Provider string   `json:"provider"`
	Verdict  *Verdict `json:"verdict,omitempty"`
	Error    string   `json:"error,omitempty"`
	Attempts int      `json:"attempts"`
	// Duration covers every attempt including backoff waits
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the provider never produced a verdict
func (r ProviderResult) Failed() bool {
	return r.Verdict == nil
}

// AggregateVerdict is the combined verdict plus every provider's result, in provider registration order
type AggregateVerdict struct {
	Outcome Outcome          `json:"outcome"`
	Results []ProviderResult `json:"results"`
}

// Matched reports whether any provider matched
func (v AggregateVerdict) Matched() bool {
	return v.Outcome == OutcomeMatch
}

// Err returns the provider failures joined, or nil when every provider answered
func (v AggregateVerdict) Err() error {
	var errs []error
	for _, r := range v.Results {
		if r.Failed() {
			errs = append(errs, &ProviderError{Provider: r.Provider, Attempts: r.Attempts, Err: errors.New(r.Error)})
		}
	}
	return errors.Join(errs...)
}

// Aggregator queries every configured provider concurrently and ORs their verdicts
type Aggregator struct {
	config    Config
	providers []Provider
	pool      pond.ResultPool[ProviderResult]
	clock     adapter.Clock
	metrics   *metrics.Metrics
}

// NewAggregator creates an aggregator over a fixed provider set
func NewAggregator(cfg Config, clock adapter.Clock, m *metrics.Metrics, providers ...Provider) (*Aggregator, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one rights-check provider is required")
	}

	seen := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		if p == nil {
			return nil, errors.New("rights-check provider cannot be nil")
		}
		if _, ok := seen[p.Name()]; ok {
			return nil, fmt.Errorf("duplicate rights-check provider %q", p.Name())
		}
		seen[p.Name()] = struct{}{}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DEFAULT_PROVIDER_TIMEOUT
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DEFAULT_RETRY_INTERVAL
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DEFAULT_MAX_CONCURRENCY
	}

	return &Aggregator{
		config:    cfg,
		providers: providers,
		pool:      pond.NewResultPool[ProviderResult](cfg.MaxConcurrency),
		clock:     clock,
		metrics:   m,
	}, nil
}

// Check queries every provider and waits for all of them before combining
func (a *Aggregator) Check(ctx context.Context, fingerprint string) AggregateVerdict {
	tasks := make([]pond.Result[ProviderResult], len(a.providers))
	for i, p := range a.providers {
		tasks[i] = a.pool.Submit(func() ProviderResult {
			return a.checkProvider(ctx, p, fingerprint)
		})
	}

	results := make([]ProviderResult, len(a.providers))
	for i, task := range tasks {
		result, err := task.Wait()
		if err != nil {
			// Pool stopped or the task panicked
			result = ProviderResult{Provider: a.providers[i].Name(), Error: err.Error()}
		}
		results[i] = result
	}

	return AggregateVerdict{
		Outcome: combine(results),
		Results: results,
	}
}

// Close stops the worker pool and waits for in-flight calls
func (a *Aggregator) Close() {
	a.pool.StopAndWait()
}

func (a *Aggregator) checkProvider(ctx context.Context, p Provider, fingerprint string) ProviderResult {
	name := p.Name()
	start := a.clock.Now()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.config.RetryInterval
	b.MaxInterval = 10 * a.config.RetryInterval
	b.MaxElapsedTime = 0
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(a.config.Retries)), ctx)

	var (
		verdict  Verdict
		attempts int
	)
	operation := func() error {
		attempts++
		callCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()

		v, err := p.Check(callCtx, fingerprint)
		if err != nil {
			return err
		}
		verdict = v
		return nil
	}
	notify := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "Rights-check provider failed, retrying",
			zap.String("provider", name),
			zap.Int("attempt", attempts),
			zap.Duration("next_retry_in", next),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(operation, policy, notify)
	result := ProviderResult{
		Provider: name,
		Attempts: attempts,
		Duration: a.clock.Since(start),
	}
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("rights-check provider %s unavailable: %w", name, err),
			zap.String("provider", name),
			zap.Int("attempts", attempts),
		)
		a.metrics.ObserveProviderFailure(name)
		result.Error = err.Error()
		return result
	}

	verdict.Confidence = clampConfidence(verdict.Confidence)
	result.Verdict = &verdict
	return result
}

// combine ORs the verdicts. A failure only matters when nobody matched.
func combine(results []ProviderResult) Outcome {
	failed := false
	for _, r := range results {
		if r.Failed() {
			failed = true
			continue
		}
		if r.Verdict.Matched {
			return OutcomeMatch
		}
	}
	if failed {
		return OutcomeIndeterminate
	}
	return OutcomeNoMatch
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
