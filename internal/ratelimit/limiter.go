package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bomac1193/Issuance/internal/logger"
)

const (
	DEFAULT_BURST          = 1
	DEFAULT_MAX_QUEUE_TIME = 30 * time.Second
)

// ErrRateLimited is returned when no call slot became free within the queue time
var ErrRateLimited = errors.New("rate limit wait exceeded")

// Limit is the call budget of one provider
type Limit struct {
	// RequestsPerSecond of zero or less leaves the provider unlimited
	RequestsPerSecond float64
	Burst             int
	// MaxQueueTime bounds how long a call waits for a slot
	MaxQueueTime time.Duration
}

// Limiter throttles outbound calls per provider
//
//go:generate mockgen -source=limiter.go -destination=../mocks/ratelimit.go -package=mocks -mock_names=Limiter=MockRateLimiter
type Limiter interface {
	// Wait blocks until a call to the provider is allowed
	Wait(ctx context.Context, provider string) error
}

type providerLimiter struct {
	limit Limit
	local *rate.Limiter
}

type limiter struct {
	limiters map[string]*providerLimiter
}

// New creates a limiter with one token bucket per limited provider
func New(limits map[string]Limit) Limiter {
	limiters := make(map[string]*providerLimiter, len(limits))
	for name, limit := range limits {
		if limit.RequestsPerSecond <= 0 {
			continue
		}
		if limit.Burst <= 0 {
			limit.Burst = DEFAULT_BURST
		}
		if limit.MaxQueueTime <= 0 {
			limit.MaxQueueTime = DEFAULT_MAX_QUEUE_TIME
		}

		limiters[name] = &providerLimiter{
			limit: limit,
			local: rate.NewLimiter(rate.Limit(limit.RequestsPerSecond), limit.Burst),
		}
		logger.Debug("Provider rate limit configured",
			zap.String("provider", name),
			zap.Float64("requests_per_second", limit.RequestsPerSecond),
			zap.Int("burst", limit.Burst),
		)
	}

	return &limiter{limiters: limiters}
}

// Wait blocks until the provider's bucket has a token, the queue time passes or ctx ends
func (l *limiter) Wait(ctx context.Context, provider string) error {
	pl, ok := l.limiters[provider]
	if !ok {
		return nil
	}

	queueCtx, cancel := context.WithTimeout(ctx, pl.limit.MaxQueueTime)
	defer cancel()

	if err := pl.local.Wait(queueCtx); err != nil {
		return fmt.Errorf("%w: provider %s: %w", ErrRateLimited, provider, err)
	}
	return nil
}

// Request runs fn once the limiter allows a call to provider.
// A nil limiter runs fn directly.
func Request[T any](ctx context.Context, l Limiter, provider string, fn func(ctx context.Context) (T, error)) (T, error) {
	if l == nil {
		return fn(ctx)
	}

	if err := l.Wait(ctx, provider); err != nil {
		var zero T
		return zero, err
	}
	return fn(ctx)
}
