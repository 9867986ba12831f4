package ratelimit_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/ratelimit"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func TestWait_UnlimitedProvider(t *testing.T) {
	l := ratelimit.New(map[string]ratelimit.Limit{
		"pex": {RequestsPerSecond: 0},
	})

	for range 100 {
		require.NoError(t, l.Wait(context.Background(), "pex"))
		require.NoError(t, l.Wait(context.Background(), "unknown"))
	}
}

func TestWait_BurstThenQueueTimeout(t *testing.T) {
	l := ratelimit.New(map[string]ratelimit.Limit{
		"audible_magic": {RequestsPerSecond: 0.1, Burst: 2, MaxQueueTime: 50 * time.Millisecond},
	})

	require.NoError(t, l.Wait(context.Background(), "audible_magic"))
	require.NoError(t, l.Wait(context.Background(), "audible_magic"))

	// Next token is ten seconds away, beyond the queue time
	start := time.Now()
	err := l.Wait(context.Background(), "audible_magic")
	assert.ErrorIs(t, err, ratelimit.ErrRateLimited)
	assert.Contains(t, err.Error(), "audible_magic")
	assert.Less(t, time.Since(start), time.Second)
}

func TestWait_ProvidersAreIndependent(t *testing.T) {
	l := ratelimit.New(map[string]ratelimit.Limit{
		"a": {RequestsPerSecond: 0.1, Burst: 1, MaxQueueTime: 10 * time.Millisecond},
		"b": {RequestsPerSecond: 0.1, Burst: 1, MaxQueueTime: 10 * time.Millisecond},
	})

	require.NoError(t, l.Wait(context.Background(), "a"))
	require.NoError(t, l.Wait(context.Background(), "b"))
	assert.ErrorIs(t, l.Wait(context.Background(), "a"), ratelimit.ErrRateLimited)
}

func TestWait_CanceledContext(t *testing.T) {
	l := ratelimit.New(map[string]ratelimit.Limit{
		"pex": {RequestsPerSecond: 0.1, Burst: 1},
	})
	require.NoError(t, l.Wait(context.Background(), "pex"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx, "pex"), ratelimit.ErrRateLimited)
}

func TestRequest(t *testing.T) {
	t.Run("nil limiter runs directly", func(t *testing.T) {
		v, err := ratelimit.Request(context.Background(), nil, "pex", func(ctx context.Context) (int, error) {
			return 7, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("returns the function error", func(t *testing.T) {
		l := ratelimit.New(nil)
		_, err := ratelimit.Request(context.Background(), l, "pex", func(ctx context.Context) (string, error) {
			return "", errors.New("boom")
		})
		assert.EqualError(t, err, "boom")
	})

	t.Run("skips the function when throttled", func(t *testing.T) {
		l := ratelimit.New(map[string]ratelimit.Limit{
			"pex": {RequestsPerSecond: 0.1, Burst: 1, MaxQueueTime: 10 * time.Millisecond},
		})
		require.NoError(t, l.Wait(context.Background(), "pex"))

		called := false
		_, err := ratelimit.Request(context.Background(), l, "pex", func(ctx context.Context) (string, error) {
			called = true
			return "ok", nil
		})
		assert.ErrorIs(t, err, ratelimit.ErrRateLimited)
		assert.False(t, called)
	})
}
