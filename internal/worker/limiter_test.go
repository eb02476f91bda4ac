package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLimiter_New(t *testing.T) {
	assert.Equal(t, 5, NewLimiter(10, 5).defaultBurst)
	assert.Equal(t, 1, NewLimiter(10, -1).defaultBurst)
	assert.Equal(t, rate.Inf, NewLimiter(0, 1).defaultRate)
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "http://example.com/foo"))
	require.NoError(t, limiter.Wait(ctx, "http://example.org"))
	assert.Len(t, limiter.limiters, 2, "one limiter per host")
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 50; i++ {
		require.NoError(t, limiter.Wait(ctx, "http://example.com"))
	}
	assert.Less(t, time.Since(start), time.Second, "rate 0 must not throttle")
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(0, 1)
	ctx := context.Background()

	limiter.SetHostRate("slow.example", 20, 1)
	assert.Equal(t, rate.Limit(20), limiter.forHost("slow.example").Limit())
	assert.Equal(t, rate.Inf, limiter.forHost("fast.example").Limit())

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, "http://slow.example/a"))
	require.NoError(t, limiter.Wait(ctx, "http://slow.example/b"))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestLimiter_SetHostRateKeepsExistingLimiter(t *testing.T) {
	limiter := NewLimiter(0, 1)
	limiter.SetHostRate("h", 2, 1)
	first := limiter.forHost("h")

	limiter.SetHostRate("h", 2, 1)
	assert.Same(t, first, limiter.forHost("h"))

	limiter.SetHostRate("h", 4, 1)
	assert.NotSame(t, first, limiter.forHost("h"))
}

func TestLimiter_Cancelled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, limiter.Wait(ctx, "http://example.com"))

	cancel()
	assert.Error(t, limiter.Wait(ctx, "http://example.com"))
}

func TestLimiter_BadURL(t *testing.T) {
	assert.Error(t, NewLimiter(1, 1).Wait(context.Background(), "://bad"))
}
