package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"marketdata/internal/clock"
	"marketdata/internal/provider"
	"marketdata/internal/provider/ratelimit"
)

var t0 = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func alpha(limit int) provider.Descriptor {
	return provider.Descriptor{Tag: provider.AlphaVantage, Limit: limit, Window: time.Minute, Token: "k"}
}

func TestLimiter_AdmitsUpToLimitThenDenies(t *testing.T) {
	t.Parallel()

	// Arrange: a 5/min budget on a frozen clock
	clk := clock.NewFake(t0)
	l := ratelimit.New(clk, alpha(5))

	// Act + Assert: five admissions
	for i := 0; i < 5; i++ {
		require.Truef(t, l.TryAcquire(provider.AlphaVantage).Admitted, "call %d should be admitted", i+1)
	}

	// Assert: the sixth is denied with the remaining window as retry-after
	clk.Advance(10 * time.Second)
	d := l.TryAcquire(provider.AlphaVantage)
	require.False(t, d.Admitted)
	require.Equal(t, 50*time.Second, d.RetryAfter)
	require.Equal(t, 0, l.Remaining(provider.AlphaVantage))
}

func TestLimiter_ResetsAfterWindow(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(t0)
	l := ratelimit.New(clk, alpha(1))

	require.True(t, l.TryAcquire(provider.AlphaVantage).Admitted)
	require.False(t, l.TryAcquire(provider.AlphaVantage).Admitted)

	// Act: move exactly one window forward
	clk.Advance(time.Minute)

	// Assert: budget is restored
	require.Equal(t, 1, l.Remaining(provider.AlphaVantage))
	require.True(t, l.TryAcquire(provider.AlphaVantage).Admitted)
}

func TestLimiter_DisabledAndUnknownProvidersAreDenied(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(t0)
	noToken := provider.Descriptor{Tag: provider.Finnhub, Limit: 60, Window: time.Minute}
	l := ratelimit.New(clk, noToken)

	d := l.TryAcquire(provider.Finnhub)
	require.False(t, d.Admitted)
	require.Equal(t, time.Minute, d.RetryAfter)

	require.False(t, l.TryAcquire(provider.Polygon).Admitted)
}

func TestLimiter_ConcurrentCallersNeverExceedBudget(t *testing.T) {
	t.Parallel()

	// Arrange
	clk := clock.NewFake(t0)
	l := ratelimit.New(clk, alpha(5))

	// Act: 64 goroutines race for 5 slots
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire(provider.AlphaVantage).Admitted {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	// Assert
	require.EqualValues(t, 5, admitted.Load())
}

func TestPacer_SpacesConsecutiveCalls(t *testing.T) {
	t.Parallel()

	p := &ratelimit.Pacer{Interval: 20 * time.Millisecond}
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(t.Context()))
	}
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPacer_ReturnsOnCancel(t *testing.T) {
	t.Parallel()

	p := &ratelimit.Pacer{Interval: time.Hour}
	require.NoError(t, p.Wait(t.Context()))

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, p.Wait(ctx), context.DeadlineExceeded)
}
