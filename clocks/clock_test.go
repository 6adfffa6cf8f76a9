package clocks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"reduction.dev/h2ofixture/clocks"
)

func TestFrozenClock_SleepAdvancesWithoutBlocking(t *testing.T) {
	clock := clocks.NewFrozenClock()
	start := clock.Now()

	began := time.Now()
	for range 5 {
		clock.Sleep(time.Hour)
	}
	assert.Less(t, time.Since(began), time.Second, "frozen sleeps return immediately")

	assert.Equal(t, start.Add(5*time.Hour), clock.Now())
	slept, count := clock.Slept()
	assert.Equal(t, 5*time.Hour, slept)
	assert.Equal(t, 5, count)
}

func TestFrozenClock_TickEvery(t *testing.T) {
	clock := clocks.NewFrozenClock()

	calls := 0
	ticker := clock.Every(time.Second, func() { calls++ }, "progress")

	clock.TickEvery("progress")
	clock.TickEvery("progress")
	assert.Equal(t, 2, calls)

	ticker.Stop()
	assert.Panics(t, func() { clock.TickEvery("progress") }, "stopped tickers are unregistered")
}

func TestFrozenClock_SleepContextWaitsForAdvance(t *testing.T) {
	clock := clocks.NewFrozenClock()

	done := make(chan error, 1)
	go func() { done <- clock.SleepContext(t.Context(), 200*time.Millisecond) }()

	require.Eventually(t, func() bool { return clock.Waiting() == 1 }, time.Second, time.Millisecond)

	clock.Advance(100 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("wait returned before its deadline")
	case <-time.After(10 * time.Millisecond):
	}

	clock.Advance(100 * time.Millisecond)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait never returned")
	}

	assert.Equal(t, []time.Duration{200 * time.Millisecond}, clock.Waits())
	assert.Equal(t, 0, clock.Waiting())
}

func TestFrozenClock_SleepContextCanceled(t *testing.T) {
	clock := clocks.NewFrozenClock()
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)
	go func() { done <- clock.SleepContext(ctx, time.Hour) }()

	require.Eventually(t, func() bool { return clock.Waiting() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("wait ignored cancellation")
	}
	assert.Equal(t, 0, clock.Waiting())
}

func TestSystemClock_EveryTicks(t *testing.T) {
	clock := clocks.NewSystemClock()

	ticked := make(chan struct{}, 1)
	ticker := clock.Every(time.Millisecond, func() {
		select {
		case ticked <- struct{}{}:
		default:
		}
	}, "test")
	defer ticker.Stop()

	select {
	case <-ticked:
	case <-time.After(5 * time.Second):
		t.Fatal("ticker never fired")
	}
}

func TestSystemClock_SleepContext(t *testing.T) {
	clock := clocks.NewSystemClock()

	assert.NoError(t, clock.SleepContext(t.Context(), time.Millisecond))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.ErrorIs(t, clock.SleepContext(ctx, time.Hour), context.Canceled)
}
