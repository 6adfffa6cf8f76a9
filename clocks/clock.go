package clocks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	// Sleep blocks the caller for d. It can't be interrupted.
	Sleep(d time.Duration)
	// SleepContext blocks the caller for d or until ctx is done, returning
	// ctx's error in the latter case.
	SleepContext(ctx context.Context, d time.Duration) error
	Every(d time.Duration, fn func(), label string) *Ticker
}

type Ticker struct {
	cancel context.CancelFunc
}

func (t *Ticker) Stop() {
	t.cancel()
}

type SystemClock struct{}

func (c *SystemClock) Every(d time.Duration, fn func(), _label string) *Ticker {
	ticker := time.NewTicker(d)

	// Context used to stop all future fn calls
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-ctx.Done():
				return
			}
		}
	}()

	return &Ticker{cancel: cancel}
}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Now() time.Time {
	return time.Now()
}

func (c *SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

func (c *SystemClock) SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ Clock = (*SystemClock)(nil)

// FrozenClock only moves when told to. Sleep advances it instantly so paced
// code runs at full speed in tests. SleepContext blocks until Advance moves
// the clock past the wait's deadline.
type FrozenClock struct {
	now        time.Time
	slept      time.Duration
	sleeps     int
	waits      []time.Duration
	waiters    map[*waiter]struct{}
	everyFuncs map[string]func()
	mu         *sync.Mutex
}

type waiter struct {
	deadline time.Time
	done     chan struct{}
}

// Every for FrozenClock registers fn to be called by TickEvery.
func (c *FrozenClock) Every(d time.Duration, fn func(), label string) *Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.everyFuncs[label] = fn

	return &Ticker{
		cancel: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.everyFuncs, label)
		},
	}
}

func NewFrozenClock() *FrozenClock {
	return &FrozenClock{
		now:        time.Unix(0, 0),
		waiters:    make(map[*waiter]struct{}),
		everyFuncs: make(map[string]func()),
		mu:         &sync.Mutex{},
	}
}

func (c *FrozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and releases every SleepContext call
// whose deadline has passed.
func (c *FrozenClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance(d)
}

func (c *FrozenClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
	for w := range c.waiters {
		if !w.deadline.After(c.now) {
			close(w.done)
			delete(c.waiters, w)
		}
	}
}

func (c *FrozenClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance(d)
	c.slept += d
	c.sleeps++
}

func (c *FrozenClock) SleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.waits = append(c.waits, d)
	w := &waiter{deadline: c.now.Add(d), done: make(chan struct{})}
	if d <= 0 {
		c.mu.Unlock()
		return nil
	}
	c.waiters[w] = struct{}{}
	c.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.waiters, w)
		c.mu.Unlock()
		return ctx.Err()
	}
}

// Slept returns the total duration and number of Sleep calls so far.
func (c *FrozenClock) Slept() (time.Duration, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept, c.sleeps
}

// Waits returns the duration of every SleepContext call so far.
func (c *FrozenClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

// Waiting returns the number of SleepContext calls blocked on Advance.
func (c *FrozenClock) Waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *FrozenClock) TickEvery(label string) {
	c.mu.Lock()
	fn := c.everyFuncs[label]
	c.mu.Unlock()

	if fn == nil {
		panic(fmt.Sprintf("FrozenClock has no `every` func registered for label %s", label))
	}
	fn()
}

var _ Clock = (*FrozenClock)(nil)
