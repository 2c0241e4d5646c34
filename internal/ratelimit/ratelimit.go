// Package ratelimit implements a sliding-window request counter keyed by
// category, shared across concurrent tool invocations.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limit is one sliding-window budget: at most MaxRequests within the trailing
// Window.
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

// RateLimitError reports a rejected request and how long until the window
// frees a slot.
type RateLimitError struct {
	Category string
	ResetIn  time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: retry in %d seconds",
		e.Category, e.ResetInSeconds())
}

// ResetInSeconds returns the retry-after hint rounded up to whole seconds,
// never less than 1.
func (e *RateLimitError) ResetInSeconds() int {
	secs := int((e.ResetIn + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter tracks request timestamps per category. Categories with a configured
// Limit use it; all others fall back to the default Limit.
// Thread-safe: interleaved Check calls from concurrent invocations never
// admit more than MaxRequests per window.
type Limiter struct {
	mu           sync.Mutex
	limits       map[string]Limit
	defaultLimit Limit
	requests     map[string][]time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a Limiter with per-category limits and a default limit for
// categories not present in limits.
func New(limits map[string]Limit, defaultLimit Limit) *Limiter {
	l := &Limiter{
		limits:       make(map[string]Limit, len(limits)),
		defaultLimit: defaultLimit,
		requests:     make(map[string][]time.Time),
		stop:         make(chan struct{}),
	}
	for k, v := range limits {
		l.limits[k] = v
	}
	return l
}

// limitFor returns the budget for a category.
func (l *Limiter) limitFor(category string) Limit {
	if lim, ok := l.limits[category]; ok {
		return lim
	}
	return l.defaultLimit
}

// prune drops timestamps older than the window. Must be called with mu held.
// Returns the surviving stamps (also stored back).
func (l *Limiter) prune(category string, lim Limit, now time.Time) []time.Time {
	stamps := l.requests[category]
	cutoff := now.Add(-lim.Window)

	// Stamps are appended in order, so find the first one still inside the window
	keep := 0
	for keep < len(stamps) && !stamps[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		stamps = append([]time.Time(nil), stamps[keep:]...)
		if len(stamps) == 0 {
			delete(l.requests, category)
		} else {
			l.requests[category] = stamps
		}
	}
	return stamps
}

// Check admits or rejects one request for the category. On admit it records
// the current timestamp; on reject it returns a *RateLimitError carrying the
// time until the oldest stamp leaves the window. There is no queueing or
// backpressure, only immediate accept/reject.
func (l *Limiter) Check(category string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	lim := l.limitFor(category)
	stamps := l.prune(category, lim, now)

	if len(stamps) >= lim.MaxRequests {
		resetIn := lim.Window - now.Sub(stamps[0])
		if resetIn < 0 {
			resetIn = 0
		}
		return &RateLimitError{Category: category, ResetIn: resetIn}
	}

	l.requests[category] = append(stamps, now)
	return nil
}

// Do runs fn if the category admits another request, invoking it synchronously
// relative to the check. The limiter counts the attempt whether or not fn
// succeeds.
func (l *Limiter) Do(category string, fn func() error) error {
	if err := l.Check(category); err != nil {
		return err
	}
	return fn()
}

// Remaining reports how many more requests the category admits right now.
// Read-only with respect to counts.
func (l *Limiter) Remaining(category string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim := l.limitFor(category)
	stamps := l.prune(category, lim, time.Now())

	remaining := lim.MaxRequests - len(stamps)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// TimeToReset reports how long until the category's oldest stamp leaves the
// window, or zero when the category is idle.
func (l *Limiter) TimeToReset(category string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	lim := l.limitFor(category)
	stamps := l.prune(category, lim, now)

	if len(stamps) == 0 {
		return 0
	}
	resetIn := lim.Window - now.Sub(stamps[0])
	if resetIn < 0 {
		return 0
	}
	return resetIn
}

// Sweep removes categories whose entire window has expired, bounding memory
// for long-lived processes.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for category := range l.requests {
		l.prune(category, l.limitFor(category), now)
	}
}

// Start runs Sweep on the given interval until Stop is called.
func (l *Limiter) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep loop started by Start. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
