package tools

// limiter.go bounds how many tool calls run at once.
//
// Every call holds a slot for the duration of its fetch and pipeline. When all
// slots are taken a new call waits up to maxWait, then fails with
// ErrTooManyCalls. WaitForDrain lets shutdown wait for in-flight calls.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyCalls is returned when no slot frees up within the wait limit.
var ErrTooManyCalls = errors.New("too many concurrent calls, please try again later")

// DefaultMaxConcurrentCalls is the default limit for parallel calls.
const DefaultMaxConcurrentCalls = 16

// DefaultMaxWait is how long a call waits for a slot before giving up.
const DefaultMaxWait = 10 * time.Second

// CallLimiter is a counting semaphore over tool calls.
type CallLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed while active == 0
}

// NewCallLimiter allows at most maxConcurrent simultaneous calls. Values
// below one take the defaults.
func NewCallLimiter(maxConcurrent int, maxWait time.Duration) *CallLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentCalls
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	idle := make(chan struct{})
	close(idle)
	return &CallLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    idle,
	}
}

// Acquire takes a slot, waiting up to the limiter's maxWait. It returns
// ErrTooManyCalls on timeout or ctx.Err() if ctx ends first.
// The caller must Release a slot it acquired.
func (l *CallLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.inc()
		return nil
	case <-timer.C:
		return ErrTooManyCalls
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *CallLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.inc()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *CallLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

func (l *CallLimiter) inc() {
	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
}

// WaitForDrain blocks until no call holds a slot or ctx ends.
func (l *CallLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a snapshot of a CallLimiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for health checks.
func (l *CallLimiter) Status() LimiterStatus {
	l.mu.Lock()
	active := l.active
	l.mu.Unlock()

	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - active,
		MaxConcurrent: cap(l.slots),
	}
}
