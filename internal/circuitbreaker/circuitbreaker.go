package circuitbreaker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State is the circuit breaker state (Closed, Open, HalfOpen).
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned while the circuit refuses calls.
var ErrOpen = fmt.Errorf("circuit breaker open")

// Config holds circuit breaker parameters. Zero values fall back to
// defaults (5 failures to open, 2 successes to close, 30s open timeout).
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	Component        string
	OnStateChange    func(from, to State)
}

// CircuitBreaker protects upstream calls by opening after repeated failures
// and allowing probe requests in half-open state after the open timeout.
type CircuitBreaker struct {
	cfg Config

	mu              sync.RWMutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
}

// New creates a CircuitBreaker with the given config.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Call runs fn when the circuit allows it. While open, returns ErrOpen until
// the timeout has elapsed, then admits one probe in half-open state. A
// failure in half-open (or reaching the failure threshold while closed)
// opens the circuit; enough successes in half-open close it again.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	return cb.record(fn())
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	if cb.state != StateOpen {
		cb.mu.Unlock()
		return nil
	}
	if time.Since(cb.lastFailureTime) < cb.cfg.Timeout {
		cb.mu.Unlock()
		return ErrOpen
	}
	cb.state = StateHalfOpen
	cb.successCount = 0
	cb.mu.Unlock()
	cb.notify(StateOpen, StateHalfOpen)
	return nil
}

func (cb *CircuitBreaker) record(err error) error {
	var from, to State
	changed := false

	cb.mu.Lock()
	if err != nil {
		cb.failureCount++
		cb.lastFailureTime = time.Now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.cfg.FailureThreshold {
			from, to = cb.state, StateOpen
			changed = from != to
			cb.state = StateOpen
			cb.failureCount = 0
		}
	} else {
		cb.successCount++
		cb.failureCount = 0
		if cb.state == StateHalfOpen && cb.successCount >= cb.cfg.SuccessThreshold {
			from, to = StateHalfOpen, StateClosed
			changed = true
			cb.state = StateClosed
			cb.successCount = 0
		}
	}
	cb.mu.Unlock()

	if changed {
		cb.notify(from, to)
	}
	return err
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(from, to)
	}
}

// State returns the current state (for metrics).
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
