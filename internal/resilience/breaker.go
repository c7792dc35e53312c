// Package resilience guards calls to the model backend.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Strob0t/StatForge/internal/domain"
)

// ErrCircuitOpen rejects calls while the backend is considered down.
// It matches domain.ErrUnavailable.
var ErrCircuitOpen = fmt.Errorf("circuit breaker is open: %w", domain.ErrUnavailable)

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker opens after maxFailures consecutive backend failures and rejects
// calls until cooldown has passed. It then lets exactly one probe through;
// the probe's outcome closes or re-opens the circuit. A cancelled caller
// says nothing about the backend and is not counted, and neither is an
// error whose BackendFault method returns false.
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	state    state
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates a closed breaker. name appears in transition logs.
func NewBreaker(name string, maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		now:         time.Now,
	}
}

// Execute runs fn unless the circuit is open or a probe is already in flight.
func (b *Breaker) Execute(fn func() error) error {
	probe, ok := b.acquire()
	if !ok {
		return ErrCircuitOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if probe {
		b.probing = false
	}
	switch {
	case err == nil:
		b.recordSuccess()
	case isFault(err):
		b.recordFailure(err)
	}
	return err
}

func isFault(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var f interface{ BackendFault() bool }
	if errors.As(err, &f) {
		return f.BackendFault()
	}
	return true
}

// acquire reports whether a call may proceed and whether it is the half-open probe.
func (b *Breaker) acquire() (probe, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		b.transition(stateHalfOpen)
	}
	switch b.state {
	case stateClosed:
		return false, true
	case stateHalfOpen:
		if b.probing {
			return false, false
		}
		b.probing = true
		return true, true
	default:
		return false, false
	}
}

// recordFailure must be called with b.mu held.
func (b *Breaker) recordFailure(err error) {
	b.failures++
	if b.state == stateHalfOpen || b.failures >= b.maxFailures {
		b.openedAt = b.now()
		if b.state != stateOpen {
			slog.Warn("circuit opened", "breaker", b.name, "failures", b.failures, "cooldown", b.cooldown, "error", err)
		}
		b.transition(stateOpen)
	}
}

// recordSuccess must be called with b.mu held.
func (b *Breaker) recordSuccess() {
	b.failures = 0
	if b.state != stateClosed {
		slog.Info("circuit closed", "breaker", b.name)
	}
	b.transition(stateClosed)
}

func (b *Breaker) transition(to state) {
	if b.state != to {
		slog.Debug("circuit state change", "breaker", b.name, "from", b.state.String(), "to", to.String())
	}
	b.state = to
}

// State reports "closed", "open" or "half-open".
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == stateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return stateHalfOpen.String()
	}
	return b.state.String()
}
