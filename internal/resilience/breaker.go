package resilience

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrCircuitOpen is returned by Allow while the breaker is open.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// Breaker is a single-host circuit breaker. After Threshold consecutive
// terminal failures it rejects calls for Cooldown, then lets one probe
// through; a successful probe closes it again.
type Breaker struct {
	mu        sync.Mutex
	failures  int
	openUntil time.Time
	probing   bool

	threshold int
	cooldown  time.Duration
}

// NewBreaker creates a Breaker. Non-positive arguments get defaults of
// 5 failures and a 60s cooldown.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &Breaker{threshold: threshold, cooldown: cooldown}
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.threshold {
		return nil
	}
	if time.Now().Before(b.openUntil) {
		return ErrCircuitOpen
	}
	// Half-open: admit a single probe per cooldown window.
	if b.probing {
		return ErrCircuitOpen
	}
	b.probing = true
	return nil
}

// Record feeds the outcome of a call back into the breaker. Transient
// errors that were retried to exhaustion count as failures; nil resets.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err == nil {
		if b.failures >= b.threshold {
			zap.L().Info("circuit closed after successful probe")
		}
		b.failures = 0
		return
	}

	b.failures++
	if b.failures == b.threshold {
		b.openUntil = time.Now().Add(b.cooldown)
		zap.L().Warn("circuit opened",
			zap.Int("consecutive_failures", b.failures),
			zap.Duration("cooldown", b.cooldown),
		)
	} else if b.failures > b.threshold {
		b.openUntil = time.Now().Add(b.cooldown)
	}
}
