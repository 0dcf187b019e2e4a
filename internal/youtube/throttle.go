package youtube

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRPS is the steady Data API request rate.
	DefaultRPS = 5.0
	// CooldownPeriod is how long after the last rate-limit error the
	// original rate is restored.
	CooldownPeriod = 5 * time.Minute
	// MinRPSMultiplier is the floor of dynamic rate reduction.
	MinRPSMultiplier = 0.25
)

// Throttle paces Data API calls with a token bucket and slows down when the
// API reports rate limiting.
type Throttle struct {
	limiter *rate.Limiter
	now     func() time.Time

	mu                sync.Mutex
	originalRPS       float64
	consecutiveErrors int
	lastError         time.Time
}

// NewThrottle creates a throttle allowing rps requests per second, burst 1.
// rps <= 0 disables throttling.
func NewThrottle(rps float64) *Throttle {
	if rps <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 1), now: time.Now}
	}
	return &Throttle{
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		originalRPS: rps,
		now:         time.Now,
	}
}

// Wait blocks until a request may be sent.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

// RecordRateLimit lowers the rate after a rate-limit response: 75% of the
// original after the first error, 50% after the second and 25% after that.
func (t *Throttle) RecordRateLimit() {
	if t == nil || t.originalRPS == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.consecutiveErrors++
	t.lastError = t.now()

	factor := 0.75
	switch {
	case t.consecutiveErrors >= 3:
		factor = MinRPSMultiplier
	case t.consecutiveErrors == 2:
		factor = 0.5
	}
	t.limiter.SetLimit(rate.Limit(t.originalRPS * factor))
}

// RecordSuccess restores the original rate once CooldownPeriod has passed
// since the last rate-limit error.
func (t *Throttle) RecordSuccess() {
	if t == nil || t.originalRPS == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.consecutiveErrors == 0 {
		return
	}
	if t.now().Sub(t.lastError) > CooldownPeriod {
		t.consecutiveErrors = 0
		t.limiter.SetLimit(rate.Limit(t.originalRPS))
	}
}

// Limit returns the current rate.
func (t *Throttle) Limit() float64 {
	return float64(t.limiter.Limit())
}
