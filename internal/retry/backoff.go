package retry

import (
	"math/rand"
	"time"
)

// maxShift keeps Base<<retry inside time.Duration range.
const maxShift = 32

// Backoff is a full-jitter exponential schedule: the delay before retry n is
// drawn uniformly from [0, Base*2^n). Growth is unbounded; MaxRetries is the
// only ceiling.
type Backoff struct {
	// Base is the unit of the exponential window.
	Base time.Duration
	// MaxRetries is the number of retries allowed before giving up.
	MaxRetries int
	// Rand returns a value in [0, 1). Defaults to math/rand.Float64.
	Rand func() float64
}

// DefaultBackoff is the resumable upload schedule: seconds, ten retries.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:       time.Second,
		MaxRetries: 10,
	}
}

// Window returns the upper bound of the delay for retry n.
func (b Backoff) Window(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > maxShift {
		n = maxShift
	}
	return b.Base * time.Duration(int64(1)<<uint(n))
}

// Delay returns a random delay in [0, Window(n)).
func (b Backoff) Delay(n int) time.Duration {
	rnd := b.Rand
	if rnd == nil {
		rnd = rand.Float64
	}
	return time.Duration(rnd() * float64(b.Window(n)))
}

// Exhausted reports whether retry n is past the ceiling.
func (b Backoff) Exhausted(n int) bool {
	return n > b.MaxRetries
}
