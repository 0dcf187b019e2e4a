// Package retry provides error classification and exponential backoff with jitter.
//
// Retry decisions are plain data: a Classifier turns an error into an Outcome
// tagged Retriable or Fatal, and callers match on the tag instead of
// inspecting error types at every call site.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Kind tags an Outcome.
type Kind int

const (
	// Fatal errors end the operation immediately.
	Fatal Kind = iota
	// Retriable errors are transient and may succeed on another attempt.
	Retriable
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Retriable:
		return "retriable"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is the classified result of a failed attempt.
type Outcome struct {
	Kind Kind
	Err  error
}

// Retry builds a retriable outcome.
func Retry(err error) Outcome { return Outcome{Kind: Retriable, Err: err} }

// Stop builds a fatal outcome.
func Stop(err error) Outcome { return Outcome{Kind: Fatal, Err: err} }

// Retriable reports whether the outcome allows another attempt.
func (o Outcome) Retriable() bool { return o.Kind == Retriable }

// Classifier maps an error to an Outcome.
type Classifier func(error) Outcome

// DefaultClassifier treats context errors as fatal and everything else as retriable.
func DefaultClassifier(err error) Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Stop(err)
	}
	return Retry(err)
}

// Config holds retry configuration for Do.
type Config struct {
	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int
	// InitialBackoff is the initial delay before retrying.
	InitialBackoff time.Duration
	// MaxBackoff is the maximum delay between retries.
	MaxBackoff time.Duration
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64
	// JitterFraction is the fraction of backoff used for jitter (0.0-1.0).
	JitterFraction float64
}

// DefaultConfig returns sensible defaults for idempotent API calls.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     5,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2, // +/- 20% jitter
	}
}

// Do executes fn with retry logic, using classifier to decide whether a
// failure may be retried. A nil classifier means DefaultClassifier.
func Do(ctx context.Context, cfg Config, classifier Classifier, fn func(context.Context) error) error {
	if classifier == nil {
		classifier = DefaultClassifier
	}

	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !classifier(err).Retriable() {
			return err
		}

		// Last attempt, don't sleep
		if attempt == cfg.MaxRetries {
			break
		}

		sleep := backoff + jitter(backoff, cfg.JitterFraction)
		if sleep > cfg.MaxBackoff {
			sleep = cfg.MaxBackoff
		}

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}

		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return &RetryableError{Err: lastErr, Retries: cfg.MaxRetries}
}

// jitter returns a random duration in range [-jitterFraction*d, +jitterFraction*d].
func jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return 0
	}
	jitterRange := float64(d) * fraction
	jitterValue := (rand.Float64() - 0.5) * 2 * jitterRange
	return time.Duration(jitterValue)
}

// RetryableError is returned by Do when retries were exhausted on a retriable error.
type RetryableError struct {
	Err     error
	Retries int
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("failed after %d retries: %v", e.Retries, e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}
