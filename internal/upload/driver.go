package upload

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ytupload/internal/logging"
	"ytupload/internal/metrics"
	"ytupload/internal/retry"
)

// State is a step of the transfer state machine.
type State int

const (
	Sending State = iota
	Backoff
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Sending:
		return "sending"
	case Backoff:
		return "backoff"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Driver runs ChunkTransfers to completion. A Driver holds no per-transfer
// state and may be reused sequentially.
type Driver struct {
	backoff  retry.Backoff
	classify retry.Classifier
	sleep    func(ctx context.Context, d time.Duration) error
	onState  func(State)
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithBackoff overrides the retry schedule.
func WithBackoff(b retry.Backoff) DriverOption {
	return func(d *Driver) { d.backoff = b }
}

// WithClassifier overrides Classify.
func WithClassifier(c retry.Classifier) DriverOption {
	return func(d *Driver) { d.classify = c }
}

// WithSleep replaces the blocking delay between attempts.
func WithSleep(sleep func(time.Duration)) DriverOption {
	return func(d *Driver) {
		d.sleep = func(_ context.Context, dur time.Duration) error {
			sleep(dur)
			return nil
		}
	}
}

// WithOnState registers a hook called on every state transition.
func WithOnState(fn func(State)) DriverOption {
	return func(d *Driver) { d.onState = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) DriverOption {
	return func(d *Driver) { d.logger = logging.OrNop(logger) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) DriverOption {
	return func(d *Driver) { d.metrics = m }
}

// NewDriver creates a Driver with the default backoff of ten retries.
func NewDriver(opts ...DriverOption) *Driver {
	d := &Driver{
		backoff:  retry.DefaultBackoff(),
		classify: Classify,
		sleep:    sleepContext,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run drives t until it completes and returns the remote item ID.
//
// Retriable failures are counted across the whole transfer and are followed
// by a full-jitter delay. The first failure past the ceiling returns a
// *RetryCeilingError; any fatal failure returns a *FatalTransferError at once.
func (d *Driver) Run(ctx context.Context, t ChunkTransfer) (string, error) {
	retries := 0
	for {
		d.enter(Sending)
		resp, err := t.NextChunk(ctx)
		if err == nil {
			if resp == nil {
				continue
			}
			if resp.ID == "" {
				d.enter(Aborted)
				d.logger.Error("upload finished without an item id", zap.ByteString("response", resp.Body))
				return "", &FatalTransferError{Err: ErrUnexpectedResponse}
			}
			d.enter(Completed)
			return resp.ID, nil
		}

		outcome := d.classify(err)
		if !outcome.Retriable() {
			d.enter(Aborted)
			return "", &FatalTransferError{Err: err}
		}

		retries++
		d.metrics.RecordRetry()
		if d.backoff.Exhausted(retries) {
			d.enter(Aborted)
			return "", &RetryCeilingError{Retries: d.backoff.MaxRetries, Last: err}
		}

		delay := d.backoff.Delay(retries)
		d.logger.Warn("retriable upload error, backing off",
			zap.Int("retry", retries),
			zap.Duration("sleep", delay),
			zap.Error(err))

		d.enter(Backoff)
		if err := d.sleep(ctx, delay); err != nil {
			d.enter(Aborted)
			return "", &FatalTransferError{Err: err}
		}
	}
}

func (d *Driver) enter(s State) {
	if d.onState != nil {
		d.onState(s)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
