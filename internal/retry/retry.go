// Package retry runs an operation under a bounded, fixed-interval retry policy.
//
// A policy is a fixed number of attempts separated by a constant wait. Waits
// go through a backoff.Timer, which callers may replace.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is matched by the error Do returns once every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Timer is the wait abstraction used between attempts.
type Timer = backoff.Timer

// Policy bounds how an operation is retried.
type Policy struct {
	// Attempts is the total number of calls, including the first one.
	Attempts int
	// Interval is the wait between two attempts.
	Interval time.Duration
}

// DefaultPolicy is five attempts 300ms apart.
var DefaultPolicy = Policy{
	Attempts: 5,
	Interval: 300 * time.Millisecond,
}

// Validate reports whether the policy can be run.
func (p Policy) Validate() error {
	if p.Attempts < 1 {
		return fmt.Errorf("retry policy needs at least one attempt, got %d", p.Attempts)
	}
	if p.Interval < 0 {
		return fmt.Errorf("retry interval must not be negative, got %s", p.Interval)
	}
	return nil
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrExhausted, e.Attempts, e.Last)
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// NotifyFunc observes a failed attempt before the wait that follows it.
type NotifyFunc func(attempt int, err error, next time.Duration)

type options struct {
	timer  Timer
	notify NotifyFunc
}

// Option customizes a single Do call.
type Option func(*options)

// WithTimer replaces the wall-clock timer used between attempts.
func WithTimer(t Timer) Option {
	return func(o *options) {
		o.timer = t
	}
}

// WithNotify registers fn to be called after every failed attempt that will be retried.
func WithNotify(fn NotifyFunc) Option {
	return func(o *options) {
		o.notify = fn
	}
}

// Permanent marks err as not worth retrying. Do returns it unwrapped.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls op until it succeeds, returns a permanent error, ctx is done, or
// the policy runs out of attempts. Once every attempt has been made the
// result is an *ExhaustedError, even if ctx expired after the last one; ctx's
// error is returned only when it cut the attempts short.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, opts ...Option) error {
	if err := p.Validate(); err != nil {
		return err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var (
		attempts int
		last     error
	)
	operation := func() error {
		attempts++
		last = op(ctx)
		return last
	}

	var notify backoff.Notify
	if o.notify != nil {
		notify = func(err error, next time.Duration) {
			o.notify(attempts, err, next)
		}
	}

	// WithMaxRetries treats zero as unlimited.
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if p.Attempts > 1 {
		policy = backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Interval), uint64(p.Attempts-1))
	}

	err := backoff.RetryNotifyWithTimer(operation, backoff.WithContext(policy, ctx), notify, o.timer)
	if err == nil {
		return nil
	}

	var permanent *backoff.PermanentError
	if errors.As(last, &permanent) {
		return err
	}
	if attempts >= p.Attempts {
		return &ExhaustedError{Attempts: attempts, Last: last}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
