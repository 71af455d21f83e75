// Package retry wraps remote operations with bounded retries, exponential
// backoff, and a pre-flight session-liveness check. Every remote read or
// write that is sensitive to session expiry mid-flow (document uploads,
// bond mutations, bulk import rows) goes through a Runner.
package retry

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	dErrors "fidelis/pkg/domain-errors"
)

// SessionChecker reports whether the caller still holds a live session.
// Checked before every attempt so a session that expires between attempts
// fails fast instead of burning the remaining attempts.
type SessionChecker interface {
	Liveness(ctx context.Context) error
}

// SleepFunc pauses between attempts. Injected so tests can count delays
// without waiting them out.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Runner executes operations with retry semantics.
type Runner struct {
	session     SessionChecker
	logger      *slog.Logger
	maxAttempts int
	baseDelay   time.Duration
	jitter      bool
	deadline    time.Duration
	sleep       SleepFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithMaxAttempts bounds the number of attempts (default 3).
func WithMaxAttempts(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the backoff unit; the wait after attempt n is
// 2^n * base (default base 1s, matching 2^attempt seconds).
func WithBaseDelay(d time.Duration) Option {
	return func(r *Runner) { r.baseDelay = d }
}

// WithJitter randomizes each wait in [d/2, d). Off by default.
func WithJitter() Option {
	return func(r *Runner) { r.jitter = true }
}

// WithDeadline caps the total time spent across all attempts.
func WithDeadline(d time.Duration) Option {
	return func(r *Runner) { r.deadline = d }
}

// WithSleep replaces the delay function (tests).
func WithSleep(fn SleepFunc) Option {
	return func(r *Runner) { r.sleep = fn }
}

// WithLogger attaches a logger for per-attempt warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New builds a Runner. A nil session checker skips the liveness pre-flight
// (used by tests and offline tooling).
func New(session SessionChecker, opts ...Option) *Runner {
	r := &Runner{
		session:     session,
		maxAttempts: 3,
		baseDelay:   time.Second,
		sleep:       defaultSleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// nonRetryable codes fail the operation immediately: retrying a validation
// or not-found failure cannot succeed.
func nonRetryable(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest,
		dErrors.CodeNotFound, dErrors.CodeConflict,
		dErrors.CodeUnauthorized, dErrors.CodeForbidden:
		return true
	}
	return false
}

// Do executes op, retrying transient failures up to the attempt limit.
// Before every attempt the session liveness is verified; a dead session
// returns an unauthorized error without consuming further attempts. After
// exhausting attempts the last observed error is returned wrapped as
// unavailable.
func (r *Runner) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	if r.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.deadline)
		defer cancel()
	}

	var last error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if r.session != nil {
			if err := r.session.Liveness(ctx); err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnauthorized, "no active session")
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if nonRetryable(err) {
			return err
		}
		last = err

		if attempt == r.maxAttempts {
			break
		}
		wait := r.backoff(attempt)
		if r.logger != nil {
			r.logger.WarnContext(ctx, "operation failed, retrying",
				"operation", name,
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
		}
		if serr := r.sleep(ctx, wait); serr != nil {
			return dErrors.Wrap(serr, dErrors.CodeTimeout, name+" aborted during backoff")
		}
	}
	return dErrors.Wrap(last, dErrors.CodeUnavailable, name+" failed after retries")
}

func (r *Runner) backoff(attempt int) time.Duration {
	d := r.baseDelay * time.Duration(1<<attempt) // 2^attempt
	if r.jitter {
		d = d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
	}
	return d
}

// Fetch runs an operation that produces a value through r.
func Fetch[T any](ctx context.Context, r *Runner, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, name, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
