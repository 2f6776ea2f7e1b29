// Package retry runs network operations with bounded exponential backoff.
//
// Only errors classified as domain.ErrTransientNetwork are retried. An error
// may carry a server-requested delay by implementing RetryAfterError.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Defaults for Policy.
const (
	DefaultBaseDelay     = 500 * time.Millisecond
	DefaultMaxDelay      = 30 * time.Second
	DefaultMaxRetryAfter = 2 * time.Minute
	DefaultJitter        = 0.2
)

// RetryAfterError is implemented by errors that carry a server-requested delay.
type RetryAfterError interface {
	error
	RetryAfter() time.Duration
}

// Policy describes how an operation is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry. It doubles per retry.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration

	// MaxRetryAfter caps a server-requested delay.
	MaxRetryAfter time.Duration

	// Jitter randomises each delay by up to this fraction in either direction.
	Jitter float64

	sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy returns a policy with maxRetries retries and default delays.
func NewPolicy(maxRetries int) Policy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return Policy{
		MaxRetries:    maxRetries,
		BaseDelay:     DefaultBaseDelay,
		MaxDelay:      DefaultMaxDelay,
		MaxRetryAfter: DefaultMaxRetryAfter,
		Jitter:        DefaultJitter,
	}
}

// Do runs op until it succeeds, returns a non-transient error, or the retry
// budget is spent. The final transient error is returned wrapped, so it still
// classifies as domain.ErrTransientNetwork.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if !domain.IsTransient(err) {
			return err
		}
		lastErr = err

		if attempt == p.MaxRetries {
			break
		}

		delay := p.Delay(attempt, err)
		logger.Debug("Retrying after %v (attempt %d/%d): %v", delay, attempt+1, p.MaxRetries, err)
		if err := p.wait(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("after %d attempts: %w", p.MaxRetries+1, lastErr)
}

// Delay returns the wait before retry number attempt+1.
func (p Policy) Delay(attempt int, err error) time.Duration {
	var ra RetryAfterError
	if errors.As(err, &ra) && ra.RetryAfter() > 0 {
		d := ra.RetryAfter()
		if p.MaxRetryAfter > 0 && d > p.MaxRetryAfter {
			d = p.MaxRetryAfter
		}
		return d
	}

	d := p.BaseDelay << uint(attempt)
	if d <= 0 || (p.MaxDelay > 0 && d > p.MaxDelay) {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d = time.Duration(float64(d) - spread + rand.Float64()*2*spread)
	}
	return d
}

func (p Policy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ParseRetryAfter parses a Retry-After header value given either as seconds
// or as an HTTP date. Returns zero if the value is absent or invalid.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// IsTransientStatus reports whether an HTTP status is worth retrying.
func IsTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// DelayedError is a transient failure carrying a server-requested delay.
type DelayedError struct {
	Err   error
	Delay time.Duration
}

func (e *DelayedError) Error() string {
	if e.Delay > 0 {
		return fmt.Sprintf("%v (retry after %v)", e.Err, e.Delay)
	}
	return e.Err.Error()
}

// Unwrap classifies the error as transient while keeping the cause reachable.
func (e *DelayedError) Unwrap() []error {
	return []error{domain.ErrTransientNetwork, e.Err}
}

// RetryAfter implements RetryAfterError.
func (e *DelayedError) RetryAfter() time.Duration {
	return e.Delay
}
