package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/sercha-sync/internal/connectors/retry"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// Common Google API errors.
var (
	// ErrUnauthorized indicates invalid or expired credentials.
	ErrUnauthorized = errors.New("google: unauthorised (invalid credentials)")

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("google: forbidden (insufficient permissions)")

	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("google: resource not found")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("google: rate limit exceeded")

	// ErrExportTooLarge indicates a document exceeds the export size limit.
	ErrExportTooLarge = errors.New("google: export too large")
)

// RateLimitError is a 429 or quota 403 carrying the server's requested delay.
type RateLimitError struct {
	Delay time.Duration
	Err   error
}

func (e *RateLimitError) Error() string {
	if e.Delay > 0 {
		return fmt.Sprintf("%v (retry after %v)", e.Err, e.Delay)
	}
	return e.Err.Error()
}

// Unwrap exposes both the Google error and the transient classification.
func (e *RateLimitError) Unwrap() []error {
	return []error{ErrRateLimited, domain.ErrTransientNetwork, e.Err}
}

// RetryAfter implements retry.RetryAfterError.
func (e *RateLimitError) RetryAfter() time.Duration {
	return e.Delay
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if statusIs(err, ErrRateLimited, http.StatusTooManyRequests) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusForbidden && isQuotaReason(gerr)
}

func statusIs(err, sentinel error, code int) bool {
	if errors.Is(err, sentinel) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == code
	}
	return false
}

func isQuotaReason(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded":
			return true
		}
	}
	return false
}

// WrapError maps a Google API error onto the sync error taxonomy.
// Transport failures and 429/5xx responses are transient; 401 is an
// authentication failure; other client errors fail the single item.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) && !isTimeout(err) {
		return err
	}
	if errors.Is(err, domain.ErrAuthentication) || errors.Is(err, domain.ErrTransientNetwork) {
		return err
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		if isTimeout(err) {
			return fmt.Errorf("%w: %w", domain.ErrTransientNetwork, err)
		}
		var netErr net.Error
		var opErr *net.OpError
		if errors.As(err, &netErr) || errors.As(err, &opErr) {
			return fmt.Errorf("%w: %w", domain.ErrTransientNetwork, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrItemFetch, err)
	}

	switch {
	case gerr.Code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w: %w", domain.ErrAuthentication, ErrUnauthorized, err)
	case IsRateLimited(gerr):
		return &RateLimitError{Delay: retry.ParseRetryAfter(gerr.Header.Get("Retry-After"), time.Now()), Err: err}
	case retry.IsTransientStatus(gerr.Code):
		return fmt.Errorf("%w: %w", domain.ErrTransientNetwork, err)
	case gerr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %w: %w", domain.ErrItemFetch, ErrForbidden, err)
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %w: %w", domain.ErrItemFetch, ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrItemFetch, err)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
