package bitbucket

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	logger "github.com/sirupsen/logrus"
)

// RetryPolicy controls how transient failures are retried.
type RetryPolicy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	Multiplier        float64
	RetryableStatuses []int // A zero status (no HTTP response) is always retryable
}

// DefaultRetryPolicy retries 429 and 5xx gateway errors three times, waiting 2s then 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3, //nolint:mnd // documented default
		InitialDelay: 2 * time.Second,
		Multiplier:   2, //nolint:mnd // documented default
		RetryableStatuses: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// Retryable reports whether a failed attempt with the given status should be retried.
func (p RetryPolicy) Retryable(statusCode int) bool {
	if statusCode == 0 {
		return true
	}
	for _, s := range p.RetryableStatuses {
		if s == statusCode {
			return true
		}
	}
	return false
}

// Delay returns the backoff before the attempt following the given one:
// InitialDelay * Multiplier^(attempt-1).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1)))
}

// AttemptError describes a single failed request. StatusCode is 0 when no
// HTTP response was received.
type AttemptError struct {
	URL        string
	StatusCode int
	RetryAfter string
	Err        error
}

func (e *AttemptError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request to %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }

// Sleeper waits between attempts.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper sleeps on a timer and wakes early when the context is done.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithRetry runs op until it succeeds, fails with a non-retryable error, or
// the policy's attempts are exhausted. Errors that are not *AttemptError
// (e.g. undecodable payloads) are returned immediately. A Retry-After hint on
// a retryable response overrides the computed backoff for that attempt.
func WithRetry[T any](
	ctx context.Context,
	policy RetryPolicy,
	sleeper Sleeper,
	name string,
	op func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	maxAttempts := max(policy.MaxAttempts, 1)

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		var attemptErr *AttemptError
		if !errors.As(err, &attemptErr) {
			return zero, err
		}

		logger.Warnf("    API call %s failed (attempt %d/%d): %v", name, attempt, maxAttempts, err)

		if !policy.Retryable(attemptErr.StatusCode) {
			logger.Warnf("    Non-retryable HTTP error for %s. Status: %s", name, statusText(attemptErr.StatusCode))
			return zero, classify(attemptErr, attempt)
		}
		if attempt >= maxAttempts {
			logger.Warnf("    Max retries reached for %s", name)
			return zero, goerr.Wrap(ErrTransient, "max retries reached",
				goerr.V("url", attemptErr.URL),
				goerr.V("status", attemptErr.StatusCode),
				goerr.V("attempts", attempt),
				goerr.V("cause", attemptErr.Error()),
			)
		}

		delay := policy.Delay(attempt)
		if hinted, ok := parseRetryAfter(attemptErr.RetryAfter, time.Now()); ok && attemptErr.StatusCode != 0 {
			logger.Infof("    Honoring Retry-After header: waiting %s", hinted)
			delay = hinted
		}

		logger.Infof("    Retrying in %s...", delay)
		if sleepErr := sleeper.Sleep(ctx, delay); sleepErr != nil {
			return zero, goerr.Wrap(sleepErr, "retry wait interrupted", goerr.V("url", attemptErr.URL))
		}
	}
}

// classify maps a non-retryable attempt onto the failure taxonomy.
func classify(attemptErr *AttemptError, attempt int) error {
	sentinel := ErrHTTPStatus
	switch attemptErr.StatusCode {
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrUnauthorized
	}
	return goerr.Wrap(sentinel, "request failed",
		goerr.V("url", attemptErr.URL),
		goerr.V("status", attemptErr.StatusCode),
		goerr.V("attempts", attempt),
		goerr.V("cause", attemptErr.Error()),
	)
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	logger.Warnf("    Could not parse Retry-After header (%q). Using exponential backoff.", value)
	return 0, false
}

func statusText(code int) string {
	if code == 0 {
		return "N/A"
	}
	return strconv.Itoa(code)
}
