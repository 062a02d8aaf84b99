package utils

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RetryDecision captures whether an error should be retried.
type RetryDecision struct {
	Retryable  bool
	Status     int
	RetryAfter time.Duration
}

type (
	RetrySleepFunc  func(ctx context.Context, d time.Duration) error
	RetryJitterFunc func(max time.Duration) time.Duration
	RetryNotifyFunc func(attempt int, decision RetryDecision, delay time.Duration)
)

// RetryPolicy controls DoWithRetry. Backoffs[i] is the wait after failed
// attempt i+1; missing entries mean no wait.
type RetryPolicy struct {
	Attempts  int
	Backoffs  []time.Duration
	MaxJitter time.Duration
	Notify    RetryNotifyFunc
	Sleep     RetrySleepFunc
	Jitter    RetryJitterFunc
}

var retryAfterPattern = regexp.MustCompile(`(?i)retry[- ]after[:=]?\s*([^\r\n)]+)`)

// DefaultRetryPolicy suits short model calls that share one deadline.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  2,
		Backoffs:  []time.Duration{500 * time.Millisecond},
		MaxJitter: 250 * time.Millisecond,
	}
}

// ClassifyRetryDecision treats rate limits and upstream 5xx replies as
// retryable. The status comes from errors exposing HTTPStatus() int.
func ClassifyRetryDecision(err error) RetryDecision {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return RetryDecision{}
	}

	var se interface{ HTTPStatus() int }
	if !errors.As(err, &se) {
		return RetryDecision{}
	}

	decision := RetryDecision{Status: se.HTTPStatus()}
	switch decision.Status {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusInternalServerError:
		decision.Retryable = true
	}
	if retryAfter, ok := extractRetryAfter(err, time.Now()); ok {
		decision.RetryAfter = retryAfter
	}
	return decision
}

// DoWithRetry runs fn until it succeeds, fails with a non-retryable error,
// runs out of attempts or ctx ends.
func DoWithRetry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if policy.Attempts <= 1 {
		return fn(ctx)
	}

	sleepFn := policy.Sleep
	if sleepFn == nil {
		sleepFn = sleepWithCtx
	}
	jitterFn := policy.Jitter
	if jitterFn == nil {
		jitterFn = defaultJitter
	}

	var lastErr error
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if attempt == policy.Attempts-1 {
			break
		}
		decision := ClassifyRetryDecision(err)
		if !decision.Retryable {
			break
		}

		delay := retryDelay(policy, attempt, decision, jitterFn)
		if policy.Notify != nil {
			policy.Notify(attempt+1, decision, delay)
		}
		if delay > 0 {
			if err := sleepFn(ctx, delay); err != nil {
				return zero, err
			}
		}
	}

	return zero, lastErr
}

func retryDelay(policy RetryPolicy, attempt int, decision RetryDecision, jitterFn RetryJitterFunc) time.Duration {
	if decision.RetryAfter > 0 {
		return decision.RetryAfter
	}
	if attempt < 0 || attempt >= len(policy.Backoffs) {
		return 0
	}

	base := policy.Backoffs[attempt]
	if base <= 0 || policy.MaxJitter <= 0 {
		return max(base, 0)
	}
	jitter := min(max(jitterFn(policy.MaxJitter), 0), policy.MaxJitter)
	return base + jitter
}

func sleepWithCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func defaultJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	//nolint:gosec // Used only for retry backoff jitter.
	return time.Duration(rand.Int63n(int64(max) + 1))
}

func extractRetryAfter(err error, now time.Time) (time.Duration, bool) {
	matches := retryAfterPattern.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0, false
	}
	value := strings.TrimSpace(matches[1])
	if value == "" {
		return 0, false
	}

	if secs, convErr := strconv.Atoi(value); convErr == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, parseErr := http.ParseTime(value); parseErr == nil {
		if delay := t.Sub(now); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}
