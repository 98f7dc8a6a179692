// Package retry wraps external model calls with classified retries,
// exponential backoff and model/feature fallback.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sumalravindran/My-journal-new/internal/logging"
)

// Class is the failure category of an external call
type Class int

const (
	Other Class = iota
	RateLimited
	ServerOverload
	NotFound
	Forbidden
)

func (c Class) String() string {
	switch c {
	case RateLimited:
		return "rate_limited"
	case ServerOverload:
		return "server_overload"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	}
	return "other"
}

// httpStatuser is implemented by transport errors that carry a status code
type httpStatuser interface {
	HTTPStatus() int
}

// Classify maps an error to a failure class. Status codes win; otherwise the
// message is matched against the service's well-known error strings.
func Classify(err error) Class {
	if err == nil {
		return Other
	}

	var se *ServiceError
	if errors.As(err, &se) {
		return se.Class
	}

	var hs httpStatuser
	if errors.As(err, &hs) {
		code := hs.HTTPStatus()
		switch {
		case code == http.StatusTooManyRequests:
			return RateLimited
		case code == http.StatusNotFound:
			return NotFound
		case code == http.StatusForbidden:
			return Forbidden
		case code >= 500 && code <= 599:
			return ServerOverload
		}
		return Other
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "resource_exhausted"), strings.Contains(msg, "quota"), strings.Contains(msg, "rate limit"):
		return RateLimited
	case strings.Contains(msg, "overloaded"), strings.Contains(msg, "unavailable"):
		return ServerOverload
	case strings.Contains(msg, "permission_denied"):
		return Forbidden
	}
	return Other
}

// ServiceError is the error surfaced once the policy gives up
type ServiceError struct {
	Class    Class
	Attempts int
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", e.Class, e.Attempts, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Call is the shape of one attempt. The policy mutates it between attempts
// when falling back.
type Call struct {
	Attempt  int    // 1-based
	Model    string // model identity to use
	Degraded bool   // optional features (web search) disabled
}

// Policy controls attempts and backoff
type Policy struct {
	MaxAttempts   int
	RateLimitBase time.Duration
	OverloadBase  time.Duration

	// Sleep waits between attempts; replaced in tests
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns 3 attempts with 2s rate-limit and 1s overload bases
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		RateLimitBase: 2 * time.Second,
		OverloadBase:  1 * time.Second,
		Sleep:         SleepContext,
	}
}

// SleepContext sleeps for d or until ctx is done
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Backoff returns the wait after the given failed attempt (1-based)
func (p Policy) Backoff(class Class, attempt int) time.Duration {
	var base time.Duration
	switch class {
	case RateLimited:
		base = p.RateLimitBase
	case ServerOverload:
		base = p.OverloadBase
	default:
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

// Do runs fn until it succeeds, fails with a non-retryable class, or the
// attempt budget is spent. NotFound switches to fallbackModel; Forbidden
// first disables optional features, then tries fallbackModel.
func (p Policy) Do(ctx context.Context, primaryModel, fallbackModel string, fn func(ctx context.Context, call Call) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	call := Call{Model: primaryModel}
	var lastErr error
	var lastClass Class

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		call.Attempt = attempt
		err := fn(ctx, call)
		if err == nil {
			if attempt > 1 {
				logging.Info("retry", "succeeded on attempt %d (model=%s degraded=%v)", attempt, call.Model, call.Degraded)
			}
			return nil
		}

		lastErr = err
		lastClass = Classify(err)
		if attempt == maxAttempts {
			break
		}

		switch lastClass {
		case RateLimited, ServerOverload:
			wait := p.Backoff(lastClass, attempt)
			logging.Info("retry", "attempt %d failed (%s), retrying in %v: %s", attempt, lastClass, wait, logging.Truncate(err.Error(), 120))
			if serr := sleep(ctx, wait); serr != nil {
				return &ServiceError{Class: lastClass, Attempts: attempt, Err: err}
			}
		case NotFound:
			if fallbackModel == "" || call.Model == fallbackModel {
				return &ServiceError{Class: lastClass, Attempts: attempt, Err: err}
			}
			logging.Info("retry", "model %s not found, falling back to %s", call.Model, fallbackModel)
			call.Model = fallbackModel
		case Forbidden:
			switch {
			case !call.Degraded:
				logging.Info("retry", "permission denied on %s, retrying without optional features", call.Model)
				call.Degraded = true
			case fallbackModel != "" && call.Model != fallbackModel:
				logging.Info("retry", "permission denied in degraded mode, falling back to %s", fallbackModel)
				call.Model = fallbackModel
			default:
				return &ServiceError{Class: lastClass, Attempts: attempt, Err: err}
			}
		default:
			return &ServiceError{Class: lastClass, Attempts: attempt, Err: err}
		}
	}

	return &ServiceError{Class: lastClass, Attempts: maxAttempts, Err: lastErr}
}
