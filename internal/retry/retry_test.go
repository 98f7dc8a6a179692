package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// statusErr mimics a transport error carrying an HTTP status
type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) HTTPStatus() int { return int(s) }

// recordingSleeper records requested waits without sleeping
type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func testPolicy(s *recordingSleeper) Policy {
	p := DefaultPolicy()
	p.Sleep = s.Sleep
	return p
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Class
	}{
		{statusErr(429), RateLimited},
		{statusErr(500), ServerOverload},
		{statusErr(503), ServerOverload},
		{statusErr(404), NotFound},
		{statusErr(403), Forbidden},
		{statusErr(400), Other},
		{fmt.Errorf("wrapped: %w", statusErr(503)), ServerOverload},
		{errors.New("RESOURCE_EXHAUSTED: quota exceeded"), RateLimited},
		{errors.New("the model is overloaded"), ServerOverload},
		{errors.New("connection refused"), Other},
		{&ServiceError{Class: Forbidden, Err: errors.New("x")}, Forbidden},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestDo_OverloadBackoffSequencing(t *testing.T) {
	s := &recordingSleeper{}
	p := testPolicy(s)

	attempts := 0
	err := p.Do(context.Background(), "primary", "fallback", func(ctx context.Context, call Call) error {
		attempts++
		if attempts <= 2 {
			return statusErr(503)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
	if len(s.waits) != 2 {
		t.Fatalf("expected 2 waits, got %v", s.waits)
	}
	if s.waits[1] < 2*s.waits[0] {
		t.Errorf("second delay %v should be at least double the first %v", s.waits[1], s.waits[0])
	}
}

func TestDo_RateLimitUsesOwnBase(t *testing.T) {
	s := &recordingSleeper{}
	p := testPolicy(s)

	p.Do(context.Background(), "m", "", func(ctx context.Context, call Call) error {
		return statusErr(429)
	})
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(s.waits) != len(want) {
		t.Fatalf("expected waits %v, got %v", want, s.waits)
	}
	for i := range want {
		if s.waits[i] != want[i] {
			t.Errorf("wait %d: expected %v, got %v", i, want[i], s.waits[i])
		}
	}
}

func TestDo_ExhaustionSurfacesLastError(t *testing.T) {
	s := &recordingSleeper{}
	p := testPolicy(s)

	attempts := 0
	err := p.Do(context.Background(), "m", "", func(ctx context.Context, call Call) error {
		attempts++
		return statusErr(500)
	})

	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if se.Class != ServerOverload || se.Attempts != 3 {
		t.Errorf("unexpected service error: %+v", se)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if len(s.waits) != 2 {
		t.Errorf("no wait expected after the final attempt, got %v", s.waits)
	}
}

func TestDo_NotFoundFallsBackWithoutWaiting(t *testing.T) {
	s := &recordingSleeper{}
	p := testPolicy(s)

	var models []string
	err := p.Do(context.Background(), "primary", "fallback", func(ctx context.Context, call Call) error {
		models = append(models, call.Model)
		if call.Model == "primary" {
			return statusErr(404)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success on fallback, got %v", err)
	}
	if len(models) != 2 || models[1] != "fallback" {
		t.Errorf("expected primary then fallback, got %v", models)
	}
	if len(s.waits) != 0 {
		t.Errorf("NotFound should not back off, got %v", s.waits)
	}
}

func TestDo_NotFoundOnFallbackStops(t *testing.T) {
	p := testPolicy(&recordingSleeper{})

	attempts := 0
	err := p.Do(context.Background(), "only", "only", func(ctx context.Context, call Call) error {
		attempts++
		return statusErr(404)
	})
	if Classify(err) != NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected no retry of the same call shape, got %d attempts", attempts)
	}
}

func TestDo_ForbiddenDegradesThenFallsBack(t *testing.T) {
	p := testPolicy(&recordingSleeper{})

	var calls []Call
	err := p.Do(context.Background(), "primary", "fallback", func(ctx context.Context, call Call) error {
		calls = append(calls, call)
		return statusErr(403)
	})
	if Classify(err) != Forbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
	if calls[0].Degraded || calls[0].Model != "primary" {
		t.Errorf("first call should be full-featured primary: %+v", calls[0])
	}
	if !calls[1].Degraded || calls[1].Model != "primary" {
		t.Errorf("second call should be degraded primary: %+v", calls[1])
	}
	if !calls[2].Degraded || calls[2].Model != "fallback" {
		t.Errorf("third call should be degraded fallback: %+v", calls[2])
	}
}

func TestDo_OtherIsNotRetried(t *testing.T) {
	p := testPolicy(&recordingSleeper{})

	attempts := 0
	err := p.Do(context.Background(), "m", "f", func(ctx context.Context, call Call) error {
		attempts++
		return errors.New("bad request")
	})
	if err == nil || attempts != 1 {
		t.Errorf("expected single failed attempt, got %d attempts err=%v", attempts, err)
	}
}

func TestDo_SleepCancellation(t *testing.T) {
	p := DefaultPolicy()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := p.Do(ctx, "m", "", func(ctx context.Context, call Call) error {
		attempts++
		return statusErr(429)
	})
	if err == nil {
		t.Fatal("expected error when context is canceled during backoff")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestBackoffDoubling(t *testing.T) {
	p := DefaultPolicy()
	if p.Backoff(ServerOverload, 1) != time.Second || p.Backoff(ServerOverload, 3) != 4*time.Second {
		t.Errorf("unexpected overload backoff: %v %v", p.Backoff(ServerOverload, 1), p.Backoff(ServerOverload, 3))
	}
	if p.Backoff(NotFound, 1) != 0 {
		t.Error("non-transient classes have no backoff")
	}
}
