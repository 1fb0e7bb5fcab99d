package resilient

import (
	"context"
	"errors"
	"testing"
	"time"
)

// timeoutError satisfies net.Error the way an exhausted http.Client
// deadline does.
type timeoutError struct{}

func (timeoutError) Error() string   { return "request timed out" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func noSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{MaxRetries: 0, RetryDelay: time.Second}); KindOf(err) != KindConfiguration {
		t.Fatalf("New() error = %v, want configuration error", err)
	}
	if _, err := New(Config{MaxRetries: 3, RetryDelay: 0}); KindOf(err) != KindConfiguration {
		t.Fatalf("New() error = %v, want configuration error", err)
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	caller := MustNew(Config{MaxRetries: 3, RetryDelay: time.Second}, WithSleep(noSleep(&delays)))

	attempts := 0
	got, err := Do(context.Background(), caller, "op", func(context.Context) (string, error) {
		attempts++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "ok" {
		t.Fatalf("Do() = %q, want %q", got, "ok")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if len(delays) != 0 {
		t.Fatalf("unexpected delays: %v", delays)
	}
}

func TestDoRetriesTimeoutThenSucceeds(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	caller := MustNew(Config{MaxRetries: 3, RetryDelay: time.Second}, WithSleep(noSleep(&delays)))

	attempts := 0
	got, err := Do(context.Background(), caller, "op", func(context.Context) (int, error) {
		attempts++
		if attempts <= 2 {
			return 0, timeoutError{}
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != 42 {
		t.Fatalf("Do() = %d, want 42", got)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	// Linear backoff: base×1 then base×2.
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Fatalf("delays = %v, want [1s 2s]", delays)
	}
}

func TestDoTimeoutExhaustsRetries(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	caller := MustNew(Config{MaxRetries: 3, RetryDelay: time.Second}, WithSleep(noSleep(&delays)))

	attempts := 0
	_, err := Do(context.Background(), caller, "op", func(context.Context) (string, error) {
		attempts++
		return "", timeoutError{}
	})

	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("Do() error = %v, want *Error", err)
	}
	if rerr.Kind != KindTimeout {
		t.Fatalf("kind = %s, want %s", rerr.Kind, KindTimeout)
	}
	if rerr.Message != "max retries exceeded" {
		t.Fatalf("message = %q, want %q", rerr.Message, "max retries exceeded")
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if len(delays) != 2 {
		t.Fatalf("delays = %v, want 2 entries", delays)
	}
}

func TestDoTransientNetworkFailsFast(t *testing.T) {
	t.Parallel()

	caller := MustNew(Config{MaxRetries: 3, RetryDelay: time.Second})

	attempts := 0
	_, err := Do(context.Background(), caller, "op", func(context.Context) (string, error) {
		attempts++
		return "", &StatusError{Code: 503, Status: "503 Service Unavailable"}
	})
	if KindOf(err) != KindUnavailable {
		t.Fatalf("Do() error = %v, want unavailable", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestDoUnexpectedErrorFailsFast(t *testing.T) {
	t.Parallel()

	caller := MustNew(Config{MaxRetries: 3, RetryDelay: time.Second})

	attempts := 0
	_, err := Do(context.Background(), caller, "op", func(context.Context) (string, error) {
		attempts++
		return "", errors.New("boom")
	})
	if KindOf(err) != KindInternal {
		t.Fatalf("Do() error = %v, want internal", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestDoPassesThroughClassifiedErrors(t *testing.T) {
	t.Parallel()

	caller := MustNew(Config{MaxRetries: 3, RetryDelay: time.Second})

	want := ConfigError("api key is not configured")
	_, err := Do(context.Background(), caller, "op", func(context.Context) (string, error) {
		return "", want
	})
	if !errors.Is(err, want) {
		t.Fatalf("Do() error = %v, want %v", err, want)
	}
}

func TestDoPropagatesCancellation(t *testing.T) {
	t.Parallel()

	caller := MustNew(Config{MaxRetries: 3, RetryDelay: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := Do(ctx, caller, "op", func(context.Context) (string, error) {
		attempts++
		cancel()
		return "", timeoutError{}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestKindLabels(t *testing.T) {
	t.Parallel()

	cases := map[Kind]string{
		KindTimeout:       "Timeout",
		KindUnavailable:   "API unavailable",
		KindInternal:      "Internal error",
		KindConfiguration: "Configuration error",
		KindNotFound:      "Not found",
	}
	for kind, want := range cases {
		if got := kind.Label(); got != want {
			t.Fatalf("Label(%s) = %q, want %q", kind, got, want)
		}
	}
}
