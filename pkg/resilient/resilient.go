package resilient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Kind classifies the failure of an external call.
type Kind string

const (
	KindTimeout       Kind = "timeout"
	KindUnavailable   Kind = "unavailable"
	KindInternal      Kind = "internal"
	KindConfiguration Kind = "configuration"
	KindNotFound      Kind = "not_found"
)

// Label maps a Kind to the wording used in user-visible error blocks.
func (k Kind) Label() string {
	switch k {
	case KindTimeout:
		return "Timeout"
	case KindUnavailable:
		return "API unavailable"
	case KindConfiguration:
		return "Configuration error"
	case KindNotFound:
		return "Not found"
	default:
		return "Internal error"
	}
}

// Error is the uniform failure produced by Do. Callers branch on Kind;
// they must not reclassify.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a classified error without going through Do. Used for
// fail-fast conditions such as invalid chunking parameters or a missing
// credential.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// ConfigError is shorthand for a fail-fast configuration failure.
func ConfigError(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

// KindOf extracts the Kind from err, or KindInternal when err carries no
// classification.
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return KindInternal
}

// StatusError reports a non-2xx response from a remote API.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// Config holds the retry policy for a Caller.
type Config struct {
	MaxRetries int           `envconfig:"MAX_RETRIES" split_words:"true" default:"3"`
	RetryDelay time.Duration `envconfig:"RETRY_DELAY" split_words:"true" default:"1s"`
}

// Caller executes external operations under a bounded retry policy.
// Only timeouts are retried; other network faults fail fast. Each call
// carries its own attempt counter, so a Caller is safe for concurrent use.
type Caller struct {
	maxRetries int
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     zerolog.Logger
}

// Option customizes a Caller.
type Option func(*Caller)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Caller) {
		c.logger = logger
	}
}

// WithSleep overrides the inter-retry wait. Tests use this to avoid real
// delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Caller) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

func New(cfg Config, opts ...Option) (*Caller, error) {
	if cfg.MaxRetries <= 0 {
		return nil, ConfigError("max retries must be positive")
	}
	if cfg.RetryDelay <= 0 {
		return nil, ConfigError("retry delay must be positive")
	}

	c := &Caller{
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		sleep:      sleepContext,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func MustNew(cfg Config, opts ...Option) *Caller {
	c, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Do runs op under the caller's retry policy and returns either op's value
// or a classified *Error. A timeout is retried up to MaxRetries attempts
// with a linearly growing delay (RetryDelay times the attempt number); any
// other
// failure returns immediately. Context cancellation propagates as the
// context's own error, never as a retryable timeout.
func Do[T any](ctx context.Context, c *Caller, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil {
		return zero, ConfigError("resilient caller is nil")
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		value, err := op(ctx)
		if err == nil {
			c.logger.Debug().Str("call", name).Int("attempt", attempt).Msg("call succeeded")
			return value, nil
		}

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		var rerr *Error
		if errors.As(err, &rerr) {
			// Already classified by a lower layer; pass through.
			return zero, rerr
		}

		if !isTimeout(err) {
			if isTransient(err) {
				c.logger.Error().Str("call", name).Err(err).Msg("call failed")
				return zero, &Error{Kind: KindUnavailable, Message: name + " is unavailable", Cause: err}
			}
			c.logger.Error().Str("call", name).Err(err).Msg("unexpected call error")
			return zero, &Error{Kind: KindInternal, Message: "unexpected error in " + name, Cause: err}
		}

		lastErr = err
		c.logger.Warn().
			Str("call", name).
			Int("attempt", attempt).
			Int("max_retries", c.maxRetries).
			Err(err).
			Msg("call timed out")

		if attempt < c.maxRetries {
			if serr := c.sleep(ctx, c.retryDelay*time.Duration(attempt)); serr != nil {
				return zero, serr
			}
		}
	}

	return zero, &Error{Kind: KindTimeout, Message: "max retries exceeded", Cause: lastErr}
}

// isTimeout reports whether err is a retryable timeout. Deadline errors on
// the call's own context were already handled by the ctx.Err() check, so a
// deadline seen here belongs to a per-attempt timeout such as an HTTP
// client's.
func isTimeout(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// isTransient reports whether err is a non-timeout network fault: connection
// reset, refused connection, DNS failure, a dropped body, or a non-2xx
// response. These are not retried.
func isTransient(err error) bool {
	var serr *StatusError
	if errors.As(err, &serr) {
		return true
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return true
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		return true
	}
	var dnserr *net.DNSError
	if errors.As(err, &dnserr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
