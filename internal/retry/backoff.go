package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Default backoff parameters, applied when a configured value is invalid.
const (
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMaxAttempts  = 3
)

// Config configures retry behavior with exponential backoff
type Config struct {
	InitialDelay time.Duration `koanf:"initial_delay"` // Delay before the second attempt (default: 1s)
	MaxDelay     time.Duration `koanf:"max_delay"`     // Upper bound on the backoff delay (default: 30s)
	MaxAttempts  int           `koanf:"max_attempts"`  // Total attempts including the first (default: 3)
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

// retryableMarker tags an error as transient regardless of its message.
type retryableMarker struct{ err error }

func (e retryableMarker) Error() string { return e.err.Error() }
func (e retryableMarker) Unwrap() error { return e.err }

// MarkRetryable wraps err so the executor always treats it as transient.
func MarkRetryable(err error) error {
	if err == nil {
		return nil
	}
	return retryableMarker{err: err}
}

// ExhaustedError is returned once every attempt for an operation has failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Executor runs operations with bounded exponential backoff. It holds no
// mutable state across invocations; a single Executor is safe for concurrent
// use.
type Executor struct {
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor validates cfg and returns an Executor. Non-positive values fall
// back to the documented defaults with a warning. MaxDelay below InitialDelay
// is a configuration error rather than something to paper over.
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.InitialDelay <= 0 {
		log.Warn().Dur("initial_delay", cfg.InitialDelay).Dur("default", DefaultInitialDelay).
			Msg("Invalid retry initial delay, using default")
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.MaxDelay <= 0 {
		log.Warn().Dur("max_delay", cfg.MaxDelay).Dur("default", DefaultMaxDelay).
			Msg("Invalid retry max delay, using default")
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.MaxAttempts < 1 {
		log.Warn().Int("max_attempts", cfg.MaxAttempts).Int("default", DefaultMaxAttempts).
			Msg("Invalid retry max attempts, using default")
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		return nil, fmt.Errorf("retry: max delay %v must be >= initial delay %v", cfg.MaxDelay, cfg.InitialDelay)
	}

	return &Executor{cfg: cfg, sleep: sleepContext}, nil
}

// Config returns the effective configuration after default substitution.
func (e *Executor) Config() Config { return e.cfg }

// Do runs op until it succeeds, returns a non-retryable error, or the attempt
// budget is exhausted. The first attempt runs immediately; attempt n waits
// min(initialDelay * 2^(n-2), maxDelay) beforehand.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := e.delayFor(attempt)
			log.Warn().Int("attempt", attempt-1).Int("max_attempts", e.cfg.MaxAttempts).
				Dur("delay", delay).Err(lastErr).
				Msg("Attempt failed, retrying after backoff")
			if err := e.sleep(ctx, delay); err != nil {
				return &ExhaustedError{Attempts: attempt - 1, Err: err}
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			log.Error().Int("attempt", attempt).Err(err).Msg("Non-retryable error, aborting")
			return &ExhaustedError{Attempts: attempt, Err: err}
		}
	}

	log.Error().Int("attempts", e.cfg.MaxAttempts).Err(lastErr).Msg("Retry budget exhausted")
	return &ExhaustedError{Attempts: e.cfg.MaxAttempts, Err: lastErr}
}

// Result runs op through exec and returns its value. Generic counterpart of
// Executor.Do for operations that produce a result.
func Result[T any](ctx context.Context, exec *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := exec.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// delayFor returns the backoff delay preceding the given attempt (attempt >= 2).
func (e *Executor) delayFor(attempt int) time.Duration {
	delay := e.cfg.InitialDelay
	for i := 2; i < attempt; i++ {
		delay *= 2
		if delay >= e.cfg.MaxDelay {
			return e.cfg.MaxDelay
		}
	}
	if delay > e.cfg.MaxDelay {
		return e.cfg.MaxDelay
	}
	return delay
}

// IsRetryable reports whether err indicates a transient condition worth
// another attempt: an explicit retryable marker, a connection-level network
// failure, or an upstream rate limit.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var marker retryableMarker
	if errors.As(err, &marker) {
		return true
	}

	msg := strings.ToLower(err.Error())
	retryableMessages := []string{
		"connection reset",
		"connection refused",
		"connection timeout",
		"timeout",
		"econnreset",
		"etimedout",
		"econnrefused",
		"429",
		"too many requests",
	}
	for _, s := range retryableMessages {
		if strings.Contains(msg, s) {
			return true
		}
	}

	return false
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
