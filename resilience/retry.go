package resilience

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand"
	"time"

	"github.com/lumison/lumison/errors"
)

// RetryConfig controls Retry. Zero fields fall back to DefaultRetryConfig.
type RetryConfig struct {
	// MaxAttempts counts the first call.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	// Jitter spreads each delay by up to ±Jitter of its value (0 to 1).
	Jitter float64
	// RetryIf reports whether err is worth another attempt.
	RetryIf func(error) bool
	// OnRetry runs before sleeping between attempts.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// DefaultRetryConfig is three attempts starting at 100ms, doubling up to 10s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries every error except context cancellation and
// AppErrors that are not marked retryable.
func DefaultRetryIf(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Retryable
	}
	return true
}

func (c RetryConfig) withDefaults() RetryConfig {
	def := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = def.BackoffFactor
	}
	if c.RetryIf == nil {
		c.RetryIf = def.RetryIf
	}
	return c
}

// Retry calls fn until it succeeds, RetryIf rejects its error, the attempts
// run out or ctx is done. It returns the last error from fn, or ctx.Err()
// when the context ended the loop.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	cfg = cfg.withDefaults()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt >= cfg.MaxAttempts || !cfg.RetryIf(err) {
			return zero, err
		}

		wait := calculateBackoff(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// RetryFunc is Retry for functions without a result.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// calculateBackoff returns InitialBackoff * BackoffFactor^(attempt-1) with
// jitter applied, capped at MaxBackoff.
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if cfg.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * cfg.Jitter
	}
	d = math.Min(d, float64(cfg.MaxBackoff))
	if d < 0 {
		return cfg.InitialBackoff
	}
	return time.Duration(d)
}

// Policy is the config-file form of a retry policy.
type Policy struct {
	Attempts int           `yaml:"attempts" mapstructure:"attempts" validate:"gte=0,lte=10"`
	Backoff  time.Duration `yaml:"backoff" mapstructure:"backoff"`
}

// Config converts the policy to a RetryConfig, filling unset fields from
// DefaultRetryConfig.
func (p Policy) Config() RetryConfig {
	cfg := DefaultRetryConfig()
	if p.Attempts > 0 {
		cfg.MaxAttempts = p.Attempts
	}
	if p.Backoff > 0 {
		cfg.InitialBackoff = p.Backoff
	}
	return cfg
}
