package job

import (
	"errors"
	"time"
)

// Defaults for the queue retry policy.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 500 * time.Millisecond
)

// ErrInvalidMaxAttempts indicates the configured attempt limit is not positive.
var ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

// ErrInvalidBackoffBase indicates the configured base delay is not positive.
var ErrInvalidBackoffBase = errors.New("backoff base must be positive")

// RetryPolicy decides whether a failed attempt is retried and after how long.
// Delays double per failed attempt: base, 2x base, 4x base.
type RetryPolicy struct {
	maxAttempts int
	backoffBase time.Duration
}

// NewRetryPolicy constructs a RetryPolicy with the provided limits.
func NewRetryPolicy(maxAttempts int, backoffBase time.Duration) (*RetryPolicy, error) {
	if maxAttempts <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if backoffBase <= 0 {
		return nil, ErrInvalidBackoffBase
	}
	return &RetryPolicy{
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}, nil
}

// DefaultRetryPolicy returns the stock policy (3 attempts, 500ms base).
func DefaultRetryPolicy() *RetryPolicy {
	p, _ := NewRetryPolicy(DefaultMaxAttempts, DefaultBackoffBase)
	return p
}

// MaxAttempts returns the configured attempt limit.
func (p *RetryPolicy) MaxAttempts() int {
	if p == nil {
		return 0
	}
	return p.maxAttempts
}

// RetryDecision captures the outcome of classifying a failed attempt.
type RetryDecision struct {
	Retry   bool
	Delay   time.Duration
	Attempt int
}

// Next resolves what happens after attempt number `attempt` (1-based) fails
// transiently. Permanent failures never consult the policy.
func (p *RetryPolicy) Next(attempt int) RetryDecision {
	decision := RetryDecision{Attempt: attempt}
	if p == nil || attempt >= p.maxAttempts {
		return decision
	}
	decision.Retry = true
	decision.Delay = p.Backoff(attempt)
	return decision
}

// Backoff returns the delay applied after `attempt` (1-based) transient
// failures: base << (attempt-1), capped to keep the shift from overflowing.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	if p == nil {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > 20 {
		shift = 20
	}
	return p.backoffBase << shift
}
