package retry

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog/log"

	"github.com/elviskahoro/gtm-growth-machine/pkg/metric"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
)

// Policy is a reusable retry policy for calls against external services:
// max attempts, a backoff schedule, and a predicate deciding which errors
// are worth retrying. A zero RetryIf retries every error.
type Policy struct {
	Name        string
	MaxAttempts int
	Delay       time.Duration
	MaxDelay    time.Duration
	RetryIf     func(error) bool
}

// NewPolicy returns a Policy with the package defaults filled in.
func NewPolicy(name string, retryIf func(error) bool) Policy {
	return Policy{
		Name:        name,
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
		MaxDelay:    DefaultMaxDelay,
		RetryIf:     retryIf,
	}
}

func (p Policy) build() retrypolicy.RetryPolicy[any] {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay < delay {
		maxDelay = DefaultMaxDelay
	}
	return retrypolicy.Builder[any]().
		HandleIf(func(_ any, err error) bool {
			if err == nil {
				return false
			}
			if p.RetryIf == nil {
				return true
			}
			return p.RetryIf(err)
		}).
		WithBackoff(delay, maxDelay).
		WithMaxAttempts(maxAttempts).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[any]) {
			metric.Incr("retry_attempt", []string{metric.TagAsString("policy", p.Name)})
			log.Warn().Err(e.LastError()).Msgf("Retrying %s, attempt %d", p.Name, e.Attempts())
		}).
		Build()
}

// Run executes op under the policy, honoring ctx cancellation between attempts.
func (p Policy) Run(ctx context.Context, op func() error) error {
	return failsafe.NewExecutor[any](p.build()).WithContext(ctx).Run(op)
}
