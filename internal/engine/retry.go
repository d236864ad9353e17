package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// maxGuardedRetries caps retries of RetryClassMaybe errors regardless of policy.
const maxGuardedRetries = 2

// RetryPolicy configures exponential backoff for provider calls.
type RetryPolicy struct {
	MaxRetries   int // 0 disables retries
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool // add up to 20% random delay
}

// RetryableFunc is one attempt of a retried operation.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryWithPolicy runs fn until it succeeds, classify rejects the error, the
// policy's budget is spent or ctx is done. onRetry, when set, is told about
// each retry before its delay.
func RetryWithPolicy[T any](
	ctx context.Context,
	policy RetryPolicy,
	fn RetryableFunc[T],
	classify func(error) RetryClass,
	onRetry func(attempt int, delay time.Duration, err error),
) (T, error) {
	var zero T

	for retries := 0; ; retries++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		switch class := classify(err); {
		case class == RetryClassNonRetryable:
			return zero, err
		case retries >= policy.MaxRetries:
			return zero, &RetryExhaustedError{Err: err, Attempts: retries + 1}
		case class == RetryClassMaybe && retries >= maxGuardedRetries:
			return zero, &RetryExhaustedError{Err: err, Attempts: retries + 1, Guarded: true}
		}

		delay := backoff(policy, retries, err)
		if onRetry != nil {
			onRetry(retries+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// backoff returns the wait before retry number n (0-based). A server-sent
// Retry-After wins over the exponential schedule; both are capped at MaxDelay.
func backoff(policy RetryPolicy, n int, err error) time.Duration {
	if wait := ExtractRetryAfter(err); wait > 0 {
		return min(wait, policy.MaxDelay)
	}

	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(n))
	delay = math.Min(delay, float64(policy.MaxDelay))
	if policy.Jitter {
		delay += rand.Float64() * 0.2 * delay
	}
	return time.Duration(delay)
}

// RetryLLMCall runs one chat call under policy using ClassifyLLMError.
func RetryLLMCall(
	ctx context.Context,
	policy RetryPolicy,
	llm LLMClient,
	model string,
	messages []ChatMessage,
	opts ChatOptions,
	onRetry func(attempt int, delay time.Duration, err error),
) (LLMResponse, error) {
	call := func(ctx context.Context) (LLMResponse, error) {
		return llm.Chat(ctx, model, messages, opts)
	}
	return RetryWithPolicy(ctx, policy, call, ClassifyLLMError, onRetry)
}
