package engine

import "time"

// DefaultRetryPolicy returns the policy used for LLM calls when none is configured.
// Calls are not retried unless MaxRetries is raised explicitly.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   0,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}
