package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryClass says whether a failed provider call is worth repeating.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"
	RetryClassMaybe        RetryClass = "maybe" // at most maxGuardedRetries
	RetryClassNonRetryable RetryClass = "non_retryable"
)

// EngineError is a provider error annotated with its retry class and the
// HTTP metadata that could be recovered from it.
type EngineError struct {
	Err         error
	Class       RetryClass
	HTTPStatus  int
	RetryAfter  string
	IsRateLimit bool
	IsNetwork   bool
	IsAuth      bool
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("engine error: %s", e.Class)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// errorPatterns are checked in order; the first group with a matching
// substring decides the class. Anything unmatched is not retried.
var errorPatterns = []struct {
	class    RetryClass
	patterns []string
}{
	// rate limiting
	{RetryClassRetryable, []string{"429", "rate limit", "too many requests"}},
	// server side
	{RetryClassRetryable, []string{"500", "502", "503", "504", "internal server error", "bad gateway", "service unavailable", "gateway timeout"}},
	// transport
	{RetryClassRetryable, []string{"timeout", "connection reset", "connection refused", "no such host", "network", "dns", "temporary failure"}},
	{RetryClassMaybe, []string{"deadline exceeded"}},
	{RetryClassMaybe, []string{"context length", "token limit"}},
}

// ClassifyLLMError decides the retry class of a provider error.
func ClassifyLLMError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}

	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Class
	}

	msg := strings.ToLower(err.Error())
	for _, group := range errorPatterns {
		for _, p := range group.patterns {
			if strings.Contains(msg, p) {
				return group.class
			}
		}
	}
	return RetryClassNonRetryable
}

// ExtractRetryAfter returns the server-requested wait carried by err, or 0.
// Both delta-seconds and HTTP-date forms are understood.
func ExtractRetryAfter(err error) time.Duration {
	if err == nil {
		return 0
	}

	var engineErr *EngineError
	if errors.As(err, &engineErr) && engineErr.RetryAfter != "" {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(engineErr.RetryAfter)); convErr == nil {
			return time.Duration(seconds) * time.Second
		}
		if at, parseErr := http.ParseTime(engineErr.RetryAfter); parseErr == nil {
			if wait := time.Until(at); wait > 0 {
				return wait
			}
		}
	}

	msg := strings.ToLower(err.Error())
	if _, rest, ok := strings.Cut(msg, "retry after "); ok {
		if fields := strings.Fields(rest); len(fields) > 0 {
			if seconds, convErr := strconv.Atoi(strings.TrimRight(fields[0], "s.,")); convErr == nil {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return 0
}

// WrapLLMError annotates a provider error with its class and HTTP metadata.
func WrapLLMError(err error, httpStatus int, retryAfter string) error {
	if err == nil {
		return nil
	}
	return &EngineError{
		Err:         err,
		Class:       ClassifyLLMError(err),
		HTTPStatus:  httpStatus,
		RetryAfter:  retryAfter,
		IsRateLimit: httpStatus == http.StatusTooManyRequests,
		IsNetwork:   httpStatus == 0 || httpStatus >= 500,
		IsAuth:      httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden,
	}
}

// RetryExhaustedError reports the last error after the retry budget ran out.
type RetryExhaustedError struct {
	Err      error
	Attempts int
	Guarded  bool // the error was of class maybe
}

func (e *RetryExhaustedError) Error() string {
	kind := "retries"
	if e.Guarded {
		kind = "guarded retries"
	}
	return fmt.Sprintf("%s exhausted after %d attempts: %v", kind, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// IsRetryExhausted reports whether err ends in an exhausted retry budget.
func IsRetryExhausted(err error) bool {
	var exhausted *RetryExhaustedError
	return errors.As(err, &exhausted)
}
