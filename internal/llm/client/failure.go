package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	ErrEmptyResponse = errors.New("empty response from LLM")
	ErrMissingAPIKey = errors.New("api key is missing")
	ErrInvalidAPIKey = errors.New("api key is malformed")
)

// FailureKind classifies a provider failure for retry decisions.
type FailureKind string

const (
	FailureRateLimited FailureKind = "rate_limited"
	FailureTimeout     FailureKind = "timeout"
	FailureHard        FailureKind = "hard"
)

// Failure is the error every provider call returns on a non-success outcome.
type Failure struct {
	Kind     FailureKind
	Provider string
	// RetryAfter is the server-suggested delay; zero when none was given.
	RetryAfter time.Duration
	Err        error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Provider, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Provider, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Retryable reports whether the failure may succeed on a later attempt.
func (f *Failure) Retryable() bool {
	return f.Kind == FailureRateLimited || f.Kind == FailureTimeout
}

func NewRateLimited(provider string, retryAfter time.Duration, err error) error {
	return &Failure{Kind: FailureRateLimited, Provider: provider, RetryAfter: retryAfter, Err: err}
}

func NewTimeout(provider string, err error) error {
	return &Failure{Kind: FailureTimeout, Provider: provider, Err: err}
}

func NewHard(provider string, err error) error {
	return &Failure{Kind: FailureHard, Provider: provider, Err: err}
}

// AsFailure normalizes any error into a *Failure. Errors that are not already
// a Failure are classified as timeouts when they look like one, hard otherwise.
func AsFailure(provider string, err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	if isTimeout(err) {
		return &Failure{Kind: FailureTimeout, Provider: provider, Err: err}
	}
	return &Failure{Kind: FailureHard, Provider: provider, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
