package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common backend failures.
var (
	ErrContextLengthExceeded = errors.New("context length exceeded")
	ErrContentBlocked        = errors.New("content blocked by safety filters")
	ErrRateLimit             = errors.New("rate limit exceeded")
	ErrAuthentication        = errors.New("authentication failed")
	ErrServiceUnavailable    = errors.New("service unavailable")
	ErrInvalidRequest        = errors.New("invalid request")
)

// ErrorCode classifies a backend error.
type ErrorCode string

const (
	ErrorCodeContextLength  ErrorCode = "context_length_exceeded"
	ErrorCodeContentBlocked ErrorCode = "content_blocked"
	ErrorCodeRateLimit      ErrorCode = "rate_limit"
	ErrorCodeAuth           ErrorCode = "authentication_failed"
	ErrorCodeUnavailable    ErrorCode = "service_unavailable"
	ErrorCodeInvalidRequest ErrorCode = "invalid_request"
)

// ProviderError wraps a backend failure with its classification. Turn-level
// callers treat any ProviderError as an infrastructure failure: the
// conversation state is left unchanged so a retry is safe.
type ProviderError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes both the code's sentinel and the underlying cause, so
// errors.Is(err, ErrRateLimit) works regardless of which backend produced
// the failure.
func (e *ProviderError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel := e.Code.sentinel(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Underlying != nil {
		errs = append(errs, e.Underlying)
	}
	return errs
}

func (c ErrorCode) sentinel() error {
	switch c {
	case ErrorCodeContextLength:
		return ErrContextLengthExceeded
	case ErrorCodeContentBlocked:
		return ErrContentBlocked
	case ErrorCodeRateLimit:
		return ErrRateLimit
	case ErrorCodeAuth:
		return ErrAuthentication
	case ErrorCodeUnavailable:
		return ErrServiceUnavailable
	case ErrorCodeInvalidRequest:
		return ErrInvalidRequest
	}
	return nil
}

// IsRetryable reports whether err is a retryable backend failure.
func IsRetryable(err error) bool {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}
	return false
}
