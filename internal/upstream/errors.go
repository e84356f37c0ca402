// Package upstream classifies failures of the external places and geocoding
// services so callers can tell quota problems from timeouts from bad input.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorType categorises an upstream failure.
type ErrorType int

const (
	// ErrorTypeUnknown is anything not covered below.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit means the service asked us to slow down.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded means the daily or billing quota is gone.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout means no answer within the deadline.
	ErrorTypeTimeout
	// ErrorTypeNotFound means the service answered but found nothing usable.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest means the request was rejected as malformed.
	ErrorTypeInvalidRequest
	// ErrorTypeDenied means the key or the referrer is not allowed.
	ErrorTypeDenied
	// ErrorTypeNetwork means the service could not be reached or is down.
	ErrorTypeNetwork
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeQuotaExceeded:
		return "quota_exceeded"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeInvalidRequest:
		return "invalid_request"
	case ErrorTypeDenied:
		return "denied"
	case ErrorTypeNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is a classified upstream failure.
type Error struct {
	Type     ErrorType
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TypeOf returns the classification of err, looking through wrapping.
// Context deadlines and net timeouts count as ErrorTypeTimeout even when
// they were not wrapped in an *Error.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}
	var upErr *Error
	if errors.As(err, &upErr) && upErr.Type != ErrorTypeUnknown {
		return upErr.Type
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}
	return ErrorTypeUnknown
}

// IsRateLimitError reports whether err is a rate-limit rejection.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if TypeOf(err) == ErrorTypeRateLimit {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err is a quota rejection.
func IsQuotaExceededError(err error) bool {
	if err == nil {
		return false
	}
	if TypeOf(err) == ErrorTypeQuotaExceeded {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if TypeOf(err) == ErrorTypeTimeout {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsNotFoundError reports whether the upstream found nothing.
func IsNotFoundError(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// ClassifyHTTPError turns a non-200 status into a typed error.
func ClassifyHTTPError(provider string, statusCode int) *Error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &Error{Type: ErrorTypeRateLimit, Provider: provider, Message: "rate limit reached"}
	case http.StatusForbidden:
		return &Error{Type: ErrorTypeQuotaExceeded, Provider: provider, Message: "quota exceeded or access denied"}
	case http.StatusUnauthorized:
		return &Error{Type: ErrorTypeDenied, Provider: provider, Message: "request not authorized"}
	case http.StatusBadRequest:
		return &Error{Type: ErrorTypeInvalidRequest, Provider: provider, Message: "invalid request"}
	case http.StatusNotFound:
		return &Error{Type: ErrorTypeNotFound, Provider: provider, Message: "not found"}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &Error{Type: ErrorTypeNetwork, Provider: provider, Message: fmt.Sprintf("service unavailable (status %d)", statusCode)}
	default:
		return &Error{Type: ErrorTypeUnknown, Provider: provider, Message: fmt.Sprintf("http status %d", statusCode)}
	}
}

// ClassifyGoogleStatus maps the "status" field of the Google Maps web APIs.
// OK and ZERO_RESULTS are not errors and return nil.
func ClassifyGoogleStatus(provider, status, message string) *Error {
	msg := "status " + status
	if message != "" {
		msg += ": " + message
	}

	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return &Error{Type: ErrorTypeQuotaExceeded, Provider: provider, Message: msg}
	case "REQUEST_DENIED":
		return &Error{Type: ErrorTypeDenied, Provider: provider, Message: msg}
	case "INVALID_REQUEST":
		return &Error{Type: ErrorTypeInvalidRequest, Provider: provider, Message: msg}
	case "NOT_FOUND":
		return &Error{Type: ErrorTypeNotFound, Provider: provider, Message: msg}
	default:
		return &Error{Type: ErrorTypeUnknown, Provider: provider, Message: msg}
	}
}

// Transport wraps an error returned by http.Client.Do.
func Transport(provider string, err error) *Error {
	t := ErrorTypeNetwork
	if TypeOf(err) == ErrorTypeTimeout {
		t = ErrorTypeTimeout
	}
	return &Error{Type: t, Provider: provider, Message: "request failed", Err: err}
}
