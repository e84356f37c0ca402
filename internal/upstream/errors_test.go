package upstream

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "typed", err: &Error{Type: ErrorTypeRateLimit, Message: "slow down"}, want: true},
		{name: "wrapped typed", err: fmt.Errorf("fetch: %w", ClassifyHTTPError("nominatim", 429)), want: true},
		{name: "message", err: errors.New("too many requests"), want: true},
		{name: "other type", err: &Error{Type: ErrorTypeNotFound, Message: "nothing"}, want: false},
		{name: "nil", err: nil, want: false},
	}, IsRateLimitError)
}

func TestIsQuotaExceededError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "google status", err: ClassifyGoogleStatus("google_places", "OVER_QUERY_LIMIT", ""), want: true},
		{name: "message", err: errors.New("google maps status: OVER_QUERY_LIMIT"), want: true},
		{name: "other", err: errors.New("some other error"), want: false},
	}, IsQuotaExceededError)
}

func TestIsTimeoutError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "context deadline", err: fmt.Errorf("geocode: %w", context.DeadlineExceeded), want: true},
		{name: "transport wraps deadline", err: Transport("google_geocoding", context.DeadlineExceeded), want: true},
		{name: "typed", err: &Error{Type: ErrorTypeTimeout}, want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}, IsTimeoutError)
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{429, ErrorTypeRateLimit},
		{403, ErrorTypeQuotaExceeded},
		{401, ErrorTypeDenied},
		{400, ErrorTypeInvalidRequest},
		{404, ErrorTypeNotFound},
		{502, ErrorTypeNetwork},
		{503, ErrorTypeNetwork},
		{504, ErrorTypeNetwork},
		{500, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			got := ClassifyHTTPError("p", tt.status)
			if got.Type != tt.want {
				t.Errorf("ClassifyHTTPError(%d) = %v, want %v", tt.status, got.Type, tt.want)
			}
		})
	}
}

func TestClassifyGoogleStatus(t *testing.T) {
	if err := ClassifyGoogleStatus("p", "OK", ""); err != nil {
		t.Fatalf("OK classified as %v", err)
	}
	if err := ClassifyGoogleStatus("p", "ZERO_RESULTS", ""); err != nil {
		t.Fatalf("ZERO_RESULTS classified as %v", err)
	}

	err := ClassifyGoogleStatus("p", "REQUEST_DENIED", "The provided API key is invalid.")
	if err.Type != ErrorTypeDenied {
		t.Fatalf("REQUEST_DENIED type = %v", err.Type)
	}
	if want := "p: status REQUEST_DENIED: The provided API key is invalid."; err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner error")
	err := &Error{Type: ErrorTypeNetwork, Message: "request failed", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find wrapped error")
	}
}
