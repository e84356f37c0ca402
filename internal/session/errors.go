package session

import "errors"

var (
	// ErrSuggestionFetchFailed wraps any provider error recorded in the
	// Error suggestion state.
	ErrSuggestionFetchFailed = errors.New("suggestion fetch failed")
	// ErrGeocodeFailed wraps any failure while resolving a selection.
	ErrGeocodeFailed = errors.New("geocode failed")
	// ErrNoGeocodeResults is the cause of ErrGeocodeFailed when the resolver
	// matched nothing.
	ErrNoGeocodeResults = errors.New("no geocode results")
	// ErrSessionClosed is returned by the manager for sessions that were
	// evicted or deleted.
	ErrSessionClosed = errors.New("session closed")
)
