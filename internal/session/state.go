package session

import (
	"fmt"

	"address_search_backend/internal/places"
)

// Status tags the active variant of SuggestionState.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusIdle, StatusLoading, StatusReady, StatusError} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown session status %q", text)
}

// SuggestionState is what the presentation surface renders. Suggestions is
// only set when Status is StatusReady, Err only when it is StatusError.
type SuggestionState struct {
	Status      Status
	Suggestions []places.Suggestion
	Err         error
}

func (s SuggestionState) clone() SuggestionState {
	if s.Suggestions != nil {
		s.Suggestions = append([]places.Suggestion(nil), s.Suggestions...)
	}
	return s
}

// Selection is the committed result handed to the host. Nil coordinates
// mean there is no selection, which is what clearing the input produces.
type Selection struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Cleared reports whether s is the empty selection.
func (s Selection) Cleared() bool {
	return s.Address == "" && s.Latitude == nil && s.Longitude == nil
}

func resolvedSelection(address string, lat, lng float64) Selection {
	return Selection{Address: address, Latitude: &lat, Longitude: &lng}
}

// Snapshot is a serialisable view of a controller.
type Snapshot struct {
	Query        string              `json:"query"`
	Status       Status              `json:"status"`
	Suggestions  []places.Suggestion `json:"suggestions"`
	Error        string              `json:"error,omitempty"`
	Resolving    bool                `json:"resolving"`
	ResolveError string              `json:"resolveError,omitempty"`
}
