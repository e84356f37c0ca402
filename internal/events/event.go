// Package events provides the domain events a search session emits to its
// host. Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"address_search_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

const (
	AddressSelectedEvent      = "session.address.selected"
	AddressResolveFailedEvent = "session.address.resolve_failed"
)

// AddressSelected is published when a session commits a selection: either a
// geocoded address, or the empty selection after the input was cleared.
// Latitude and Longitude are nil for the empty selection.
type AddressSelected struct {
	BaseEvent
	SessionID string   `json:"sessionId"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (e AddressSelected) EventName() string { return AddressSelectedEvent }

// Cleared reports whether this is the empty selection.
func (e AddressSelected) Cleared() bool {
	return e.Address == "" && e.Latitude == nil && e.Longitude == nil
}

// AddressResolveFailed is published when geocoding a chosen suggestion
// failed and the session surfaces resolve failures.
type AddressResolveFailed struct {
	BaseEvent
	SessionID string `json:"sessionId"`
	Address   string `json:"address"`
	Reason    string `json:"reason"`
}

func (e AddressResolveFailed) EventName() string { return AddressResolveFailedEvent }
