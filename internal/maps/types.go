package maps

import (
	"address_search_backend/internal/geocode"
	"address_search_backend/internal/places"
	"address_search_backend/internal/session"
)

// LookupRequest represents the query parameters of a one-off suggestion lookup.
type LookupRequest struct {
	Query string `form:"q" binding:"required,min=3"`
}

// GeocodeRequest represents the query parameters of a one-off geocode.
type GeocodeRequest struct {
	Address string `form:"address" binding:"required"`
}

// GeocodeResult is the first record of a geocode, flattened for forms.
type GeocodeResult struct {
	Address          string  `json:"address"`
	FormattedAddress string  `json:"formattedAddress"`
	PlaceID          string  `json:"placeId,omitempty"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
}

type CreateSessionRequest struct {
	DefaultValue string `json:"defaultValue"`
}

// InputRequest carries the raw text of the input field. An empty string is
// valid and clears the session, so Text is a pointer.
type InputRequest struct {
	Text *string `json:"text" binding:"required"`
}

type SelectRequest struct {
	Address string `json:"address" validate:"required,notblank"`
}

type SessionResponse struct {
	ID       string           `json:"id"`
	Snapshot session.Snapshot `json:"snapshot"`
}

type SuggestionsResponse struct {
	Status      session.Status      `json:"status"`
	Suggestions []places.Suggestion `json:"suggestions"`
	Error       string              `json:"error,omitempty"`
}

// liveInbound is a message from a websocket client.
type liveInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// liveOutbound is a message to a websocket client.
type liveOutbound struct {
	Type      string             `json:"type"`
	Snapshot  *session.Snapshot  `json:"snapshot,omitempty"`
	Selection *session.Selection `json:"selection,omitempty"`
	Code      string             `json:"code,omitempty"`
	Message   string             `json:"message,omitempty"`
}

func geocodeResult(address string, rec geocode.Record, ll geocode.LatLng) GeocodeResult {
	return GeocodeResult{
		Address:          address,
		FormattedAddress: rec.FormattedAddress,
		PlaceID:          rec.PlaceID,
		Lat:              ll.Lat,
		Lng:              ll.Lng,
	}
}
