// Package selection keeps the last selection each search session emitted,
// so a host that is not connected when the geocode finishes can fetch it.
package selection

import (
	"context"
	"time"

	"address_search_backend/platform/apperr"
)

// Record is the host-side copy of an emitted selection.
type Record struct {
	SessionID  string    `json:"sessionId"`
	Address    string    `json:"address"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	SelectedAt time.Time `json:"selectedAt"`
}

// Store persists one Record per session. Get returns an apperr NotFound
// error when the session never emitted or its record expired.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, sessionID string) (Record, error)
	Delete(ctx context.Context, sessionID string) error
}

func notFound(sessionID string) error {
	return apperr.NotFound("no selection for session").WithDetails(map[string]string{"sessionId": sessionID})
}
