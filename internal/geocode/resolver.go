// Package geocode resolves an exact address string into coordinates.
package geocode

import (
	"context"
	"errors"
)

// ErrNoLocation is returned by ToLatLng for a record without geometry.
var ErrNoLocation = errors.New("geocode record has no location")

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Record is one canonical geocode result. LocationType follows Google's
// vocabulary (ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE);
// Nominatim records carry the OSM type instead.
type Record struct {
	FormattedAddress string  `json:"formattedAddress"`
	PlaceID          string  `json:"placeId,omitempty"`
	LocationType     string  `json:"locationType,omitempty"`
	Location         *LatLng `json:"location,omitempty"`
}

// Resolver turns an exact address into ranked records. An address that
// matches nothing yields an empty slice and a nil error.
type Resolver interface {
	Geocode(ctx context.Context, address string) ([]Record, error)
	ToLatLng(ctx context.Context, record Record) (LatLng, error)
}

// RecordLatLng is the ToLatLng shared by the bundled resolvers.
func RecordLatLng(record Record) (LatLng, error) {
	if record.Location == nil {
		return LatLng{}, ErrNoLocation
	}
	return *record.Location, nil
}
