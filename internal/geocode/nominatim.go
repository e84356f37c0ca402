package geocode

import (
	"context"

	"address_search_backend/internal/nominatim"
	"address_search_backend/platform/logger"
)

// NominatimResolver geocodes through an OSM Nominatim search endpoint.
type NominatimResolver struct {
	client  *nominatim.Client
	country string
	log     *logger.Logger
}

func NewNominatimResolver(client *nominatim.Client, country string, log *logger.Logger) *NominatimResolver {
	if log == nil {
		log = logger.Discard()
	}
	return &NominatimResolver{client: client, country: country, log: log}
}

func (r *NominatimResolver) Geocode(ctx context.Context, address string) ([]Record, error) {
	found, err := r.client.Search(ctx, nominatim.SearchParams{
		Query:        address,
		CountryCodes: r.country,
		Limit:        1,
	})
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(found))
	for _, place := range found {
		rec := Record{
			FormattedAddress: place.DisplayName,
			PlaceID:          place.PlaceID.String(),
			LocationType:     place.Type,
		}
		lat, lon, err := nominatim.Coordinates(place)
		if err != nil {
			r.log.Warn("nominatim result without usable coordinates", "placeId", rec.PlaceID, "error", err)
		} else {
			rec.Location = &LatLng{Lat: lat, Lng: lon}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *NominatimResolver) ToLatLng(_ context.Context, record Record) (LatLng, error) {
	return RecordLatLng(record)
}
