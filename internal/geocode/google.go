package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"address_search_backend/internal/upstream"
	"address_search_backend/platform/logger"
)

const googleProviderName = "google_geocoding"

// GoogleResolver uses the Google Maps Geocoding API.
type GoogleResolver struct {
	baseURL string
	apiKey  string
	country string
	client  *http.Client
	log     *logger.Logger
}

// NewGoogleResolver creates a resolver. A non-empty country restricts
// results through the components filter.
func NewGoogleResolver(baseURL, apiKey, country string, log *logger.Logger) *GoogleResolver {
	if log == nil {
		log = logger.Discard()
	}
	return &GoogleResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		country: strings.ToLower(country),
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type googleGeocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
		PlaceID          string `json:"place_id"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

func (g *GoogleResolver) Geocode(ctx context.Context, address string) ([]Record, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)
	if g.country != "" {
		params.Set("components", "country:"+g.country)
	}

	reqURL := g.baseURL + "/geocode/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building geocode request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.UpstreamError(googleProviderName, "geocode", err)
		return nil, upstream.Transport(googleProviderName, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		classified := upstream.ClassifyHTTPError(googleProviderName, resp.StatusCode)
		g.log.UpstreamError(googleProviderName, "geocode", classified)
		return nil, classified
	}

	var payload googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding geocode response: %w", err)
	}

	if classified := upstream.ClassifyGoogleStatus(googleProviderName, payload.Status, payload.ErrorMessage); classified != nil {
		g.log.UpstreamError(googleProviderName, "geocode", classified)
		return nil, classified
	}

	records := make([]Record, 0, len(payload.Results))
	for _, r := range payload.Results {
		loc := LatLng{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng}
		records = append(records, Record{
			FormattedAddress: r.FormattedAddress,
			PlaceID:          r.PlaceID,
			LocationType:     r.Geometry.LocationType,
			Location:         &loc,
		})
	}
	return records, nil
}

func (g *GoogleResolver) ToLatLng(_ context.Context, record Record) (LatLng, error) {
	return RecordLatLng(record)
}
