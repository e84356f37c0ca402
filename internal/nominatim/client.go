// Package nominatim is a small client for the OpenStreetMap Nominatim search
// API. It backs both the suggestion provider and the geocoder when no Google
// key is configured.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"address_search_backend/internal/upstream"
	"address_search_backend/platform/logger"
)

// ProviderName tags errors and log lines coming from this client.
const ProviderName = "nominatim"

// DefaultURL is the public OSM search endpoint.
const DefaultURL = "https://nominatim.openstreetmap.org/search"

type Client struct {
	endpoint  string
	userAgent string
	client    *http.Client
	log       *logger.Logger
}

// NewClient creates a client. The public instance requires a descriptive
// User-Agent, so an empty one is rejected by the server; callers pass one from config.
func NewClient(endpoint, userAgent string, log *logger.Logger) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultURL
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		endpoint:  endpoint,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log,
	}
}

// Search runs one /search request and returns the raw places in rank order.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]Place, error) {
	params := url.Values{}
	params.Add("q", p.Query)
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	if p.Limit > 0 {
		params.Add("limit", strconv.Itoa(p.Limit))
	}
	if p.CountryCodes != "" {
		params.Add("countrycodes", strings.ToLower(p.CountryCodes))
	}
	if p.Language != "" {
		params.Add("accept-language", p.Language)
	}

	reqURL := fmt.Sprintf("%s?%s", c.endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.UpstreamError(ProviderName, "search", err)
		return nil, upstream.Transport(ProviderName, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		classified := upstream.ClassifyHTTPError(ProviderName, resp.StatusCode)
		c.log.UpstreamError(ProviderName, "search", classified)
		return nil, classified
	}

	var places []Place
	if err := json.NewDecoder(io.LimitReader(resp.Body, 2<<20)).Decode(&places); err != nil {
		c.log.Error("failed to decode nominatim payload", "error", err)
		return nil, fmt.Errorf("decoding nominatim payload: %w", err)
	}

	return places, nil
}

// PickCity returns the most specific settlement name present.
func PickCity(address Address) string {
	if address.City != "" {
		return address.City
	}
	if address.Town != "" {
		return address.Town
	}
	if address.Village != "" {
		return address.Village
	}
	if address.Municipality != "" {
		return address.Municipality
	}
	return address.Hamlet
}

// numberFirst lists the countries that write the house number before the
// road ("1 Main Street").
var numberFirst = map[string]bool{
	"us": true, "ca": true, "gb": true, "au": true, "nz": true, "ie": true,
}

// StreetLabel renders a street address the way it is written in the place's
// country, falling back to country when the result carries no country code:
//
//	us and friends: "<number> <road>, <city>, <state> <postcode>"
//	elsewhere:      "<road> <number>, <postcode> <city>"
//
// ok is false when the place has no road or no settlement, i.e. it is not a
// street address.
func StreetLabel(place Place, country string) (label string, ok bool) {
	addr := place.Address
	if addr.Road == "" {
		return "", false
	}

	city := PickCity(addr)
	if city == "" {
		return "", false
	}

	cc := strings.ToLower(addr.CountryCode)
	if cc == "" {
		cc = strings.ToLower(country)
	}

	if numberFirst[cc] {
		street := strings.TrimSpace(addr.HouseNumber + " " + addr.Road)
		region := strings.TrimSpace(addr.State + " " + addr.Postcode)
		parts := []string{street, city}
		if region != "" {
			parts = append(parts, region)
		}
		return strings.Join(parts, ", "), true
	}

	street := strings.TrimSpace(addr.Road + " " + addr.HouseNumber)
	locality := strings.TrimSpace(addr.Postcode + " " + city)
	return street + ", " + locality, true
}

// Coordinates parses the string lat/lon pair of a place.
func Coordinates(place Place) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(strings.TrimSpace(place.Lat), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", place.Lat, err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(place.Lon), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", place.Lon, err)
	}
	return lat, lon, nil
}
