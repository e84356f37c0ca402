package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"address_search_backend/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `[
  {"place_id": 101, "display_name": "1, Main Street, Springfield, IL, USA", "lat": "39.1", "lon": "-89.6",
   "address": {"road": "Main Street", "house_number": "1", "postcode": "62701", "city": "Springfield"}},
  {"place_id": 102, "display_name": "Springfield, IL, USA", "lat": "39.8", "lon": "-89.64",
   "address": {"city": "Springfield"}}
]`

func TestSearchSendsParameters(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "AddressSearchTest/1.0", nil)
	places, err := c.Search(context.Background(), SearchParams{Query: "1 Main", CountryCodes: "US", Limit: 5, Language: "en"})
	require.NoError(t, err)
	require.Len(t, places, 2)

	q := got.URL.Query()
	assert.Equal(t, "1 Main", q.Get("q"))
	assert.Equal(t, "us", q.Get("countrycodes"))
	assert.Equal(t, "5", q.Get("limit"))
	assert.Equal(t, "en", q.Get("accept-language"))
	assert.Equal(t, "AddressSearchTest/1.0", got.Header.Get("User-Agent"))
	assert.Equal(t, "101", places[0].PlaceID.String())
}

func TestSearchClassifiesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "ua", nil).Search(context.Background(), SearchParams{Query: "x"})
	require.Error(t, err)
	assert.True(t, upstream.IsRateLimitError(err))
}

func TestStreetLabel(t *testing.T) {
	tests := []struct {
		name    string
		addr    Address
		country string
		want    string
		wantOK  bool
	}{
		{
			name:    "dutch order",
			addr:    Address{Road: "Main Street", HouseNumber: "1", Postcode: "62701", City: "Springfield"},
			country: "nl",
			want:    "Main Street 1, 62701 Springfield",
			wantOK:  true,
		},
		{
			name:    "town without number",
			addr:    Address{Road: "Elm Road", Town: "Shelbyville"},
			country: "de",
			want:    "Elm Road, Shelbyville",
			wantOK:  true,
		},
		{
			name:    "us order from fallback country",
			addr:    Address{Road: "Main Street", HouseNumber: "1", Postcode: "62701", City: "Springfield", State: "Illinois"},
			country: "US",
			want:    "1 Main Street, Springfield, Illinois 62701",
			wantOK:  true,
		},
		{
			name:    "result country wins over fallback",
			addr:    Address{Road: "Main Street", HouseNumber: "1", City: "Springfield", CountryCode: "us"},
			country: "nl",
			want:    "1 Main Street, Springfield",
			wantOK:  true,
		},
		{name: "no road", addr: Address{City: "Springfield"}, country: "us"},
		{name: "no city", addr: Address{Road: "Main Street"}, country: "us"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := StreetLabel(Place{Address: tt.addr}, tt.country)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoordinates(t *testing.T) {
	lat, lon, err := Coordinates(Place{Lat: "39.1", Lon: "-89.6"})
	require.NoError(t, err)
	assert.InDelta(t, 39.1, lat, 1e-9)
	assert.InDelta(t, -89.6, lon, 1e-9)

	_, _, err = Coordinates(Place{Lat: "north", Lon: "-89.6"})
	assert.Error(t, err)
}
