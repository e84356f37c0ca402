package places

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"address_search_backend/internal/nominatim"
	"address_search_backend/internal/upstream"
	"address_search_backend/platform/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestGoogleProviderFetch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/place/autocomplete/json", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"input":      q.Get("input"),
			"key":        q.Get("key"),
			"types":      q.Get("types"),
			"components": q.Get("components"),
		}
		_, _ = w.Write([]byte(`{"status":"OK","predictions":[
			{"description":"1 Main St, Springfield, IL, USA","place_id":"a"},
			{"description":"1 Main Ave, Chicago, IL, USA","place_id":"b"},
			{"description":"1 Main Rd, Peoria, IL, USA","place_id":"c"}]}`))
	}))
	defer srv.Close()

	p := NewGoogleProvider(srv.URL+"/", "secret", nil)
	opts := DefaultRequestOptions()
	opts.Limit = 2

	got, err := p.Fetch(context.Background(), "1 Main", opts)
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{
		{Description: "1 Main St, Springfield, IL, USA", PlaceID: "a"},
		{Description: "1 Main Ave, Chicago, IL, USA", PlaceID: "b"},
	}, got)
	assert.Equal(t, map[string]string{
		"input":      "1 Main",
		"key":        "secret",
		"types":      "address",
		"components": "country:us",
	}, gotQuery)
}

func TestGoogleProviderZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","predictions":[]}`))
	}))
	defer srv.Close()

	got, err := NewGoogleProvider(srv.URL, "k", nil).Fetch(context.Background(), "zzzz", DefaultRequestOptions())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGoogleProviderStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","error_message":"slow down"}`))
	}))
	defer srv.Close()

	_, err := NewGoogleProvider(srv.URL, "k", nil).Fetch(context.Background(), "1 Main", DefaultRequestOptions())
	require.Error(t, err)
	assert.True(t, upstream.IsRateLimitError(err) || upstream.IsQuotaExceededError(err))
}

func TestNominatimProviderFiltersNonStreetResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"place_id": 1, "display_name": "Springfield, IL", "lat": "1", "lon": "2", "address": {"city": "Springfield"}},
			{"place_id": 2, "display_name": "1, Main Street, Springfield", "lat": "1", "lon": "2",
			 "address": {"road": "Main Street", "house_number": "1", "postcode": "62701", "city": "Springfield"}}
		]`))
	}))
	defer srv.Close()

	p := NewNominatimProvider(nominatim.NewClient(srv.URL, "test", nil))

	got, err := p.Fetch(context.Background(), "1 Main", DefaultRequestOptions())
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{{Description: "1 Main Street, Springfield 62701", PlaceID: "2"}}, got)

	opts := DefaultRequestOptions()
	opts.ResultKind = "geocode"
	got, err = p.Fetch(context.Background(), "Springfield", opts)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Springfield, IL", got[0].Description)
}

func TestNominatimProviderFillsLimitAfterFiltering(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		var b strings.Builder
		b.WriteString("[")
		for i := 1; i <= 8; i++ {
			if i > 1 {
				b.WriteString(",")
			}
			if i%3 == 0 {
				fmt.Fprintf(&b, `{"place_id": %d, "display_name": "Springfield", "address": {"city": "Springfield"}}`, i)
				continue
			}
			fmt.Fprintf(&b, `{"place_id": %d, "display_name": "x", "address": {"road": "Main Street", "house_number": "%d", "city": "Springfield", "country_code": "nl"}}`, i, i)
		}
		b.WriteString("]")
		_, _ = w.Write([]byte(b.String()))
	}))
	defer srv.Close()

	p := NewNominatimProvider(nominatim.NewClient(srv.URL, "test", nil))
	opts := DefaultRequestOptions()
	opts.Limit = 5

	got, err := p.Fetch(context.Background(), "Main Street", opts)
	require.NoError(t, err)
	assert.Equal(t, "10", gotLimit)
	require.Len(t, got, 5)
	assert.Equal(t, "Main Street 1, Springfield", got[0].Description)
	assert.Equal(t, "Main Street 7, Springfield", got[4].Description)
}

func TestRateLimitedHonoursContext(t *testing.T) {
	calls := 0
	inner := ProviderFunc(func(context.Context, string, RequestOptions) ([]Suggestion, error) {
		calls++
		return []Suggestion{{Description: "x"}}, nil
	})

	limited := RateLimited(inner, rate.NewLimiter(rate.Every(time.Hour), 1))

	_, err := limited.Fetch(context.Background(), "a", DefaultRequestOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Fetch(ctx, "b", DefaultRequestOptions())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRequestOptionsValidate(t *testing.T) {
	val := validator.New()

	assert.NoError(t, DefaultRequestOptions().Validate(val))

	bad := DefaultRequestOptions()
	bad.ResultKind = "bakery"
	assert.Error(t, bad.Validate(val))

	bad = DefaultRequestOptions()
	bad.Country = "usa"
	assert.Error(t, bad.Validate(val))
}
