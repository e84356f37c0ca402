// Package adapters builds the external places and geocoding services
// selected by configuration and adapts them to the places.Provider and
// geocode.Resolver contracts the sessions consume.
package adapters

import (
	"fmt"

	"address_search_backend/internal/geocode"
	"address_search_backend/internal/nominatim"
	"address_search_backend/internal/places"
	"address_search_backend/platform/config"
	"address_search_backend/platform/logger"

	"golang.org/x/time/rate"
)

// UpstreamConfig combines the config interfaces needed to build upstreams.
type UpstreamConfig interface {
	config.PlacesConfig
	config.SearchConfig
	config.RateLimitConfig
}

// Upstreams are the rate-limited collaborators shared by every session.
type Upstreams struct {
	Name     string
	Provider places.Provider
	Resolver geocode.Resolver
}

// NewUpstreams builds the configured provider and resolver. Both share one
// limiter: the public Nominatim instance and the Google key quota each count
// autocomplete and geocode requests against the same budget.
func NewUpstreams(cfg UpstreamConfig, log *logger.Logger) (*Upstreams, error) {
	limiter := rate.NewLimiter(rate.Limit(cfg.GetUpstreamRatePerSec()), cfg.GetUpstreamBurst())

	var (
		provider places.Provider
		resolver geocode.Resolver
	)

	switch cfg.GetPlacesProvider() {
	case config.ProviderGoogle:
		provider = places.NewGoogleProvider(cfg.GetGoogleMapsBaseURL(), cfg.GetGoogleMapsAPIKey(), log)
		resolver = geocode.NewGoogleResolver(cfg.GetGoogleMapsBaseURL(), cfg.GetGoogleMapsAPIKey(), cfg.GetSearchCountry(), log)
	case config.ProviderNominatim:
		client := nominatim.NewClient(cfg.GetNominatimURL(), cfg.GetNominatimUserAgent(), log)
		provider = places.NewNominatimProvider(client)
		resolver = geocode.NewNominatimResolver(client, cfg.GetSearchCountry(), log)
	default:
		return nil, fmt.Errorf("unknown places provider %q", cfg.GetPlacesProvider())
	}

	return &Upstreams{
		Name:     cfg.GetPlacesProvider(),
		Provider: places.RateLimited(provider, limiter),
		Resolver: geocode.RateLimited(resolver, limiter),
	}, nil
}
