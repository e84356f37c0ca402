// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Places provider identifiers accepted in PLACES_PROVIDER.
const (
	ProviderGoogle    = "google"
	ProviderNominatim = "nominatim"
)

// Geocode failure policies accepted in GEOCODE_FAILURE_POLICY.
const (
	FailurePolicySilent  = "silent"
	FailurePolicySurface = "surface"
)

// =============================================================================
// Consumer-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RateLimitConfig provides request budgets for inbound HTTP and outbound upstream calls.
type RateLimitConfig interface {
	GetHTTPRatePerSec() float64
	GetHTTPRateBurst() int
	GetUpstreamRatePerSec() float64
	GetUpstreamBurst() int
}

// PlacesConfig selects and configures the suggestion and geocoding upstreams.
type PlacesConfig interface {
	GetPlacesProvider() string
	GetGoogleMapsAPIKey() string
	GetGoogleMapsBaseURL() string
	GetNominatimURL() string
	GetNominatimUserAgent() string
}

// SearchConfig provides the per-session search behaviour.
type SearchConfig interface {
	GetSearchDebounce() time.Duration
	GetSearchResultKind() string
	GetSearchCountry() string
	GetSearchLimit() int
	GetSearchLanguage() string
	GetSuggestTimeout() time.Duration
	GetGeocodeTimeout() time.Duration
	GetGeocodeFailurePolicy() string
}

// SessionConfig bounds the set of live search sessions.
type SessionConfig interface {
	GetSessionIdleTTL() time.Duration
	GetSessionMax() int
}

// SelectionStoreConfig provides settings for the store of emitted selections.
type SelectionStoreConfig interface {
	GetRedisURL() string
	GetSelectionTTL() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	HTTPRatePerSec       float64
	HTTPRateBurst        int
	UpstreamRatePerSec   float64
	UpstreamBurst        int
	PlacesProvider       string
	GoogleMapsAPIKey     string
	GoogleMapsBaseURL    string
	NominatimURL         string
	NominatimUserAgent   string
	SearchDebounce       time.Duration
	SearchResultKind     string
	SearchCountry        string
	SearchLimit          int
	SearchLanguage       string
	SuggestTimeout       time.Duration
	GeocodeTimeout       time.Duration
	GeocodeFailurePolicy string
	SessionIdleTTL       time.Duration
	SessionMax           int
	RedisURL             string
	SelectionTTL         time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RateLimitConfig implementation
func (c *Config) GetHTTPRatePerSec() float64     { return c.HTTPRatePerSec }
func (c *Config) GetHTTPRateBurst() int          { return c.HTTPRateBurst }
func (c *Config) GetUpstreamRatePerSec() float64 { return c.UpstreamRatePerSec }
func (c *Config) GetUpstreamBurst() int          { return c.UpstreamBurst }

// PlacesConfig implementation
func (c *Config) GetPlacesProvider() string     { return c.PlacesProvider }
func (c *Config) GetGoogleMapsAPIKey() string   { return c.GoogleMapsAPIKey }
func (c *Config) GetGoogleMapsBaseURL() string  { return c.GoogleMapsBaseURL }
func (c *Config) GetNominatimURL() string       { return c.NominatimURL }
func (c *Config) GetNominatimUserAgent() string { return c.NominatimUserAgent }

// SearchConfig implementation
func (c *Config) GetSearchDebounce() time.Duration { return c.SearchDebounce }
func (c *Config) GetSearchResultKind() string      { return c.SearchResultKind }
func (c *Config) GetSearchCountry() string         { return c.SearchCountry }
func (c *Config) GetSearchLimit() int              { return c.SearchLimit }
func (c *Config) GetSearchLanguage() string        { return c.SearchLanguage }
func (c *Config) GetSuggestTimeout() time.Duration { return c.SuggestTimeout }
func (c *Config) GetGeocodeTimeout() time.Duration { return c.GeocodeTimeout }
func (c *Config) GetGeocodeFailurePolicy() string  { return c.GeocodeFailurePolicy }

// SessionConfig implementation
func (c *Config) GetSessionIdleTTL() time.Duration { return c.SessionIdleTTL }
func (c *Config) GetSessionMax() int               { return c.SessionMax }

// SelectionStoreConfig implementation
func (c *Config) GetRedisURL() string            { return c.RedisURL }
func (c *Config) GetSelectionTTL() time.Duration { return c.SelectionTTL }
func (c *Config) IsRedisEnabled() bool           { return c.RedisURL != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	apiKey := getEnv("GOOGLE_MAPS_API_KEY", "")
	defaultProvider := ProviderNominatim
	if apiKey != "" {
		defaultProvider = ProviderGoogle
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		HTTPRatePerSec:       mustFloat64(getEnv("HTTP_RATE_PER_SEC", "20")),
		HTTPRateBurst:        mustInt(getEnv("HTTP_RATE_BURST", "40")),
		UpstreamRatePerSec:   mustFloat64(getEnv("UPSTREAM_RATE_PER_SEC", "1")),
		UpstreamBurst:        mustInt(getEnv("UPSTREAM_BURST", "2")),
		PlacesProvider:       strings.ToLower(getEnv("PLACES_PROVIDER", defaultProvider)),
		GoogleMapsAPIKey:     apiKey,
		GoogleMapsBaseURL:    getEnv("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com/maps/api"),
		NominatimURL:         getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org/search"),
		NominatimUserAgent:   getEnv("NOMINATIM_USER_AGENT", "AddressSearch/1.0"),
		SearchDebounce:       mustDuration(getEnv("SEARCH_DEBOUNCE", "300ms")),
		SearchResultKind:     getEnv("SEARCH_RESULT_KIND", "address"),
		SearchCountry:        strings.ToLower(getEnv("SEARCH_COUNTRY", "us")),
		SearchLimit:          mustInt(getEnv("SEARCH_LIMIT", "5")),
		SearchLanguage:       getEnv("SEARCH_LANGUAGE", ""),
		SuggestTimeout:       mustDuration(getEnv("SUGGEST_TIMEOUT", "5s")),
		GeocodeTimeout:       mustDuration(getEnv("GEOCODE_TIMEOUT", "10s")),
		GeocodeFailurePolicy: strings.ToLower(getEnv("GEOCODE_FAILURE_POLICY", FailurePolicySilent)),
		SessionIdleTTL:       mustDuration(getEnv("SESSION_IDLE_TTL", "30m")),
		SessionMax:           mustInt(getEnv("SESSION_MAX", "10000")),
		RedisURL:             getEnv("REDIS_URL", ""),
		SelectionTTL:         mustDuration(getEnv("SELECTION_TTL", "24h")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.PlacesProvider {
	case ProviderGoogle:
		if c.GoogleMapsAPIKey == "" {
			return fmt.Errorf("GOOGLE_MAPS_API_KEY is required when PLACES_PROVIDER is google")
		}
	case ProviderNominatim:
	default:
		return fmt.Errorf("PLACES_PROVIDER must be %q or %q, got %q", ProviderGoogle, ProviderNominatim, c.PlacesProvider)
	}
	switch c.GeocodeFailurePolicy {
	case FailurePolicySilent, FailurePolicySurface:
	default:
		return fmt.Errorf("GEOCODE_FAILURE_POLICY must be %q or %q, got %q", FailurePolicySilent, FailurePolicySurface, c.GeocodeFailurePolicy)
	}
	if c.SearchDebounce <= 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must be a positive duration")
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("SEARCH_LIMIT must be at least 1")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be a positive duration")
	}
	if c.SessionMax < 1 {
		return fmt.Errorf("SESSION_MAX must be at least 1")
	}
	if c.UpstreamRatePerSec <= 0 || c.UpstreamBurst < 1 {
		return fmt.Errorf("UPSTREAM_RATE_PER_SEC and UPSTREAM_BURST must be positive")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat64(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
