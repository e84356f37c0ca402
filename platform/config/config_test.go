package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	t.Setenv("PLACES_PROVIDER", ProviderNominatim)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GetSearchDebounce() != 300*time.Millisecond {
		t.Errorf("debounce = %v, want 300ms", cfg.GetSearchDebounce())
	}
	if cfg.GetSearchResultKind() != "address" {
		t.Errorf("result kind = %q, want address", cfg.GetSearchResultKind())
	}
	if cfg.GetSearchCountry() != "us" {
		t.Errorf("country = %q, want us", cfg.GetSearchCountry())
	}
	if cfg.GetGeocodeFailurePolicy() != FailurePolicySilent {
		t.Errorf("failure policy = %q, want silent", cfg.GetGeocodeFailurePolicy())
	}
	if cfg.GetSuggestTimeout() != 5*time.Second || cfg.GetGeocodeTimeout() != 10*time.Second {
		t.Errorf("timeouts = %v/%v, want 5s/10s", cfg.GetSuggestTimeout(), cfg.GetGeocodeTimeout())
	}
}

func TestLoadGoogleProvider(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "test-key")
	t.Setenv("PLACES_PROVIDER", ProviderGoogle)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GetPlacesProvider() != ProviderGoogle {
		t.Fatalf("provider = %q, want google", cfg.GetPlacesProvider())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "google without key",
			env:  map[string]string{"PLACES_PROVIDER": "google", "GOOGLE_MAPS_API_KEY": ""},
		},
		{
			name: "unknown provider",
			env:  map[string]string{"PLACES_PROVIDER": "bing"},
		},
		{
			name: "unknown failure policy",
			env:  map[string]string{"PLACES_PROVIDER": "nominatim", "GEOCODE_FAILURE_POLICY": "loud"},
		},
		{
			name: "bad debounce",
			env:  map[string]string{"PLACES_PROVIDER": "nominatim", "SEARCH_DEBOUNCE": "soon"},
		},
		{
			name: "cors wildcard with credentials",
			env:  map[string]string{"PLACES_PROVIDER": "nominatim", "CORS_ORIGINS": "*", "CORS_ALLOW_CREDENTIALS": "true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("Load() expected error")
			}
		})
	}
}
