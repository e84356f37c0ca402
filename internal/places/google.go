package places

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
	"address_search_backend/platform/sanitize"
)

const googleProviderName = "google_places"

// GoogleProvider uses the Google Places Autocomplete web service.
type GoogleProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *logger.Logger
}

// NewGoogleProvider creates a provider against baseURL, normally
// https://maps.googleapis.com/maps/api.
func NewGoogleProvider(baseURL, apiKey string, log *logger.Logger) *GoogleProvider {
	if log == nil {
		log = logger.Discard()
	}
	return &GoogleProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type googleAutocompleteResponse struct {
	Predictions []struct {
		Description string `json:"description"`
		PlaceID     string `json:"place_id"`
	} `json:"predictions"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

func (p *GoogleProvider) Fetch(ctx context.Context, partial string, opts RequestOptions) ([]Suggestion, error) {
	params := url.Values{}
	params.Set("input", partial)
	params.Set("key", p.apiKey)
	if opts.ResultKind != "" {
		params.Set("types", opts.ResultKind)
	}
	if opts.Country != "" {
		params.Set("components", "country:"+strings.ToLower(opts.Country))
	}
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}

	reqURL := p.baseURL + "/place/autocomplete/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building autocomplete request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.UpstreamError(googleProviderName, "autocomplete", err)
		return nil, upstream.Transport(googleProviderName, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		classified := upstream.ClassifyHTTPError(googleProviderName, resp.StatusCode)
		p.log.UpstreamError(googleProviderName, "autocomplete", classified)
		return nil, classified
	}

	var payload googleAutocompleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding autocomplete response: %w", err)
	}

	if classified := upstream.ClassifyGoogleStatus(googleProviderName, payload.Status, payload.ErrorMessage); classified != nil {
		p.log.UpstreamError(googleProviderName, "autocomplete", classified)
		return nil, classified
	}

	suggestions := make([]Suggestion, 0, len(payload.Predictions))
	for _, pred := range payload.Predictions {
		description := sanitize.Label(pred.Description)
		if description == "" {
			continue
		}
		suggestions = append(suggestions, Suggestion{Description: description, PlaceID: pred.PlaceID})
		if opts.Limit > 0 && len(suggestions) == opts.Limit {
			break
		}
	}

	return suggestions, nil
}
