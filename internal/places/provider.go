// Package places fetches ranked address suggestions for partial input from an
// external places service.
package places

import (
	"context"
	"strings"

	"address_search_backend/platform/validator"
)

// Suggestion is one candidate returned for a partial query. Description is
// what the user sees and what is later sent to the geocoder.
type Suggestion struct {
	Description string `json:"description"`
	PlaceID     string `json:"placeId,omitempty"`
}

// RequestOptions restricts what a provider returns.
type RequestOptions struct {
	ResultKind string `json:"resultKind" validate:"required,resultkind"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
	Limit      int    `json:"limit" validate:"min=0,max=20"`
	Language   string `json:"language,omitempty" validate:"omitempty,bcp47_language_tag"`
}

// DefaultRequestOptions restricts results to US street addresses.
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{ResultKind: "address", Country: "us", Limit: 5}
}

// Validate checks the options; the country code is compared case-insensitively.
func (o RequestOptions) Validate(val *validator.Validator) error {
	normalized := o
	normalized.Country = strings.ToUpper(o.Country)
	return val.Struct(normalized)
}

// Provider returns suggestions for partial text, in the provider's ranking
// order. Implementations must honour ctx cancellation.
type Provider interface {
	Fetch(ctx context.Context, partial string, opts RequestOptions) ([]Suggestion, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, partial string, opts RequestOptions) ([]Suggestion, error)

func (f ProviderFunc) Fetch(ctx context.Context, partial string, opts RequestOptions) ([]Suggestion, error) {
	return f(ctx, partial, opts)
}
