package maps

import (
	"context"
	"errors"
	"strings"

	"address_search_backend/internal/geocode"
	"address_search_backend/internal/places"
	"address_search_backend/internal/upstream"
	"address_search_backend/platform/apperr"
	"address_search_backend/platform/logger"
	"address_search_backend/platform/validator"

	"golang.org/x/text/unicode/norm"
)

// Service answers one-off lookups that do not need a session.
type Service struct {
	provider places.Provider
	resolver geocode.Resolver
	opts     places.RequestOptions
	log      *logger.Logger
}

// NewService validates opts once so that a bad configuration fails at start-up.
func NewService(provider places.Provider, resolver geocode.Resolver, opts places.RequestOptions, val *validator.Validator, log *logger.Logger) (*Service, error) {
	if err := opts.Validate(val); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid suggestion request options", err)
	}
	return &Service{provider: provider, resolver: resolver, opts: opts, log: log}, nil
}

func (s *Service) SearchAddress(ctx context.Context, query string) ([]places.Suggestion, error) {
	query = norm.NFC.String(strings.TrimSpace(query))

	results, err := s.provider.Fetch(ctx, query, s.opts)
	if err != nil {
		s.log.WithContext(ctx).Warn("address lookup failed", "error", err)
		return nil, toAppError("address lookup service unavailable", err)
	}
	return results, nil
}

func (s *Service) Geocode(ctx context.Context, address string) (GeocodeResult, error) {
	address = strings.TrimSpace(address)

	records, err := s.resolver.Geocode(ctx, address)
	if err != nil {
		s.log.WithContext(ctx).Warn("geocode failed", "address", address, "error", err)
		return GeocodeResult{}, toAppError("geocoding service unavailable", err)
	}
	if len(records) == 0 {
		return GeocodeResult{}, apperr.NotFound("address could not be geocoded")
	}

	ll, err := s.resolver.ToLatLng(ctx, records[0])
	if err != nil {
		if errors.Is(err, geocode.ErrNoLocation) {
			return GeocodeResult{}, apperr.NotFound("address could not be geocoded")
		}
		return GeocodeResult{}, apperr.Wrap(apperr.KindInternal, "geocode record unusable", err)
	}
	return geocodeResult(address, records[0], ll), nil
}

// toAppError maps upstream failures onto HTTP-facing kinds.
func toAppError(message string, err error) error {
	switch upstream.TypeOf(err) {
	case upstream.ErrorTypeTimeout:
		return apperr.Timeout(message, err)
	case upstream.ErrorTypeInvalidRequest:
		return apperr.Wrap(apperr.KindBadRequest, "upstream rejected the request", err)
	case upstream.ErrorTypeNotFound:
		return apperr.Wrap(apperr.KindNotFound, "no match", err)
	}
	if errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.KindBadRequest, "request cancelled", err)
	}
	return apperr.Upstream(message, err)
}
