package places

import (
	"context"

	"address_search_backend/internal/nominatim"
	"address_search_backend/platform/sanitize"
)

// NominatimProvider serves suggestions from an OSM Nominatim search endpoint.
// Nominatim has no autocomplete mode, so each call is a full search.
type NominatimProvider struct {
	client *nominatim.Client
}

func NewNominatimProvider(client *nominatim.Client) *NominatimProvider {
	return &NominatimProvider{client: client}
}

// maxNominatimLimit is the largest limit the search endpoint accepts.
const maxNominatimLimit = 40

func (p *NominatimProvider) Fetch(ctx context.Context, partial string, opts RequestOptions) ([]Suggestion, error) {
	found, err := p.client.Search(ctx, nominatim.SearchParams{
		Query:        partial,
		CountryCodes: opts.Country,
		Limit:        searchLimit(opts),
		Language:     opts.Language,
	})
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(found))
	for _, place := range found {
		description := sanitize.Label(place.DisplayName)
		if opts.ResultKind == "address" {
			label, ok := nominatim.StreetLabel(place, opts.Country)
			if !ok {
				continue
			}
			description = sanitize.Label(label)
		}
		if description == "" {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Description: description,
			PlaceID:     place.PlaceID.String(),
		})
		if opts.Limit > 0 && len(suggestions) == opts.Limit {
			break
		}
	}

	return suggestions, nil
}

// searchLimit over-fetches for address results, which are filtered locally
// before Limit is applied.
func searchLimit(opts RequestOptions) int {
	if opts.Limit <= 0 || opts.ResultKind != "address" {
		return opts.Limit
	}
	return min(opts.Limit*2, maxNominatimLimit)
}
