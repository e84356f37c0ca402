package session

import (
	"time"

	"address_search_backend/internal/places"
	"address_search_backend/platform/config"
)

// FailurePolicy decides what happens to the presentation surface when a
// selection cannot be geocoded. The host callback is never invoked either way.
type FailurePolicy int

const (
	// FailurePolicySilent only logs the failure.
	FailurePolicySilent FailurePolicy = iota
	// FailurePolicySurface also records it in the snapshot and notifies a
	// listener implementing FailureListener.
	FailurePolicySurface
)

// DefaultDebounce is the quiescence window before a suggestion fetch.
const DefaultDebounce = 300 * time.Millisecond

type Options struct {
	// DefaultQuery pre-populates the query. It is not fetched or resolved.
	DefaultQuery string
	Debounce     time.Duration
	// SuggestTimeout and ResolveTimeout bound each upstream call; zero means
	// no bound.
	SuggestTimeout time.Duration
	ResolveTimeout time.Duration
	Request        places.RequestOptions
	FailurePolicy  FailurePolicy
	Clock          Clock
}

// DefaultOptions returns the defaults used when fields are left zero.
func DefaultOptions() Options {
	return Options{
		Debounce:       DefaultDebounce,
		SuggestTimeout: 5 * time.Second,
		ResolveTimeout: 10 * time.Second,
		Request:        places.DefaultRequestOptions(),
		FailurePolicy:  FailurePolicySilent,
		Clock:          RealClock{},
	}
}

// OptionsFromConfig maps the search settings of cfg onto Options.
func OptionsFromConfig(cfg config.SearchConfig) Options {
	opts := DefaultOptions()
	opts.Debounce = cfg.GetSearchDebounce()
	opts.SuggestTimeout = cfg.GetSuggestTimeout()
	opts.ResolveTimeout = cfg.GetGeocodeTimeout()
	opts.Request = places.RequestOptions{
		ResultKind: cfg.GetSearchResultKind(),
		Country:    cfg.GetSearchCountry(),
		Limit:      cfg.GetSearchLimit(),
		Language:   cfg.GetSearchLanguage(),
	}
	if cfg.GetGeocodeFailurePolicy() == config.FailurePolicySurface {
		opts.FailurePolicy = FailurePolicySurface
	}
	return opts
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Debounce < 0 {
		o.Debounce = 0
	} else if o.Debounce == 0 {
		o.Debounce = def.Debounce
	}
	if o.Request.ResultKind == "" {
		o.Request.ResultKind = def.Request.ResultKind
	}
	if o.Request.Country == "" {
		o.Request.Country = def.Request.Country
	}
	if o.Clock == nil {
		o.Clock = def.Clock
	}
	return o
}
