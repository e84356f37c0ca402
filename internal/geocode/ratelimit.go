package geocode

import (
	"context"

	"golang.org/x/time/rate"
)

type rateLimitedResolver struct {
	next    Resolver
	limiter *rate.Limiter
}

// RateLimited wraps next so each Geocode call waits for a token. ToLatLng is
// local and is not limited.
func RateLimited(next Resolver, limiter *rate.Limiter) Resolver {
	if limiter == nil {
		return next
	}
	return &rateLimitedResolver{next: next, limiter: limiter}
}

func (r *rateLimitedResolver) Geocode(ctx context.Context, address string) ([]Record, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Geocode(ctx, address)
}

func (r *rateLimitedResolver) ToLatLng(ctx context.Context, record Record) (LatLng, error) {
	return r.next.ToLatLng(ctx, record)
}
