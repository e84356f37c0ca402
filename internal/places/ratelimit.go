package places

import (
	"context"

	"golang.org/x/time/rate"
)

type rateLimitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// RateLimited wraps next so calls wait for a token from limiter. A cancelled
// ctx aborts the wait with the context error.
func RateLimited(next Provider, limiter *rate.Limiter) Provider {
	if limiter == nil {
		return next
	}
	return &rateLimitedProvider{next: next, limiter: limiter}
}

func (p *rateLimitedProvider) Fetch(ctx context.Context, partial string, opts RequestOptions) ([]Suggestion, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.next.Fetch(ctx, partial, opts)
}
