package forecast

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Fetcher is implemented by Client and RateLimitedClient.
type Fetcher interface {
	Fetch(ctx context.Context, q Query, alternate bool) (Data, error)
}

// RateLimitedClient keeps a Fetcher within the provider's call quota.
type RateLimitedClient struct {
	fetcher Fetcher
	limiter *rate.Limiter
}

// NewRateLimitedClient allows perMinute calls a minute with the given burst.
func NewRateLimitedClient(f Fetcher, perMinute float64, burst int) *RateLimitedClient {
	return &RateLimitedClient{
		fetcher: f,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60), burst),
	}
}

func (r *RateLimitedClient) Fetch(ctx context.Context, q Query, alternate bool) (Data, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Data{}, fmt.Errorf("%w: rate limit wait canceled: %v", ErrUnavailable, err)
	}
	return r.fetcher.Fetch(ctx, q, alternate)
}

var (
	_ Fetcher = (*Client)(nil)
	_ Fetcher = (*RateLimitedClient)(nil)
)
