package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/kelvins/geocoder"
)

// ErrNoPostalCode is returned when reverse geocoding finds no postal code.
var ErrNoPostalCode = errors.New("no postal code for coordinate")

// Resolver turns a coordinate into a postal code using Google reverse geocoding.
type Resolver struct {
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewResolver configures the geocoder package with apiKey.
func NewResolver(apiKey string) *Resolver {
	geocoder.ApiKey = apiKey
	return &Resolver{reverse: geocoder.GeocodingReverse}
}

// PostalCode returns the first postal code among the reverse geocoding results.
func (r *Resolver) PostalCode(ctx context.Context, c Coordinate) (string, error) {
	type result struct {
		addresses []geocoder.Address
		err       error
	}

	// geocoder has no context support; the lookup is abandoned on cancellation.
	done := make(chan result, 1)
	go func() {
		addresses, err := r.reverse(geocoder.Location{Latitude: c.Latitude, Longitude: c.Longitude})
		done <- result{addresses, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("reverse geocoding %s: %w", c, res.err)
		}
		for _, a := range res.addresses {
			if a.PostalCode != "" {
				return a.PostalCode, nil
			}
		}
		return "", ErrNoPostalCode
	}
}
