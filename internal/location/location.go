package location

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable means no coordinate could be produced: the service is
// disabled, the lookup timed out or failed. It is never retried.
var ErrUnavailable = errors.New("location unavailable")

// Coordinate is a WGS84 position.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.2f,%.2f", c.Latitude, c.Longitude)
}

// Provider produces at most one coordinate per call.
type Provider interface {
	Locate(ctx context.Context) (Coordinate, error)
}

// StaticProvider always returns the configured coordinate.
type StaticProvider struct {
	coord   Coordinate
	enabled bool
}

// NewStaticProvider returns a provider for coord. A zero coordinate is treated
// as "not configured" and the provider reports ErrUnavailable.
func NewStaticProvider(coord Coordinate) *StaticProvider {
	return &StaticProvider{
		coord:   coord,
		enabled: coord != (Coordinate{}),
	}
}

func (p *StaticProvider) Locate(ctx context.Context) (Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return Coordinate{}, err
	}
	if !p.enabled {
		return Coordinate{}, fmt.Errorf("%w: no static coordinate configured", ErrUnavailable)
	}
	return p.coord, nil
}
