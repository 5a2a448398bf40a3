package wearable

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/i474232898/bandweather/internal/common"
	"github.com/i474232898/bandweather/internal/tile"
)

var (
	// ErrNotPaired is returned when no band is paired (or connected, for
	// ScopeConnected lookups).
	ErrNotPaired = errors.New("band not paired")
	// ErrTileMissing is returned when the weather tile is not installed.
	ErrTileMissing = errors.New("tile not installed")
	// ErrDeviceIO wraps failures reported by the band.
	ErrDeviceIO = errors.New("band i/o failure")
)

// missingManifest is reported by the band when a tile was added but its
// resources could not be confirmed. The tile is usable.
const missingManifest = "MissingManifestResource"

// Scope selects which bands Devices returns.
type Scope int

const (
	// ScopeKnown returns every band with a known pairing.
	ScopeKnown Scope = iota
	// ScopeConnected returns only bands that are connected right now.
	ScopeConnected
)

func (s Scope) String() string {
	switch s {
	case ScopeKnown:
		return "known"
	case ScopeConnected:
		return "connected"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// Device identifies a paired band.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Manager discovers bands and opens connections to them.
type Manager interface {
	Devices(ctx context.Context, scope Scope) ([]Device, error)
	Connect(ctx context.Context, d Device) (Client, error)
}

// Client is an open connection to a band. It must be closed by the caller.
type Client interface {
	Tiles(ctx context.Context) ([]uuid.UUID, error)
	AddTile(ctx context.Context, t tile.Tile) error
	RemoveTile(ctx context.Context, id uuid.UUID) error
	RemovePages(ctx context.Context, id uuid.UUID) error
	SetPages(ctx context.Context, id uuid.UUID, pages []tile.PageData) error
	Close() error
}

// IsMissingManifest reports whether err is the band's missing manifest
// resource condition.
func IsMissingManifest(err error) bool {
	return err != nil && common.HasAny(err.Error(), missingManifest)
}

func deviceErr(op string, err error) error {
	if errors.Is(err, ErrDeviceIO) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrDeviceIO, op, err)
}
