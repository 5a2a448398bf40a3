package wearable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/bandweather/internal/observe"
	"github.com/i474232898/bandweather/internal/tile"
)

// RetryPolicy bounds the connect step. Attempts below one count as one.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

var (
	// BackgroundRetry rides out transient radio states in unattended syncs.
	BackgroundRetry = RetryPolicy{Attempts: 5, Delay: 2000 * time.Millisecond}
	// SingleAttempt is used when a person can retry by hand.
	SingleAttempt = RetryPolicy{Attempts: 1}
)

// Session runs the device steps of a sync against a Manager.
type Session struct {
	manager Manager
	l       *observe.Logger
}

func NewSession(m Manager, l *observe.Logger) *Session {
	return &Session{manager: m, l: l}
}

// Discover returns the first band in scope, or ErrNotPaired.
func (s *Session) Discover(ctx context.Context, scope Scope) (Device, error) {
	devices, err := s.manager.Devices(ctx, scope)
	if err != nil {
		return Device{}, deviceErr("discover", err)
	}
	if len(devices) == 0 {
		return Device{}, ErrNotPaired
	}

	s.l.Debug("band discovered", map[string]any{
		"device": devices[0].Name,
		"scope":  scope.String(),
		"count":  len(devices),
	})
	return devices[0], nil
}

// Connect opens a connection to d, retrying with a fixed delay.
func (s *Session) Connect(ctx context.Context, d Device, policy RetryPolicy) (Client, error) {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, err := s.manager.Connect(ctx, d)
		if err == nil {
			return c, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		lastErr = err
		s.l.Warning("band connect failed", map[string]any{
			"device":   d.Name,
			"attempt":  attempt,
			"attempts": attempts,
			"error":    err.Error(),
		})
		if attempt >= attempts {
			break
		}

		timer := time.NewTimer(policy.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, deviceErr(fmt.Sprintf("connect %s after %d attempt(s)", d.Name, attempts), lastErr)
}

// HasTile reports whether tile id is installed.
func HasTile(ctx context.Context, c Client, id uuid.UUID) (bool, error) {
	tiles, err := c.Tiles(ctx)
	if err != nil {
		return false, deviceErr("list tiles", err)
	}
	for _, t := range tiles {
		if t == id {
			return true, nil
		}
	}
	return false, nil
}

// RequireTile returns ErrTileMissing unless tile id is installed.
func RequireTile(ctx context.Context, c Client, id uuid.UUID) error {
	ok, err := HasTile(ctx, c, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTileMissing
	}
	return nil
}

// ClearPages removes every page of tile id.
func ClearPages(ctx context.Context, c Client, id uuid.UUID) error {
	if err := c.RemovePages(ctx, id); err != nil {
		return deviceErr("remove pages", err)
	}
	return nil
}

// SetPages writes pages to tile id in order.
func SetPages(ctx context.Context, c Client, id uuid.UUID, pages []tile.PageData) error {
	if err := c.SetPages(ctx, id, pages); err != nil {
		return deviceErr("set pages", err)
	}
	return nil
}

// ReplacePages removes the existing pages of tile id and then sets pages.
func ReplacePages(ctx context.Context, c Client, id uuid.UUID, pages []tile.PageData) error {
	if err := ClearPages(ctx, c, id); err != nil {
		return err
	}
	return SetPages(ctx, c, id, pages)
}

// AddTile installs t. The missing manifest condition counts as installed.
func AddTile(ctx context.Context, c Client, t tile.Tile) error {
	err := c.AddTile(ctx, t)
	if err == nil || IsMissingManifest(err) {
		return nil
	}
	return deviceErr("add tile", err)
}

// RemoveTile removes tile id. Removing a tile that is not installed is a no-op.
func RemoveTile(ctx context.Context, c Client, id uuid.UUID) error {
	ok, err := HasTile(ctx, c, id)
	if err != nil || !ok {
		return err
	}
	if err := c.RemoveTile(ctx, id); err != nil {
		return deviceErr("remove tile", err)
	}
	return nil
}

// Close closes c and logs a failure; the close error never changes the
// outcome of the operation that used c.
func (s *Session) Close(c Client) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		s.l.Warning("band close failed", map[string]any{"error": err.Error()})
	}
}
