package controller

import (
	"context"

	"github.com/i474232898/bandweather/internal/bandsync"
	"github.com/i474232898/bandweather/internal/settings"
)

// Flags is the state shown to the user.
type Flags struct {
	IsSyncing      bool `json:"is_syncing"`
	IsPaired       bool `json:"is_paired"`
	IsTileAdded    bool `json:"is_tile_added"`
	BackgroundSync bool `json:"background_sync"`
}

func (f Flags) CanSync() bool {
	return f.IsPaired && f.IsTileAdded && !f.IsSyncing
}

func (f Flags) CanAddTile() bool {
	return f.IsPaired && !f.IsTileAdded && !f.IsSyncing
}

func (f Flags) CanRemoveTile() bool {
	return f.IsPaired && f.IsTileAdded && !f.IsSyncing
}

// Snapshot is Flags plus derived values and the persisted settings.
type Snapshot struct {
	Flags
	CanSync            bool             `json:"can_sync"`
	CanAddTile         bool             `json:"can_add_tile"`
	CanRemoveTile      bool             `json:"can_remove_tile"`
	Progress           int              `json:"progress"`
	LastSync           string           `json:"last_sync"`
	UseAlternateSource bool             `json:"use_alternate_source"`
	LastStatus         *bandsync.Status `json:"last_status,omitempty"`
}

func (c *Controller) Flags() Flags {
	c.mu.RLock()
	defer c.mu.RUnlock()

	background := c.background.Load() > 0
	return Flags{
		IsSyncing:      c.busy.Load() || background,
		IsPaired:       c.paired,
		IsTileAdded:    c.tileAdded,
		BackgroundSync: background,
	}
}

// Snapshot reads the flags and settings. Settings read failures are logged
// and leave the zero value.
func (c *Controller) Snapshot(ctx context.Context) Snapshot {
	f := c.Flags()
	s := Snapshot{
		Flags:         f,
		CanSync:       f.CanSync(),
		CanAddTile:    f.CanAddTile(),
		CanRemoveTile: f.CanRemoveTile(),
		Progress:      int(c.progress.Load()),
	}

	c.mu.RLock()
	if c.lastStatus != nil {
		st := *c.lastStatus
		s.LastStatus = &st
	}
	c.mu.RUnlock()

	var err error
	if s.LastSync, err = settings.LastSync(ctx, c.store); err != nil {
		c.l.Warning("could not read last sync", map[string]any{"error": err.Error()})
	}
	if s.UseAlternateSource, err = settings.UseAlternateSource(ctx, c.store); err != nil {
		c.l.Warning("could not read alternate source setting", map[string]any{"error": err.Error()})
	}
	return s
}
