package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/i474232898/bandweather/internal/bandsync"
	"github.com/i474232898/bandweather/internal/observe"
	"github.com/i474232898/bandweather/internal/scheduler"
	"github.com/i474232898/bandweather/internal/settings"
	"github.com/i474232898/bandweather/internal/tile"
	"github.com/i474232898/bandweather/internal/wearable"
)

// Background task names.
const (
	TimerTaskName  = "BandWeatherTimerTask"
	SystemTaskName = "BandWeatherSystemTask"
)

// Registry is the part of scheduler.Registry the controller uses.
type Registry interface {
	Register(name string, trigger scheduler.Trigger, task scheduler.Task) error
	Unregister(name string) bool
	Registered(name string) bool
}

// Notifier receives a snapshot after every terminal status.
type Notifier func(Snapshot)

// Config holds the trigger settings used when the tile is added.
type Config struct {
	TimerInterval    time.Duration
	TimeZoneInterval time.Duration
	// Zone overrides the time zone source of the system trigger.
	Zone func() string
}

// Deps are the collaborators of a Controller. Notifier is optional.
type Deps struct {
	Orchestrator *bandsync.Orchestrator
	Session      *wearable.Session
	Settings     settings.Store
	Registry     Registry
	Tile         tile.Tile
	Notifier     Notifier
	Logger       *observe.Logger
}

// Controller runs the user-facing operations: sync now, add tile and remove
// tile. Only one of them runs at a time.
type Controller struct {
	orch     *bandsync.Orchestrator
	session  *wearable.Session
	store    settings.Store
	registry Registry
	tile     tile.Tile
	notify   Notifier
	cfg      Config
	now      func() time.Time
	l        *observe.Logger

	busy       atomic.Bool
	background atomic.Int32
	progress   atomic.Int32

	mu         sync.RWMutex
	paired     bool
	tileAdded  bool
	lastStatus *bandsync.Status
}

func New(cfg Config, d Deps) *Controller {
	if cfg.TimerInterval <= 0 {
		cfg.TimerInterval = 32 * time.Minute
	}
	c := &Controller{
		orch:     d.Orchestrator,
		session:  d.Session,
		store:    d.Settings,
		registry: d.Registry,
		tile:     d.Tile,
		notify:   d.Notifier,
		cfg:      cfg,
		now:      time.Now,
		l:        d.Logger,
	}
	if c.l == nil {
		c.l = observe.NewNop()
	}
	return c
}

// RunSync performs an interactive sync.
func (c *Controller) RunSync(ctx context.Context) bandsync.Status {
	if !c.busy.CompareAndSwap(false, true) {
		return bandsync.BusyStatus(c.now())
	}

	c.progress.Store(0)
	st := c.orch.Run(ctx, bandsync.Interactive, c.reportProgress)
	c.busy.Store(false)

	c.finish(st, true)
	return st
}

// RunBackground is the entry point of both background triggers. It waits for
// a running foreground operation to release the tile.
func (c *Controller) RunBackground(ctx context.Context) {
	c.background.Add(1)
	c.progress.Store(0)
	st := c.orch.Run(ctx, bandsync.Background, c.reportProgress)
	c.background.Add(-1)
	c.finish(st, true)
}

// AddTile registers the background triggers and installs the tile on the
// band unless it is already there.
func (c *Controller) AddTile(ctx context.Context) bandsync.Status {
	return c.exclusive(ctx, func(ctx context.Context) bandsync.Status {
		if err := c.registerTriggers(); err != nil {
			c.l.Warning("could not register background triggers", map[string]any{"error": err.Error()})
		}

		client, st, ok := c.open(ctx)
		if !ok {
			return st
		}
		defer c.session.Close(client)

		installed, err := wearable.HasTile(ctx, client, c.tile.ID)
		if err != nil {
			return c.outcome(ctx, err, "")
		}
		if installed {
			c.setTileAdded(true)
			return c.outcome(ctx, nil, "The weather tile is already on the band.")
		}

		if err := wearable.AddTile(ctx, client, c.tile); err != nil {
			return c.outcome(ctx, err, "")
		}
		c.setTileAdded(true)
		return c.outcome(ctx, nil, "The weather tile was added to the band.")
	})
}

// RemoveTile unregisters the background triggers and removes the tile.
func (c *Controller) RemoveTile(ctx context.Context) bandsync.Status {
	return c.exclusive(ctx, func(ctx context.Context) bandsync.Status {
		c.unregisterTriggers()

		client, st, ok := c.open(ctx)
		if !ok {
			return st
		}
		defer c.session.Close(client)

		if err := wearable.RemoveTile(ctx, client, c.tile.ID); err != nil {
			return c.outcome(ctx, err, "")
		}
		c.setTileAdded(false)
		return c.outcome(ctx, nil, "The weather tile was removed from the band.")
	})
}

// Refresh reads the pairing and tile state from the band without changing
// it. When the tile is installed the background triggers are registered.
func (c *Controller) Refresh(ctx context.Context) bandsync.Status {
	return c.exclusive(ctx, func(ctx context.Context) bandsync.Status {
		client, st, ok := c.open(ctx)
		if !ok {
			return st
		}
		defer c.session.Close(client)

		installed, err := wearable.HasTile(ctx, client, c.tile.ID)
		if err != nil {
			return c.outcome(ctx, err, "")
		}
		c.setTileAdded(installed)
		if !installed {
			return c.outcome(ctx, wearable.ErrTileMissing, "")
		}

		if err := c.registerTriggers(); err != nil {
			return c.outcome(ctx, err, "")
		}
		return c.outcome(ctx, nil, "The weather tile is on the band.")
	})
}

// exclusive runs op while holding both the controller and the tile guard.
func (c *Controller) exclusive(ctx context.Context, op func(ctx context.Context) bandsync.Status) bandsync.Status {
	if !c.busy.CompareAndSwap(false, true) {
		return bandsync.BusyStatus(c.now())
	}

	guard := c.orch.Guard()
	if !guard.TryAcquire() {
		c.busy.Store(false)
		return bandsync.BusyStatus(c.now())
	}

	st := func() (st bandsync.Status) {
		defer guard.Release()
		defer func() {
			if r := recover(); r != nil {
				st = c.outcome(ctx, fmt.Errorf("unexpected failure: %v", r), "")
			}
		}()
		return op(ctx)
	}()
	c.busy.Store(false)

	c.finish(st, false)
	return st
}

// open discovers the connected band and connects with a single attempt.
func (c *Controller) open(ctx context.Context) (wearable.Client, bandsync.Status, bool) {
	device, err := c.session.Discover(ctx, wearable.ScopeConnected)
	if err != nil {
		return nil, c.outcome(ctx, err, ""), false
	}
	c.setPaired(true)

	client, err := c.session.Connect(ctx, device, wearable.SingleAttempt)
	if err != nil {
		return nil, c.outcome(ctx, err, ""), false
	}
	return client, bandsync.Status{}, true
}

func (c *Controller) outcome(ctx context.Context, err error, success string) bandsync.Status {
	at := c.now()
	switch {
	case err == nil:
		return bandsync.Status{Kind: bandsync.KindSucceeded, Message: success, At: at}
	case ctx.Err() != nil:
		return bandsync.Status{Kind: bandsync.KindCancelled, Message: "The operation was cancelled.", At: at, Err: bandsync.ErrCancelled}
	case errors.Is(err, wearable.ErrNotPaired):
		return bandsync.Status{Kind: bandsync.KindNotPaired, Message: "No paired band was found.", At: at, Err: err}
	case errors.Is(err, wearable.ErrTileMissing):
		return bandsync.Status{Kind: bandsync.KindTileMissing, Message: "The weather tile is not on the band.", At: at, Err: err}
	default:
		return bandsync.FailedStatus(at, err)
	}
}

// finish updates the flags from st and notifies. A successful sync proves
// both the pairing and the tile.
func (c *Controller) finish(st bandsync.Status, synced bool) {
	if st.Busy() {
		return
	}

	c.mu.Lock()
	switch st.Kind {
	case bandsync.KindSucceeded:
		if synced {
			c.paired, c.tileAdded = true, true
		}
	case bandsync.KindNotPaired:
		c.paired, c.tileAdded = false, false
	case bandsync.KindTileMissing:
		c.paired, c.tileAdded = true, false
	}
	c.lastStatus = &st
	c.mu.Unlock()

	if c.notify != nil {
		c.notify(c.Snapshot(context.Background()))
	}
}

func (c *Controller) setPaired(v bool) {
	c.mu.Lock()
	c.paired = v
	c.mu.Unlock()
}

func (c *Controller) setTileAdded(v bool) {
	c.mu.Lock()
	c.tileAdded = v
	c.mu.Unlock()
}

func (c *Controller) reportProgress(p int) {
	c.progress.Store(int32(p))
}

func (c *Controller) registerTriggers() error {
	if c.registry == nil {
		return nil
	}

	var errs []error
	if !c.registry.Registered(TimerTaskName) {
		errs = append(errs, c.registry.Register(TimerTaskName,
			scheduler.TimerTrigger{Interval: c.cfg.TimerInterval}, c.RunBackground))
	}
	if !c.registry.Registered(SystemTaskName) {
		errs = append(errs, c.registry.Register(SystemTaskName,
			scheduler.TimeZoneTrigger{PollInterval: c.cfg.TimeZoneInterval, Zone: c.cfg.Zone}, c.RunBackground))
	}
	return errors.Join(errs...)
}

func (c *Controller) unregisterTriggers() {
	if c.registry == nil {
		return
	}
	c.registry.Unregister(TimerTaskName)
	c.registry.Unregister(SystemTaskName)
}

// SetUseAlternateSource persists the alternate forecast endpoint choice.
func (c *Controller) SetUseAlternateSource(ctx context.Context, enabled bool) error {
	return settings.SetUseAlternateSource(ctx, c.store, enabled)
}

func (c *Controller) UseAlternateSource(ctx context.Context) (bool, error) {
	return settings.UseAlternateSource(ctx, c.store)
}
