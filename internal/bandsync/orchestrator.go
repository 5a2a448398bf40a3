package bandsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/bandweather/internal/forecast"
	"github.com/i474232898/bandweather/internal/location"
	"github.com/i474232898/bandweather/internal/observe"
	"github.com/i474232898/bandweather/internal/settings"
	"github.com/i474232898/bandweather/internal/tile"
	"github.com/i474232898/bandweather/internal/wearable"
)

// Mode selects how a sync finds and connects to the band.
type Mode int

const (
	// Background syncs are unattended: any known pairing, retried connect,
	// and they wait for a concurrent tile write to finish.
	Background Mode = iota
	// Interactive syncs are started by a person: connected bands only, a
	// single connect attempt, and they give up when a write is in flight.
	Interactive
)

func (m Mode) String() string {
	if m == Interactive {
		return "interactive"
	}
	return "background"
}

func (m Mode) label() string {
	if m == Interactive {
		return "sync"
	}
	return "background sync"
}

// PostalCoder resolves a coordinate to a postal code.
type PostalCoder interface {
	PostalCode(ctx context.Context, c location.Coordinate) (string, error)
}

// Deps are the collaborators of an Orchestrator. Postal is optional.
type Deps struct {
	Locator  location.Provider
	Postal   PostalCoder
	Forecast forecast.Fetcher
	Session  *wearable.Session
	Settings settings.Store
	Guard    *TileGuard
	Logger   *observe.Logger
}

// Orchestrator runs the sync workflow: locate, fetch the forecast, find the
// band, replace the tile pages and persist the outcome.
type Orchestrator struct {
	locator  location.Provider
	postal   PostalCoder
	forecast forecast.Fetcher
	session  *wearable.Session
	store    settings.Store
	guard    *TileGuard
	retry    wearable.RetryPolicy
	now      func() time.Time
	l        *observe.Logger
}

type Option func(*Orchestrator)

// WithRetry sets the connect policy of background syncs.
func WithRetry(p wearable.RetryPolicy) Option {
	return func(o *Orchestrator) { o.retry = p }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(d Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		locator:  d.Locator,
		postal:   d.Postal,
		forecast: d.Forecast,
		session:  d.Session,
		store:    d.Settings,
		guard:    d.Guard,
		retry:    wearable.BackgroundRetry,
		now:      time.Now,
		l:        d.Logger,
	}
	if o.guard == nil {
		o.guard = NewTileGuard()
	}
	if o.l == nil {
		o.l = observe.NewNop()
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Guard returns the tile write guard shared with add and remove.
func (o *Orchestrator) Guard() *TileGuard {
	return o.guard
}

// Run performs one sync and returns its terminal status. The status is
// persisted on every run except one rejected as busy. Cancelling ctx stops
// the run after the current state.
func (o *Orchestrator) Run(ctx context.Context, mode Mode, progress ProgressFunc) Status {
	if mode == Interactive {
		if !o.guard.TryAcquire() {
			return BusyStatus(o.now())
		}
	} else if err := o.guard.Acquire(ctx); err != nil {
		return o.finish(ctx, mode, ErrCancelled)
	}
	defer o.guard.Release()

	err := o.safeSteps(ctx, mode, newMonotonic(progress))
	return o.finish(ctx, mode, err)
}

func (o *Orchestrator) safeSteps(ctx context.Context, mode Mode, p *monotonic) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	return o.steps(ctx, mode, p)
}

func (o *Orchestrator) steps(ctx context.Context, mode Mode, p *monotonic) error {
	done := func(s State) error {
		p.report(stateProgress[s])
		o.l.Debug("sync state completed", map[string]any{"state": s.String(), "mode": mode.String()})
		if s != StateSettingPages && ctx.Err() != nil {
			return ErrCancelled
		}
		return nil
	}

	if ctx.Err() != nil {
		return ErrCancelled
	}

	coord, err := o.locator.Locate(ctx)
	if err != nil {
		return err
	}
	if err := done(StateLocating); err != nil {
		return err
	}

	data, err := o.fetchForecast(ctx, coord)
	if err != nil {
		return err
	}
	if err := done(StateForecasting); err != nil {
		return err
	}

	scope, policy := wearable.ScopeKnown, o.retry
	if mode == Interactive {
		scope, policy = wearable.ScopeConnected, wearable.SingleAttempt
	}

	device, err := o.session.Discover(ctx, scope)
	if err != nil {
		return err
	}
	if err := done(StateDiscovering); err != nil {
		return err
	}

	client, err := o.session.Connect(ctx, device, policy)
	if err != nil {
		return err
	}
	defer o.session.Close(client)
	if err := done(StateConnecting); err != nil {
		return err
	}

	if err := wearable.RequireTile(ctx, client, tile.ID); err != nil {
		return err
	}
	if err := done(StateListingTiles); err != nil {
		return err
	}

	pages := tile.BuildPages(data, o.now())
	if err := done(StateBuildingPages); err != nil {
		return err
	}

	if err := wearable.ClearPages(ctx, client, tile.ID); err != nil {
		return err
	}
	if err := done(StateClearingPages); err != nil {
		return err
	}

	if err := wearable.SetPages(ctx, client, tile.ID, pages); err != nil {
		return err
	}
	return done(StateSettingPages)
}

func (o *Orchestrator) fetchForecast(ctx context.Context, coord location.Coordinate) (forecast.Data, error) {
	q := forecast.Query{Coordinate: &coord}

	if o.postal != nil {
		code, err := o.postal.PostalCode(ctx, coord)
		if err != nil {
			o.l.Warning("postal code lookup failed, using coordinate", map[string]any{"error": err.Error()})
		} else {
			q.PostalCode = code
		}
	}

	alternate, err := settings.UseAlternateSource(ctx, o.store)
	if err != nil {
		o.l.Warning("could not read alternate source setting", map[string]any{"error": err.Error()})
	}

	return o.forecast.Fetch(ctx, q, alternate)
}

// finish classifies err, persists the status and logs it.
func (o *Orchestrator) finish(ctx context.Context, mode Mode, err error) Status {
	at := o.now()

	var kind Kind
	switch {
	case err == nil:
		kind = KindSucceeded
	case errors.Is(err, ErrCancelled) || ctx.Err() != nil:
		kind, err = KindCancelled, ErrCancelled
	case errors.Is(err, wearable.ErrNotPaired):
		kind = KindNotPaired
	case errors.Is(err, wearable.ErrTileMissing):
		kind = KindTileMissing
	default:
		kind = KindFailed
	}

	st := syncStatus(kind, mode, at, err)

	if perr := settings.SetLastSync(context.WithoutCancel(ctx), o.store, st.Message); perr != nil {
		o.l.Error(fmt.Errorf("persist sync status: %w", perr))
	}

	fields := map[string]any{"mode": mode.String(), "kind": string(kind)}
	switch kind {
	case KindSucceeded:
		o.l.Info("sync succeeded", fields)
	case KindFailed:
		o.l.Error(fmt.Errorf("sync failed: %w", err), fields)
	default:
		o.l.Warning("sync did not complete", fields)
	}

	return st
}
