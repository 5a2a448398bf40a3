// Package emulator is an in-memory band used by the daemon when no hardware
// bridge is configured, and by tests.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/bandweather/internal/observe"
	"github.com/i474232898/bandweather/internal/tile"
	"github.com/i474232898/bandweather/internal/wearable"
)

// Operation names passed to hooks and FailOn.
const (
	OpDevices     = "devices"
	OpConnect     = "connect"
	OpTiles       = "tiles"
	OpAddTile     = "add-tile"
	OpRemoveTile  = "remove-tile"
	OpRemovePages = "remove-pages"
	OpSetPages    = "set-pages"
)

// MaxTiles is the number of tiles one app may install on the band.
const MaxTiles = 1

var errClosed = errors.New("client closed")

type installed struct {
	def   tile.Tile
	pages []tile.PageData
}

// Band emulates one band and its tile storage.
type Band struct {
	mu sync.Mutex

	device    wearable.Device
	paired    bool
	connected bool

	tiles map[uuid.UUID]*installed

	connectFailures int
	connectErr      error
	failures        map[string]error

	connects    int
	openClients int
	hook        func(op string)

	l *observe.Logger
}

type Option func(*Band)

func WithPaired(paired bool) Option {
	return func(b *Band) { b.paired = paired }
}

func WithConnected(connected bool) Option {
	return func(b *Band) { b.connected = connected }
}

// WithHook calls fn before every operation. fn runs without the band lock.
func WithHook(fn func(op string)) Option {
	return func(b *Band) { b.hook = fn }
}

func WithLogger(l *observe.Logger) Option {
	return func(b *Band) { b.l = l }
}

// New returns a paired, connected band with no tiles.
func New(name string, opts ...Option) *Band {
	b := &Band{
		device:    wearable.Device{ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(), Name: name},
		paired:    true,
		connected: true,
		tiles:     make(map[uuid.UUID]*installed),
		failures:  make(map[string]error),
		l:         observe.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetPaired changes the pairing state. Unpairing also disconnects.
func (b *Band) SetPaired(paired bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paired = paired
	if !paired {
		b.connected = false
	}
}

func (b *Band) SetConnected(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = connected
}

// FailConnects makes the next n Connect calls fail with err.
func (b *Band) FailConnects(n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connectFailures = n
	b.connectErr = err
}

// FailOn makes every call of op fail with err until cleared with a nil err.
func (b *Band) FailOn(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, op)
		return
	}
	b.failures[op] = err
}

// InstallTile puts t on the band without going through a client.
func (b *Band) InstallTile(t tile.Tile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tiles[t.ID] = &installed{def: t}
}

func (b *Band) HasTile(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tiles[id]
	return ok
}

// Pages returns a copy of the pages of tile id in display order.
func (b *Band) Pages(id uuid.UUID) []tile.PageData {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tiles[id]
	if !ok {
		return nil
	}
	return slices.Clone(t.pages)
}

// Connects is the number of Connect calls, failed ones included.
func (b *Band) Connects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connects
}

// OpenClients is the number of connections not yet closed.
func (b *Band) OpenClients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openClients
}

func (b *Band) Devices(ctx context.Context, scope wearable.Scope) ([]wearable.Device, error) {
	if err := b.enter(ctx, OpDevices); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.paired || (scope == wearable.ScopeConnected && !b.connected) {
		return nil, nil
	}
	return []wearable.Device{b.device}, nil
}

func (b *Band) Connect(ctx context.Context, d wearable.Device) (wearable.Client, error) {
	if err := b.enter(ctx, OpConnect); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.connects++
	if b.connectFailures > 0 {
		b.connectFailures--
		return nil, b.connectErr
	}
	if !b.paired || d.ID != b.device.ID {
		return nil, fmt.Errorf("device %q not paired", d.Name)
	}

	b.connected = true
	b.openClients++
	return &client{band: b}, nil
}

// enter runs the hook and reports cancellation or an injected failure.
func (b *Band) enter(ctx context.Context, op string) error {
	if b.hook != nil {
		b.hook(op)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures[op]
}

type client struct {
	band   *Band
	mu     sync.Mutex
	closed bool
}

func (c *client) enter(ctx context.Context, op string) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return errClosed
	}
	return c.band.enter(ctx, op)
}

func (c *client) Tiles(ctx context.Context) ([]uuid.UUID, error) {
	if err := c.enter(ctx, OpTiles); err != nil {
		return nil, err
	}

	b := c.band
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(b.tiles))
	for id := range b.tiles {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(x, y uuid.UUID) int { return slices.Compare(x[:], y[:]) })
	return ids, nil
}

func (c *client) AddTile(ctx context.Context, t tile.Tile) error {
	if err := c.enter(ctx, OpAddTile); err != nil {
		return err
	}
	if t.Name == "" {
		return errors.New("tile name is required")
	}
	if len(t.Layouts) == 0 || len(t.Layouts) > 5 {
		return fmt.Errorf("tile needs between 1 and 5 layouts, got %d", len(t.Layouts))
	}

	b := c.band
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tiles[t.ID]; ok {
		return fmt.Errorf("tile %s already installed", t.ID)
	}
	if len(b.tiles) >= MaxTiles {
		return errors.New("no tile capacity left")
	}
	b.tiles[t.ID] = &installed{def: t}

	b.l.Info("band tile added", map[string]any{"tile": t.ID.String(), "name": t.Name})
	return nil
}

func (c *client) RemoveTile(ctx context.Context, id uuid.UUID) error {
	if err := c.enter(ctx, OpRemoveTile); err != nil {
		return err
	}

	b := c.band
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.tiles, id)
	b.l.Info("band tile removed", map[string]any{"tile": id.String()})
	return nil
}

func (c *client) RemovePages(ctx context.Context, id uuid.UUID) error {
	if err := c.enter(ctx, OpRemovePages); err != nil {
		return err
	}

	b := c.band
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tiles[id]
	if !ok {
		return fmt.Errorf("tile %s not installed", id)
	}
	t.pages = nil
	return nil
}

func (c *client) SetPages(ctx context.Context, id uuid.UUID, pages []tile.PageData) error {
	if err := c.enter(ctx, OpSetPages); err != nil {
		return err
	}

	b := c.band
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tiles[id]
	if !ok {
		return fmt.Errorf("tile %s not installed", id)
	}
	for _, p := range pages {
		if err := t.def.Check(p); err != nil {
			return err
		}
	}
	t.pages = slices.Clone(pages)

	b.l.Info("band pages set", map[string]any{"tile": id.String(), "pages": len(pages)})
	return nil
}

func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	c.band.mu.Lock()
	c.band.openClients--
	c.band.mu.Unlock()
	return nil
}

var (
	_ wearable.Manager = (*Band)(nil)
	_ wearable.Client  = (*client)(nil)
)
