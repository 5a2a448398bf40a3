package wearable_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/bandweather/internal/observe"
	"github.com/i474232898/bandweather/internal/tile"
	"github.com/i474232898/bandweather/internal/wearable"
	"github.com/i474232898/bandweather/internal/wearable/emulator"
)

func weatherTile(t *testing.T) tile.Tile {
	t.Helper()
	icons, err := tile.LoadIcons("")
	require.NoError(t, err)
	return tile.New(icons)
}

func TestSession_Discover(t *testing.T) {
	band := emulator.New("band", emulator.WithConnected(false))
	s := wearable.NewSession(band, observe.NewNop())

	d, err := s.Discover(context.Background(), wearable.ScopeKnown)
	require.NoError(t, err)
	assert.Equal(t, "band", d.Name)

	_, err = s.Discover(context.Background(), wearable.ScopeConnected)
	assert.ErrorIs(t, err, wearable.ErrNotPaired)

	band.SetPaired(false)
	_, err = s.Discover(context.Background(), wearable.ScopeKnown)
	assert.ErrorIs(t, err, wearable.ErrNotPaired)
}

func TestSession_DiscoverFailure(t *testing.T) {
	band := emulator.New("band")
	band.FailOn(emulator.OpDevices, errors.New("radio off"))
	s := wearable.NewSession(band, observe.NewNop())

	_, err := s.Discover(context.Background(), wearable.ScopeKnown)
	assert.ErrorIs(t, err, wearable.ErrDeviceIO)
	assert.NotErrorIs(t, err, wearable.ErrNotPaired)
}

func TestSession_ConnectRetries(t *testing.T) {
	band := emulator.New("band")
	band.FailConnects(3, errors.New("radio busy"))
	s := wearable.NewSession(band, observe.NewNop())

	d, err := s.Discover(context.Background(), wearable.ScopeKnown)
	require.NoError(t, err)

	c, err := s.Connect(context.Background(), d, wearable.RetryPolicy{Attempts: 5, Delay: time.Millisecond})
	require.NoError(t, err)
	defer s.Close(c)

	assert.Equal(t, 4, band.Connects())
}

func TestSession_ConnectGivesUp(t *testing.T) {
	band := emulator.New("band")
	band.FailConnects(10, errors.New("radio busy"))
	s := wearable.NewSession(band, observe.NewNop())

	d, err := s.Discover(context.Background(), wearable.ScopeKnown)
	require.NoError(t, err)

	start := time.Now()
	_, err = s.Connect(context.Background(), d, wearable.RetryPolicy{Attempts: 5, Delay: 10 * time.Millisecond})
	require.ErrorIs(t, err, wearable.ErrDeviceIO)
	assert.Contains(t, err.Error(), "radio busy")
	assert.Equal(t, 5, band.Connects())
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond, "four delays between five attempts")
}

func TestSession_ConnectSingleAttempt(t *testing.T) {
	band := emulator.New("band")
	band.FailConnects(1, errors.New("radio busy"))
	s := wearable.NewSession(band, observe.NewNop())

	_, err := s.Connect(context.Background(), wearable.Device{}, wearable.SingleAttempt)
	require.ErrorIs(t, err, wearable.ErrDeviceIO)
	assert.Equal(t, 1, band.Connects())
}

func TestSession_ConnectCanceledDuringDelay(t *testing.T) {
	band := emulator.New("band")
	band.FailConnects(10, errors.New("radio busy"))
	s := wearable.NewSession(band, observe.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	d, err := s.Discover(context.Background(), wearable.ScopeKnown)
	require.NoError(t, err)

	_, err = s.Connect(ctx, d, wearable.RetryPolicy{Attempts: 5, Delay: time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, band.Connects())
}

func TestRequireTileAndReplacePages(t *testing.T) {
	band := emulator.New("band")
	s := wearable.NewSession(band, observe.NewNop())
	ctx := context.Background()

	d, err := s.Discover(ctx, wearable.ScopeKnown)
	require.NoError(t, err)
	c, err := s.Connect(ctx, d, wearable.SingleAttempt)
	require.NoError(t, err)
	defer s.Close(c)

	assert.ErrorIs(t, wearable.RequireTile(ctx, c, tile.ID), wearable.ErrTileMissing)

	wt := weatherTile(t)
	require.NoError(t, wearable.AddTile(ctx, c, wt))
	require.NoError(t, wearable.RequireTile(ctx, c, tile.ID))

	pages := tile.BuildPages(forecastFixture(), time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	require.NoError(t, wearable.ReplacePages(ctx, c, tile.ID, pages))
	assert.Equal(t, pages, band.Pages(tile.ID))

	require.NoError(t, wearable.RemoveTile(ctx, c, tile.ID))
	assert.False(t, band.HasTile(tile.ID))
	assert.NoError(t, wearable.RemoveTile(ctx, c, tile.ID), "removing twice is a no-op")
}

func TestAddTile_MissingManifestIsSuccess(t *testing.T) {
	band := emulator.New("band")
	band.FailOn(emulator.OpAddTile, errors.New("BandIOException: MissingManifestResource tile.png"))
	s := wearable.NewSession(band, observe.NewNop())
	ctx := context.Background()

	c, err := s.Connect(ctx, mustDiscover(t, s), wearable.SingleAttempt)
	require.NoError(t, err)
	defer s.Close(c)

	assert.NoError(t, wearable.AddTile(ctx, c, weatherTile(t)))

	band.FailOn(emulator.OpAddTile, errors.New("out of storage"))
	err = wearable.AddTile(ctx, c, weatherTile(t))
	assert.ErrorIs(t, err, wearable.ErrDeviceIO)
}

func TestIsMissingManifest(t *testing.T) {
	assert.False(t, wearable.IsMissingManifest(nil))
	assert.False(t, wearable.IsMissingManifest(errors.New("timeout")))
	assert.True(t, wearable.IsMissingManifest(errors.New("System.Resources.MissingManifestResourceException")))
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	band := emulator.New("band")
	s := wearable.NewSession(band, observe.NewNop())

	c, err := s.Connect(context.Background(), mustDiscover(t, s), wearable.SingleAttempt)
	require.NoError(t, err)
	assert.Equal(t, 1, band.OpenClients())

	s.Close(c)
	s.Close(c)
	s.Close(nil)
	assert.Equal(t, 0, band.OpenClients())

	_, err = c.Tiles(context.Background())
	assert.Error(t, err)
}

func TestHasTile_UnknownIDs(t *testing.T) {
	band := emulator.New("band")
	band.InstallTile(tile.Tile{ID: uuid.New(), Name: "other", Layouts: tile.Layouts()})
	s := wearable.NewSession(band, observe.NewNop())

	c, err := s.Connect(context.Background(), mustDiscover(t, s), wearable.SingleAttempt)
	require.NoError(t, err)
	defer s.Close(c)

	ok, err := wearable.HasTile(context.Background(), c, tile.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func mustDiscover(t *testing.T, s *wearable.Session) wearable.Device {
	t.Helper()
	d, err := s.Discover(context.Background(), wearable.ScopeKnown)
	require.NoError(t, err)
	return d
}
