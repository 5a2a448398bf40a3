package emulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/bandweather/internal/tile"
	"github.com/i474232898/bandweather/internal/wearable"
)

func connect(t *testing.T, b *Band) wearable.Client {
	t.Helper()
	devices, err := b.Devices(context.Background(), wearable.ScopeKnown)
	require.NoError(t, err)
	require.Len(t, devices, 1)

	c, err := b.Connect(context.Background(), devices[0])
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestBand_Scopes(t *testing.T) {
	b := New("band", WithConnected(false))

	known, err := b.Devices(context.Background(), wearable.ScopeKnown)
	require.NoError(t, err)
	assert.Len(t, known, 1)

	connected, err := b.Devices(context.Background(), wearable.ScopeConnected)
	require.NoError(t, err)
	assert.Empty(t, connected)

	connect(t, b)
	connected, err = b.Devices(context.Background(), wearable.ScopeConnected)
	require.NoError(t, err)
	assert.Len(t, connected, 1, "connecting marks the band connected")
}

func TestBand_SetPagesChecksLayouts(t *testing.T) {
	b := New("band")
	c := connect(t, b)
	ctx := context.Background()

	require.NoError(t, c.AddTile(ctx, tile.Tile{ID: tile.ID, Name: tile.Name, Layouts: tile.Layouts()}))

	bad := []tile.PageData{{LayoutIndex: tile.LayoutUpdated, Blocks: []tile.Block{tile.TextBlock(tile.ElementUpdate, "x")}}}
	assert.Error(t, c.SetPages(ctx, tile.ID, bad))
	assert.Empty(t, b.Pages(tile.ID))

	good := []tile.PageData{{LayoutIndex: tile.LayoutUpdated, Blocks: []tile.Block{tile.WrappedTextBlock(tile.ElementUpdate, "x")}}}
	require.NoError(t, c.SetPages(ctx, tile.ID, good))
	assert.Equal(t, good, b.Pages(tile.ID))

	require.NoError(t, c.RemovePages(ctx, tile.ID))
	assert.Empty(t, b.Pages(tile.ID))
}

func TestBand_AddTileRules(t *testing.T) {
	b := New("band")
	c := connect(t, b)
	ctx := context.Background()

	assert.Error(t, c.AddTile(ctx, tile.Tile{ID: tile.ID, Layouts: tile.Layouts()}), "name required")
	assert.Error(t, c.AddTile(ctx, tile.Tile{ID: tile.ID, Name: tile.Name}), "layouts required")

	require.NoError(t, c.AddTile(ctx, tile.Tile{ID: tile.ID, Name: tile.Name, Layouts: tile.Layouts()}))
	assert.Error(t, c.AddTile(ctx, tile.Tile{ID: tile.ID, Name: tile.Name, Layouts: tile.Layouts()}), "already installed")
}

func TestBand_PagesRequireTile(t *testing.T) {
	c := connect(t, New("band"))
	assert.Error(t, c.RemovePages(context.Background(), tile.ID))
	assert.Error(t, c.SetPages(context.Background(), tile.ID, nil))
}

func TestBand_HookAndCancel(t *testing.T) {
	var ops []string
	b := New("band", WithHook(func(op string) { ops = append(ops, op) }))
	c := connect(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Tiles(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{OpDevices, OpConnect, OpTiles}, ops)
}

func TestBand_UnpairDisconnects(t *testing.T) {
	b := New("band")
	b.SetPaired(false)

	devices, err := b.Devices(context.Background(), wearable.ScopeKnown)
	require.NoError(t, err)
	assert.Empty(t, devices)

	_, err = b.Connect(context.Background(), wearable.Device{Name: "band"})
	assert.Error(t, err)
}
