package tile

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	set, err := LoadIcons("")
	require.NoError(t, err)

	tl := New(set)
	assert.Equal(t, uuid.MustParse("b44411d6-4ff8-4b29-ab81-10e73106b9e3"), tl.ID)
	assert.Equal(t, "Band Weather", tl.Name)
	require.Len(t, tl.Layouts, 3)
	assert.Equal(t, 3, tl.IconCount())
	assert.Equal(t, 46, tl.Icon.Width)
	assert.Equal(t, 24, tl.SmallIcon.Width)
	assert.Equal(t, 48, tl.AdditionalIcons[0].Height)
}

func TestLayouts_Elements(t *testing.T) {
	layouts := Layouts()

	current := layouts[LayoutCurrent].Elements()
	assert.Len(t, current, 5)
	assert.Equal(t, KindIcon, current[ElementIcon].Kind)
	assert.Equal(t, FontExtraLargeNumbers, current[ElementContent].Font)

	day := layouts[LayoutDay].Elements()
	assert.Len(t, day, 4)
	_, hasIcon := day[ElementIcon]
	assert.False(t, hasIcon)

	updated := layouts[LayoutUpdated].Elements()
	require.Len(t, updated, 1)
	assert.Equal(t, KindWrappedText, updated[ElementUpdate].Kind)
}

func TestTile_CheckBuiltPages(t *testing.T) {
	set, err := LoadIcons("")
	require.NoError(t, err)
	tl := New(set)

	for _, p := range BuildPages(austinForecast(), syncTime) {
		assert.NoError(t, tl.Check(p))
	}
}

func TestTile_CheckRejects(t *testing.T) {
	tl := Tile{Layouts: Layouts()}

	tests := []struct {
		name string
		page PageData
	}{
		{name: "unknown layout", page: PageData{LayoutIndex: 3}},
		{name: "missing element", page: PageData{LayoutIndex: LayoutDay, Blocks: []Block{IconBlock(ElementIcon, 2)}}},
		{name: "kind mismatch", page: PageData{LayoutIndex: LayoutUpdated, Blocks: []Block{TextBlock(ElementUpdate, "x")}}},
		{name: "icon out of range", page: PageData{LayoutIndex: LayoutCurrent, Blocks: []Block{IconBlock(ElementIcon, 7)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tl.Check(tt.page))
		})
	}
}

func TestLoadIcons_FromDir(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 40, 40))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TileLarge.png"), buf.Bytes(), 0o600))

	set, err := LoadIcons(dir)
	require.NoError(t, err)
	assert.Equal(t, 40, set.Large.Width)
	assert.Equal(t, buf.Bytes(), set.Large.PNG)
	assert.Equal(t, 24, set.Small.Width, "missing file falls back to a blank icon")
}

func TestLoadIcons_InvalidPNG(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TileSmall.png"), []byte("not a png"), 0o600))

	_, err := LoadIcons(dir)
	assert.Error(t, err)
}
