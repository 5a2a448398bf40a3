package tile

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
)

// Icon is a PNG bitmap registered with the tile.
type Icon struct {
	Name   string
	Width  int
	Height int
	PNG    []byte
}

// IconSet holds the bitmaps needed to add the tile.
type IconSet struct {
	Large       Icon
	Small       Icon
	Thermometer Icon
}

type iconSpec struct {
	file string
	size int
}

var (
	largeSpec       = iconSpec{file: "TileLarge.png", size: 46}
	smallSpec       = iconSpec{file: "TileSmall.png", size: 24}
	thermometerSpec = iconSpec{file: "thermometer.png", size: 48}
)

// LoadIcons reads the tile icons from dir. A missing file, or an empty dir,
// is replaced by a blank white square of the expected size.
func LoadIcons(dir string) (IconSet, error) {
	var (
		set IconSet
		err error
	)

	if set.Large, err = loadIcon(dir, largeSpec); err != nil {
		return IconSet{}, err
	}
	if set.Small, err = loadIcon(dir, smallSpec); err != nil {
		return IconSet{}, err
	}
	if set.Thermometer, err = loadIcon(dir, thermometerSpec); err != nil {
		return IconSet{}, err
	}
	return set, nil
}

func loadIcon(dir string, src iconSpec) (Icon, error) {
	if dir == "" {
		return blankIcon(src)
	}

	b, err := os.ReadFile(filepath.Join(dir, src.file))
	if errors.Is(err, fs.ErrNotExist) {
		return blankIcon(src)
	}
	if err != nil {
		return Icon{}, fmt.Errorf("read icon %s: %w", src.file, err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return Icon{}, fmt.Errorf("decode icon %s: %w", src.file, err)
	}

	return Icon{Name: src.file, Width: cfg.Width, Height: cfg.Height, PNG: b}, nil
}

func blankIcon(src iconSpec) (Icon, error) {
	img := image.NewNRGBA(image.Rect(0, 0, src.size, src.size))
	for y := 0; y < src.size; y++ {
		for x := 0; x < src.size; x++ {
			img.Set(x, y, color.White)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Icon{}, fmt.Errorf("encode icon %s: %w", src.file, err)
	}

	return Icon{Name: src.file, Width: src.size, Height: src.size, PNG: buf.Bytes()}, nil
}
