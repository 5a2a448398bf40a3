package tile

import (
	"github.com/google/uuid"
)

// ID is the fixed identifier of the weather tile on the band.
var ID = uuid.MustParse("B44411D6-4FF8-4B29-AB81-10E73106B9E3")

// Name is shown under the tile on the band.
const Name = "Band Weather"

// ElementID addresses a block within a page. The values are shared with the
// page layouts registered on the device and must not change.
type ElementID int16

const (
	ElementTitle          ElementID = 1
	ElementSpacer         ElementID = 2
	ElementSecondaryTitle ElementID = 3
	ElementIcon           ElementID = 4
	ElementContent        ElementID = 5
	ElementUpdate         ElementID = 6
)

// Layout indexes, in the order the layouts are registered with the tile.
const (
	LayoutCurrent = 0
	LayoutDay     = 1
	LayoutUpdated = 2
)

// Tile is everything registered once when the tile is added to the band.
type Tile struct {
	ID              uuid.UUID
	Name            string
	Icon            Icon
	SmallIcon       Icon
	AdditionalIcons []Icon
	Layouts         []PageLayout
}

// New returns the weather tile definition using icons from set.
func New(set IconSet) Tile {
	return Tile{
		ID:              ID,
		Name:            Name,
		Icon:            set.Large,
		SmallIcon:       set.Small,
		AdditionalIcons: []Icon{set.Thermometer},
		Layouts:         Layouts(),
	}
}

// IconCount is the number of addressable icons. The tile icon and small icon
// take indexes 0 and 1, additional icons follow.
func (t Tile) IconCount() int {
	return 2 + len(t.AdditionalIcons)
}
