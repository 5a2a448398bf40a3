package tile

import "fmt"

type Rect struct {
	X, Y, Width, Height int
}

type Margins struct {
	Left, Top, Right, Bottom int
}

type Color struct {
	R, G, B uint8
}

// ColorSource picks a color from the band theme instead of a fixed Color.
type ColorSource string

const (
	ColorFixed             ColorSource = ""
	ColorBandHighlight     ColorSource = "band-highlight"
	ColorBandSecondaryText ColorSource = "band-secondary-text"
)

type Font string

const (
	FontSmall             Font = "small"
	FontLarge             Font = "large"
	FontExtraLargeNumbers Font = "extra-large-numbers"
)

// Element is a content slot of a layout.
type Element struct {
	Kind          BlockKind
	ID            ElementID
	Rect          Rect
	Margins       Margins
	Color         Color
	ColorSource   ColorSource
	Font          Font
	AutoWidth     bool
	AutoHeight    bool
	Baseline      int
	AlignToBottom bool
}

// Panel is a horizontal or vertical flow of elements and nested panels.
type Panel struct {
	Rect       Rect
	Horizontal bool
	Elements   []Element
	Panels     []Panel
}

// PageLayout is the structure of a page, registered once with the tile.
type PageLayout struct {
	Name string
	Root Panel
}

var (
	spacerColor    = Color{0x77, 0x77, 0x77}
	secondaryColor = Color{0x7c, 0x7c, 0x7c}
	white          = Color{0xff, 0xff, 0xff}
	pageRect       = Rect{X: 15, Width: 230, Height: 113}
)

// Layouts returns the three page layouts in LayoutCurrent, LayoutDay,
// LayoutUpdated order.
func Layouts() []PageLayout {
	return []PageLayout{
		metricLayout("current", true, FontExtraLargeNumbers),
		metricLayout("day", false, FontLarge),
		updatedLayout(),
	}
}

// metricLayout is a title row (title | subtitle) above a large content value,
// optionally led by an icon.
func metricLayout(name string, withIcon bool, font Font) PageLayout {
	header := Panel{
		Rect:       Rect{Width: 230, Height: 40},
		Horizontal: true,
		Elements: []Element{
			{Kind: KindText, ID: ElementTitle, Rect: Rect{Height: 35}, ColorSource: ColorBandHighlight, AutoWidth: true, Baseline: 30},
			{Kind: KindText, ID: ElementSpacer, Rect: Rect{Height: 35}, Margins: Margins{Left: 5, Right: 5}, Color: spacerColor, AutoWidth: true, Baseline: 30},
			{Kind: KindText, ID: ElementSecondaryTitle, Rect: Rect{Height: 35}, Color: secondaryColor, AutoWidth: true, Baseline: 30},
		},
	}

	body := Panel{Rect: Rect{Width: 230, Height: 78}, Horizontal: true}
	if withIcon {
		body.Elements = append(body.Elements, Element{
			Kind: KindIcon, ID: ElementIcon, Rect: Rect{Width: 48, Height: 48},
			Margins: Margins{Top: 25, Right: 10}, Color: white, AlignToBottom: true,
		})
	}
	body.Elements = append(body.Elements, Element{
		Kind: KindText, ID: ElementContent, Rect: Rect{Height: 78}, Color: white,
		Font: font, AutoWidth: true, Baseline: 113,
	})

	return PageLayout{
		Name: name,
		Root: Panel{Rect: pageRect, Panels: []Panel{header, body}},
	}
}

func updatedLayout() PageLayout {
	return PageLayout{
		Name: "updated",
		Root: Panel{
			Rect: pageRect,
			Elements: []Element{
				{Kind: KindWrappedText, ID: ElementUpdate, Rect: Rect{Y: 10, Width: 230}, ColorSource: ColorBandSecondaryText, AutoHeight: true},
			},
		},
	}
}

// Elements returns every element of the layout keyed by id.
func (l PageLayout) Elements() map[ElementID]Element {
	out := make(map[ElementID]Element)
	var walk func(p Panel)
	walk = func(p Panel) {
		for _, e := range p.Elements {
			out[e.ID] = e
		}
		for _, child := range p.Panels {
			walk(child)
		}
	}
	walk(l.Root)
	return out
}

// Check reports whether page can be rendered with the tile's layouts: the
// layout index must exist and every block must target an element of the
// same kind. Text length is not checked.
func (t Tile) Check(page PageData) error {
	if page.LayoutIndex < 0 || page.LayoutIndex >= len(t.Layouts) {
		return fmt.Errorf("page %s: unknown layout index %d", page.ID, page.LayoutIndex)
	}

	elements := t.Layouts[page.LayoutIndex].Elements()
	for _, b := range page.Blocks {
		e, ok := elements[b.Element]
		if !ok {
			return fmt.Errorf("page %s: layout %d has no element %d", page.ID, page.LayoutIndex, b.Element)
		}
		if e.Kind != b.Kind {
			return fmt.Errorf("page %s: element %d expects %s, got %s", page.ID, b.Element, e.Kind, b.Kind)
		}
		if b.Kind == KindIcon && (b.Icon < 0 || b.Icon >= t.IconCount()) {
			return fmt.Errorf("page %s: icon index %d out of range", page.ID, b.Icon)
		}
	}
	return nil
}
