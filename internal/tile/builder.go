package tile

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/bandweather/internal/forecast"
)

const (
	// DateFormat renders the "updated" timestamp, e.g. 10/15 3:04 PM.
	DateFormat = "01/02 3:04 PM"

	// ThermometerIcon is the index of the thermometer glyph, the first
	// additional icon of the tile.
	ThermometerIcon = 2

	degree = "º"
)

// BuildPages turns a forecast into tile pages. Pages are assembled as
// current, one per day, updated and then returned in reverse order, so the
// device receives [updated, day N ... day 1, current].
//
// The output depends only on its arguments.
func BuildPages(data forecast.Data, now time.Time) []PageData {
	pages := make([]PageData, 0, len(data.Days)+2)

	pages = append(pages, newPage(len(pages), LayoutCurrent,
		TextBlock(ElementTitle, "Now"),
		TextBlock(ElementSpacer, "|"),
		TextBlock(ElementSecondaryTitle, data.Weather),
		IconBlock(ElementIcon, ThermometerIcon),
		TextBlock(ElementContent, formatTemp(data.Temp)+degree),
	))

	for _, day := range data.Days {
		pages = append(pages, newPage(len(pages), LayoutDay,
			TextBlock(ElementTitle, day.Day),
			TextBlock(ElementSpacer, "|"),
			TextBlock(ElementSecondaryTitle, day.Weather),
			TextBlock(ElementContent, day.High+degree+"/"+day.Low+degree),
		))
	}

	updated := fmt.Sprintf("Updated\n%s\n%s\n", now.Format(DateFormat), data.City)
	pages = append(pages, newPage(len(pages), LayoutUpdated, WrappedTextBlock(ElementUpdate, updated)))

	slices.Reverse(pages)

	return pages
}

func formatTemp(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

// newPage derives the page id from its position and content so equal input
// gives equal ids.
func newPage(pos, layout int, blocks ...Block) PageData {
	var seed strings.Builder
	fmt.Fprintf(&seed, "%d\x00%d", pos, layout)
	for _, b := range blocks {
		fmt.Fprintf(&seed, "\x00%d\x00%s\x00%s\x00%d", b.Element, b.Kind, b.Text, b.Icon)
	}

	return PageData{
		ID:          uuid.NewSHA1(ID, []byte(seed.String())),
		LayoutIndex: layout,
		Blocks:      blocks,
	}
}
