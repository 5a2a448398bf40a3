package tile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/bandweather/internal/forecast"
)

var syncTime = time.Date(2026, 10, 15, 15, 4, 0, 0, time.UTC)

func austinForecast() forecast.Data {
	return forecast.Data{
		City:    "Austin",
		Temp:    72,
		Weather: "Clear",
		Days: []forecast.Day{
			{Day: "Mon", High: "80", Low: "60", Weather: "Sunny"},
		},
	}
}

func block(t *testing.T, p PageData, id ElementID) Block {
	t.Helper()
	for _, b := range p.Blocks {
		if b.Element == id {
			return b
		}
	}
	t.Fatalf("page %s has no element %d", p.ID, id)
	return Block{}
}

func TestBuildPages_Austin(t *testing.T) {
	pages := BuildPages(austinForecast(), syncTime)
	require.Len(t, pages, 3)

	updated, day, current := pages[0], pages[1], pages[2]

	assert.Equal(t, LayoutUpdated, updated.LayoutIndex)
	assert.Equal(t, WrappedTextBlock(ElementUpdate, "Updated\n10/15 3:04 PM\nAustin\n"), block(t, updated, ElementUpdate))

	assert.Equal(t, LayoutDay, day.LayoutIndex)
	assert.Equal(t, "Mon", block(t, day, ElementTitle).Text)
	assert.Equal(t, "|", block(t, day, ElementSpacer).Text)
	assert.Equal(t, "Sunny", block(t, day, ElementSecondaryTitle).Text)
	assert.Equal(t, "80º/60º", block(t, day, ElementContent).Text)

	assert.Equal(t, LayoutCurrent, current.LayoutIndex)
	assert.Equal(t, []Block{
		TextBlock(ElementTitle, "Now"),
		TextBlock(ElementSpacer, "|"),
		TextBlock(ElementSecondaryTitle, "Clear"),
		IconBlock(ElementIcon, ThermometerIcon),
		TextBlock(ElementContent, "72º"),
	}, current.Blocks)
}

func TestBuildPages_ReversedOrder(t *testing.T) {
	data := austinForecast()
	data.Days = []forecast.Day{
		{Day: "Mon", High: "80", Low: "60", Weather: "Sunny"},
		{Day: "Tue", High: "81", Low: "61", Weather: "Cloudy"},
		{Day: "Wed", High: "82", Low: "62", Weather: "Rain"},
		{Day: "Thu", High: "83", Low: "63", Weather: "Fog"},
		{Day: "Fri", High: "84", Low: "64", Weather: "Snow"},
	}

	pages := BuildPages(data, syncTime)
	require.Len(t, pages, len(data.Days)+2)

	assert.Equal(t, LayoutUpdated, pages[0].LayoutIndex)
	assert.Equal(t, LayoutCurrent, pages[len(pages)-1].LayoutIndex)

	var labels []string
	for _, p := range pages[1 : len(pages)-1] {
		assert.Equal(t, LayoutDay, p.LayoutIndex)
		labels = append(labels, block(t, p, ElementTitle).Text)
	}
	assert.Equal(t, []string{"Fri", "Thu", "Wed", "Tue", "Mon"}, labels)
}

func TestBuildPages_PageCount(t *testing.T) {
	for n := 0; n <= 10; n++ {
		data := austinForecast()
		data.Days = make([]forecast.Day, n)
		assert.Len(t, BuildPages(data, syncTime), n+2)
	}
}

func TestBuildPages_Deterministic(t *testing.T) {
	a := BuildPages(austinForecast(), syncTime)
	b := BuildPages(austinForecast(), syncTime)
	assert.Equal(t, a, b)

	later := BuildPages(austinForecast(), syncTime.Add(time.Minute))
	assert.NotEqual(t, a[0].ID, later[0].ID)
	assert.Equal(t, a[2].ID, later[2].ID)
}

func TestBuildPages_UniqueIDs(t *testing.T) {
	data := austinForecast()
	data.Days = append(data.Days, data.Days[0], data.Days[0])

	seen := map[string]bool{}
	for _, p := range BuildPages(data, syncTime) {
		assert.False(t, seen[p.ID.String()], "duplicate page id %s", p.ID)
		seen[p.ID.String()] = true
	}
}

func TestBuildPages_TemperatureFormat(t *testing.T) {
	tests := []struct {
		temp float64
		want string
	}{
		{72, "72º"},
		{72.5, "72.5º"},
		{-3, "-3º"},
		{0, "0º"},
	}

	for _, tt := range tests {
		data := austinForecast()
		data.Temp = tt.temp
		pages := BuildPages(data, syncTime)
		assert.Equal(t, tt.want, block(t, pages[len(pages)-1], ElementContent).Text)
	}
}

func TestBuildPages_NoLengthLimit(t *testing.T) {
	data := austinForecast()
	data.Weather = "Scattered thunderstorms with a chance of hail and strong gusty winds"

	pages := BuildPages(data, syncTime)
	assert.Equal(t, data.Weather, block(t, pages[len(pages)-1], ElementSecondaryTitle).Text)
}
