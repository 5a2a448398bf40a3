package forecast

import (
	"errors"

	"github.com/i474232898/bandweather/internal/location"
)

// ErrUnavailable wraps every network, status, decode or validation failure
// of a forecast request.
var ErrUnavailable = errors.New("forecast unavailable")

// Day is one daily summary. All values are display strings.
type Day struct {
	Day     string `json:"day"`
	Weather string `json:"weather"`
	High    string `json:"high"`
	Low     string `json:"low"`
}

// Data is the forecast for a single sync: current conditions plus daily summaries.
type Data struct {
	City    string  `json:"city"`
	Temp    float64 `json:"temp"`
	Weather string  `json:"weather"`
	Days    []Day   `json:"days"`
}

// Query selects the forecast location. A non-empty PostalCode wins over Coordinate.
type Query struct {
	Coordinate *location.Coordinate
	PostalCode string
}
