package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// conditionsResponse is the subset of the conditions/forecast10day payload the
// tile needs. Missing fields fail validation.
type conditionsResponse struct {
	CurrentObservation *currentObservation `json:"current_observation" validate:"required"`
	Forecast           *forecastSection    `json:"forecast" validate:"required"`
}

type currentObservation struct {
	DisplayLocation struct {
		City string `json:"city" validate:"required"`
	} `json:"display_location"`
	TempF   *float64 `json:"temp_f" validate:"required"`
	Weather *string  `json:"weather" validate:"required"`
}

type forecastSection struct {
	SimpleForecast struct {
		ForecastDay []forecastDay `json:"forecastday" validate:"required,min=1,dive"`
	} `json:"simpleforecast"`
}

type forecastDay struct {
	Date struct {
		WeekdayShort string `json:"weekday_short" validate:"required"`
	} `json:"date"`
	High struct {
		Fahrenheit lenientString `json:"fahrenheit" validate:"required"`
	} `json:"high"`
	Low struct {
		Fahrenheit lenientString `json:"fahrenheit" validate:"required"`
	} `json:"low"`
	Conditions *string `json:"conditions" validate:"required"`
}

// lenientString accepts a JSON string or number. The provider has sent both
// for the temperature fields.
type lenientString string

func (s *lenientString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = lenientString(v)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = lenientString(n.String())
	return nil
}

func (r *conditionsResponse) toData(days int) Data {
	out := Data{
		City:    r.CurrentObservation.DisplayLocation.City,
		Temp:    *r.CurrentObservation.TempF,
		Weather: *r.CurrentObservation.Weather,
	}

	fd := r.Forecast.SimpleForecast.ForecastDay
	if len(fd) > days {
		fd = fd[:days]
	}

	out.Days = make([]Day, 0, len(fd))
	for _, d := range fd {
		out.Days = append(out.Days, Day{
			Day:     d.Date.WeekdayShort,
			Weather: *d.Conditions,
			High:    string(d.High.Fahrenheit),
			Low:     string(d.Low.Fahrenheit),
		})
	}

	return out
}
