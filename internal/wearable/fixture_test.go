package wearable_test

import "github.com/i474232898/bandweather/internal/forecast"

func forecastFixture() forecast.Data {
	return forecast.Data{
		City:    "Austin",
		Temp:    72,
		Weather: "Clear",
		Days: []forecast.Day{
			{Day: "Mon", High: "80", Low: "60", Weather: "Sunny"},
			{Day: "Tue", High: "82", Low: "61", Weather: "Cloudy"},
		},
	}
}
