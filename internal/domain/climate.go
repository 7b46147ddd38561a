package domain

import (
	"encoding/json"
	"math"

	"github.com/montanaflynn/stats"
)

// MissingReading is the POWER sentinel for a day with no data. Sentinel
// entries are dropped before any aggregate is computed.
const MissingReading = -999.0

// warmDayThresholdC is the daily mean temperature above which a day counts
// toward DaysAbove15C.
const warmDayThresholdC = 15.0

// ClimateSeries holds the four daily measurement channels returned by the
// climate provider for one location and date window. Each channel maps the
// provider's date key to a reading. Immutable once fetched.
type ClimateSeries struct {
	Location       Geo                `json:"location"`
	Range          DateRange          `json:"dateRange"`
	Temperature    map[string]float64 `json:"temperature"`
	TemperatureMax map[string]float64 `json:"temperatureMax"`
	TemperatureMin map[string]float64 `json:"temperatureMin"`
	Precipitation  map[string]float64 `json:"precipitation"`
}

// ClimateMetrics summarizes a ClimateSeries. Derived once per series and
// always from the same date window the series was fetched for.
type ClimateMetrics struct {
	AvgTemperature     float64 `json:"avgTemperature"`
	TotalPrecipitation float64 `json:"totalPrecipitation"`
	AvgPrecipitation   float64 `json:"avgPrecipitation"`
	DaysAbove15C       int     `json:"daysAbove15C"`
	DaysWithRain       int     `json:"daysWithRain"`
}

// ComputeClimateMetrics reduces a daily series into summary statistics.
// A channel with no valid readings yields a NaN mean and a zero total; that
// is a degraded result, not an error, and the evaluation proceeds with it.
func ComputeClimateMetrics(series ClimateSeries) ClimateMetrics {
	temps := validReadings(series.Temperature)
	precip := validReadings(series.Precipitation)

	warmDays := 0
	for _, t := range temps {
		if t > warmDayThresholdC {
			warmDays++
		}
	}
	rainDays := 0
	for _, p := range precip {
		if p > 0 {
			rainDays++
		}
	}

	return ClimateMetrics{
		AvgTemperature:     meanOrNaN(temps),
		TotalPrecipitation: sumOrZero(precip),
		AvgPrecipitation:   meanOrNaN(precip),
		DaysAbove15C:       warmDays,
		DaysWithRain:       rainDays,
	}
}

// validReadings filters out the missing-data sentinel from a channel.
func validReadings(channel map[string]float64) []float64 {
	out := make([]float64, 0, len(channel))
	for _, v := range channel {
		if v != MissingReading {
			out = append(out, v)
		}
	}
	return out
}

func meanOrNaN(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return math.NaN()
	}
	return m
}

func sumOrZero(values []float64) float64 {
	s, err := stats.Sum(values)
	if err != nil {
		return 0
	}
	return s
}

// MarshalJSON renders NaN aggregates as null. encoding/json rejects NaN
// outright, and an all-missing series must still serialize as a degraded
// result rather than abort the response.
func (m ClimateMetrics) MarshalJSON() ([]byte, error) {
	type alias struct {
		AvgTemperature     nanAsNull `json:"avgTemperature"`
		TotalPrecipitation nanAsNull `json:"totalPrecipitation"`
		AvgPrecipitation   nanAsNull `json:"avgPrecipitation"`
		DaysAbove15C       int       `json:"daysAbove15C"`
		DaysWithRain       int       `json:"daysWithRain"`
	}
	return json.Marshal(alias{
		AvgTemperature:     nanAsNull(m.AvgTemperature),
		TotalPrecipitation: nanAsNull(m.TotalPrecipitation),
		AvgPrecipitation:   nanAsNull(m.AvgPrecipitation),
		DaysAbove15C:       m.DaysAbove15C,
		DaysWithRain:       m.DaysWithRain,
	})
}

type nanAsNull float64

func (f nanAsNull) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}
