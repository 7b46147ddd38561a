package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// NDVISample is one 16-day vegetation index composite. NDVI or EVI is NaN
// when the provider's value could not be parsed.
type NDVISample struct {
	Date time.Time `json:"date"`
	NDVI float64   `json:"ndvi"`
	EVI  float64   `json:"evi"`
}

// VegetationSeries is the result of a completed vegetation task: the parsed
// tabular samples plus a reference to the raster output, which is never
// downloaded eagerly.
type VegetationSeries struct {
	Samples   []NDVISample
	RasterURL string
}

// TrendPoint is one dated NDVI value in the response trend sequence.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// VerifySampleOrder checks the provider's date-ascending contract. The trend
// analysis depends on that ordering, so a violation is a data-format failure
// rather than something to silently re-sort.
func VerifySampleOrder(samples []NDVISample) error {
	for i := 1; i < len(samples); i++ {
		if samples[i].Date.Before(samples[i-1].Date) {
			return fmt.Errorf("%w: vegetation samples out of date order at index %d", ErrDataFormat, i)
		}
	}
	return nil
}

// AverageNDVI is the mean NDVI over parseable samples. NaN samples are
// excluded rather than counted as zero; an empty or all-NaN series yields 0.
func AverageNDVI(samples []NDVISample) float64 {
	valid := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !math.IsNaN(s.NDVI) {
			valid = append(valid, s.NDVI)
		}
	}
	m, err := stats.Mean(valid)
	if err != nil {
		return 0
	}
	return m
}

// TrendPoints projects the sample sequence into the dated NDVI values the
// response exposes, preserving provider order.
func TrendPoints(samples []NDVISample) []TrendPoint {
	points := make([]TrendPoint, len(samples))
	for i, s := range samples {
		points[i] = TrendPoint{Date: s.Date, Value: s.NDVI}
	}
	return points
}

// NDVIValues extracts the chronological NDVI sequence the scorer's trend rule
// operates on.
func NDVIValues(samples []NDVISample) []float64 {
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.NDVI
	}
	return values
}

// MarshalJSON renders a NaN value as null; see ClimateMetrics.MarshalJSON.
func (p TrendPoint) MarshalJSON() ([]byte, error) {
	type alias struct {
		Date  time.Time `json:"date"`
		Value nanAsNull `json:"value"`
	}
	return json.Marshal(alias{Date: p.Date, Value: nanAsNull(p.Value)})
}
