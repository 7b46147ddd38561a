package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func metricsWith(avgTemp, totalPrecip float64) ClimateMetrics {
	return ClimateMetrics{AvgTemperature: avgTemp, TotalPrecipitation: totalPrecip}
}

func TestScoreBloom_StrongSignals(t *testing.T) {
	// +2 temp (exceeds historical by exactly 2 > 1), +1 precip stable,
	// +3 NDVI level, +2 strictly increasing trend. Anomaly dampening does
	// not apply: |tempAnomaly| = 2 is not < 2.
	current := metricsWith(20, 100)
	historical := metricsWith(18, 100)

	r := ScoreBloom(current, historical, 0.7, []float64{0.2, 0.4, 0.6})

	assert.Equal(t, 8, r.Score)
	assert.Equal(t, StatusLikely, r.Status)
	assert.Equal(t, 100, r.Confidence)
}

func TestScoreBloom_WeakSignals(t *testing.T) {
	// -1 temp (colder than historical), -1 precip outside the band,
	// -1 NDVI level, no trend adjustment with fewer than three samples.
	current := metricsWith(10, 40)
	historical := metricsWith(15, 100)

	r := ScoreBloom(current, historical, 0.3, []float64{0.3, 0.35})

	assert.Equal(t, -3, r.Score)
	assert.Equal(t, StatusUnlikely, r.Status)
	assert.Equal(t, 24, r.Confidence)
}

func TestScoreBloom_TrendRecentDecrease(t *testing.T) {
	current := metricsWith(20, 100)
	historical := metricsWith(18, 100)

	increasing := ScoreBloom(current, historical, 0.7, []float64{0.2, 0.4, 0.6})
	decreasing := ScoreBloom(current, historical, 0.7, []float64{0.3, 0.5, 0.4})

	// +2 for strictly increasing vs -1 when the most recent value dropped.
	assert.Equal(t, increasing.Score-3, decreasing.Score)
}

func TestScoreBloom_TrendUsesLastThree(t *testing.T) {
	current := metricsWith(20, 100)
	historical := metricsWith(18, 100)

	// Earlier values are irrelevant; only the trailing window counts.
	r := ScoreBloom(current, historical, 0.7, []float64{0.9, 0.8, 0.2, 0.4, 0.6})
	assert.Equal(t, 8, r.Score)
}

func TestScoreBloom_TrendPlateauNoChange(t *testing.T) {
	current := metricsWith(20, 100)
	historical := metricsWith(18, 100)

	// Not strictly increasing, and the most recent value did not decrease.
	r := ScoreBloom(current, historical, 0.7, []float64{0.4, 0.5, 0.5})
	assert.Equal(t, 6, r.Score)
}

func TestScoreBloom_AnomalyDampening(t *testing.T) {
	// +1 temp (warmer but within 1°C), +1 precip stable, +1 moderate NDVI,
	// +1 dampening (anomalies 0.5°C and 5mm are both calm).
	current := metricsWith(18.5, 105)
	historical := metricsWith(18, 100)

	r := ScoreBloom(current, historical, 0.5, nil)

	assert.Equal(t, 4, r.Score)
	assert.Equal(t, StatusPossible, r.Status)
	assert.Equal(t, 58, r.Confidence)
}

func TestScoreBloom_NaNMetricsFallThroughToPenalties(t *testing.T) {
	current := ClimateMetrics{AvgTemperature: math.NaN(), TotalPrecipitation: 0}
	historical := ClimateMetrics{AvgTemperature: math.NaN(), TotalPrecipitation: 0}

	r := ScoreBloom(current, historical, 0.3, nil)

	// NaN comparisons all fail: -1 temp, +1 precip (0 within ±20% of 0),
	// -1 NDVI, no trend, no dampening (NaN anomaly is not < 2).
	assert.Equal(t, -1, r.Score)
	assert.Equal(t, StatusUnlikely, r.Status)
}

func TestStatusFor_Boundaries(t *testing.T) {
	status, conf := statusFor(5)
	assert.Equal(t, StatusLikely, status)
	assert.Equal(t, 95, conf)

	status, conf = statusFor(3)
	assert.Equal(t, StatusPossible, status)
	assert.Equal(t, 56, conf)

	status, conf = statusFor(2)
	assert.Equal(t, StatusUnlikely, status)
	assert.Equal(t, 34, conf)

	status, conf = statusFor(10)
	assert.Equal(t, StatusLikely, status)
	assert.Equal(t, 100, conf, "confidence is capped at 100")
}

func TestStatusFor_ConfidenceClampedAtZero(t *testing.T) {
	_, conf := statusFor(-20)
	assert.Equal(t, 0, conf)
}
