package domain

import "time"

// BloomResult is the response envelope for one evaluation. Constructed once
// per request and never mutated afterwards.
type BloomResult struct {
	BloomStatus       BloomStatus     `json:"bloomStatus"`
	Confidence        int             `json:"confidence"`
	CurrentMetrics    ClimateMetrics  `json:"currentMetrics"`
	HistoricalMetrics ClimateMetrics  `json:"historicalMetrics"`
	AvgNDVI           float64         `json:"avgNDVI"`
	NDVITrend         []TrendPoint    `json:"ndviTrend"`
	Score             int             `json:"score"`
	RasterURL         string          `json:"tiffUrl"`
	TopSpecies        []SpeciesRecord `json:"topSpecies"`
	EvaluatedAt       time.Time       `json:"evaluatedAt"`
}
