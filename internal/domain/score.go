package domain

import "math"

// BloomStatus is the categorical outcome of an evaluation.
type BloomStatus string

const (
	StatusLikely   BloomStatus = "Likely to Bloom"
	StatusPossible BloomStatus = "Possibly Blooming"
	StatusUnlikely BloomStatus = "Unlikely to Bloom"
)

// Hand-tuned scoring constants. These encode the evaluator's heuristic and
// are kept as named values for auditability; do not retune them casually.
const (
	tempStrongLeadC    = 1.0  // current mean temp must beat historical by more than this for +2
	precipStableBand   = 0.20 // total precip within ±20% of historical counts as stable
	ndviHighLevel      = 0.6  // mean NDVI above this is dense, active vegetation
	ndviModerateLevel  = 0.4  // mean NDVI above this is moderate vegetation
	trendWindow        = 3    // number of trailing composites the trend rule inspects
	tempAnomalyCalmC   = 2.0
	precipAnomalyCalmM = 20.0

	likelyThreshold   = 5
	possibleThreshold = 3
)

// ScoreResult pairs the accumulated score with its status/confidence mapping.
type ScoreResult struct {
	Score      int
	Status     BloomStatus
	Confidence int
}

// ScoreBloom fuses climate anomaly, vegetation level, and vegetation trend
// into a bloom status. Pure and deterministic; rules apply in a fixed order,
// accumulating an integer score from zero. NaN inputs fail every comparison,
// which lands each rule on its penalty branch or skips it.
func ScoreBloom(current, historical ClimateMetrics, avgNDVI float64, ndviTrend []float64) ScoreResult {
	score := 0

	// Temperature comparison against the prior-year window.
	switch {
	case current.AvgTemperature > historical.AvgTemperature+tempStrongLeadC:
		score += 2
	case current.AvgTemperature > historical.AvgTemperature:
		score++
	default:
		score--
	}

	// Precipitation stability.
	if current.TotalPrecipitation >= historical.TotalPrecipitation*(1-precipStableBand) &&
		current.TotalPrecipitation <= historical.TotalPrecipitation*(1+precipStableBand) {
		score++
	} else {
		score--
	}

	// Vegetation-index level.
	switch {
	case avgNDVI > ndviHighLevel:
		score += 3
	case avgNDVI > ndviModerateLevel:
		score++
	default:
		score--
	}

	// Vegetation-index trend over the last three composites.
	if len(ndviTrend) >= trendWindow {
		last := ndviTrend[len(ndviTrend)-trendWindow:]
		if last[2] > last[1] && last[1] > last[0] {
			score += 2
		} else if last[2] < last[1] {
			score--
		}
	}

	// Anomaly dampening: a calm climate window is mildly favorable.
	tempAnomaly := current.AvgTemperature - historical.AvgTemperature
	precipAnomaly := current.TotalPrecipitation - historical.TotalPrecipitation
	if math.Abs(tempAnomaly) < tempAnomalyCalmC && math.Abs(precipAnomaly) < precipAnomalyCalmM {
		score++
	}

	status, confidence := statusFor(score)
	return ScoreResult{Score: score, Status: status, Confidence: confidence}
}

// statusFor maps a final score onto a status and a confidence percentage,
// clamped to [0, 100].
func statusFor(score int) (BloomStatus, int) {
	switch {
	case score >= likelyThreshold:
		return StatusLikely, clampConfidence(80 + score*3)
	case score >= possibleThreshold:
		return StatusPossible, clampConfidence(50 + score*2)
	default:
		return StatusUnlikely, clampConfidence(30 + score*2)
	}
}

func clampConfidence(c int) int {
	if c > 100 {
		return 100
	}
	if c < 0 {
		return 0
	}
	return c
}
