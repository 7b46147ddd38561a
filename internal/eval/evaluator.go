// Package eval orchestrates one bloom evaluation: validate the request, fan
// out the four independent provider fetches, join them fail-fast, then score,
// rank, and assemble the result.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bloomwatch/bloom-eval-service/internal/domain"
	"github.com/bloomwatch/bloom-eval-service/internal/observability"
)

// climateLeadDays widens the current window backwards so the climate series
// captures the run-up to the requested period.
const climateLeadDays = 30

// historicalShiftDays moves the comparison window back one year.
const historicalShiftDays = 365

// analysisYears is the size of the species analysis window, ending at the
// request's end year.
const analysisYears = 7

// topSpeciesLimit caps the ranked leaderboard.
const topSpeciesLimit = 10

// fallbackDetails is returned when no describer is wired.
const fallbackDetails = "No details available."

// Placeholder record values used when no observed species qualified.
const (
	placeholderSpeciesName = "Famous Flowering Plant"
	placeholderCommonName  = "Unknown"
)

// ClimateProvider fetches a daily climate series for a point and window.
type ClimateProvider interface {
	FetchDailySeries(ctx context.Context, rng domain.DateRange, loc domain.Geo) (domain.ClimateSeries, error)
}

// VegetationProvider runs the asynchronous vegetation task lifecycle.
type VegetationProvider interface {
	FetchSeries(ctx context.Context, rng domain.DateRange, loc domain.Geo, locationName string) (domain.VegetationSeries, error)
}

// ObservationProvider fetches raw species observations across analysis years.
type ObservationProvider interface {
	FetchObservations(ctx context.Context, loc domain.Geo, radiusKm float64, rng domain.DateRange, years []int) ([]domain.Observation, error)
}

// Describer resolves best-effort descriptive text. Implementations never
// fail; they degrade to a fixed string.
type Describer interface {
	DescribeSpecies(ctx context.Context, commonName string) string
	DescribeLocation(ctx context.Context, lat, lon float64) string
}

// ResultPublisher forwards completed results to a sink. Optional.
type ResultPublisher interface {
	Publish(ctx context.Context, locationName string, result domain.BloomResult) error
}

// Request is a validated-on-entry bloom evaluation request.
type Request struct {
	LocationName string
	Start        time.Time
	End          time.Time
	Lat          float64
	Lon          float64
}

// Evaluator wires the providers into the evaluation flow. Stateless across
// requests; concurrent evaluations share nothing mutable.
type Evaluator struct {
	climate      ClimateProvider
	vegetation   VegetationProvider
	observations ObservationProvider
	describer    Describer // nil disables description lookups
	publisher    ResultPublisher
	radiusKm     float64
	timeout      time.Duration
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// New creates an Evaluator. Pass a nil describer or publisher to disable
// that enrichment.
func New(
	climate ClimateProvider,
	vegetation VegetationProvider,
	observations ObservationProvider,
	describer Describer,
	publisher ResultPublisher,
	radiusKm float64,
	timeout time.Duration,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Evaluator {
	return &Evaluator{
		climate:      climate,
		vegetation:   vegetation,
		observations: observations,
		describer:    describer,
		publisher:    publisher,
		radiusKm:     radiusKm,
		timeout:      timeout,
		metrics:      metrics,
		logger:       logger,
	}
}

// CheckReadiness reports whether the evaluator can serve requests.
func (e *Evaluator) CheckReadiness(_ context.Context) error {
	return nil
}

// Evaluate runs one full bloom evaluation. All four fetches must succeed;
// the first failure cancels the rest and aborts the evaluation. Only the
// descriptive-text lookup is allowed to degrade.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (domain.BloomResult, error) {
	if err := validate(req); err != nil {
		return domain.BloomResult{}, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.metrics.EvaluationsInFlight.Inc()
	defer e.metrics.EvaluationsInFlight.Dec()
	start := time.Now()

	years := WindowYears(req.End.Year())
	loc := domain.Geo{Lat: req.Lat, Lon: req.Lon}

	currentRange := domain.DateRange{Start: domain.ShiftDate(req.Start, climateLeadDays), End: req.End}
	historicalRange := domain.DateRange{
		Start: domain.ShiftDate(req.Start, climateLeadDays+historicalShiftDays),
		End:   domain.ShiftDate(req.End, historicalShiftDays),
	}
	vegetationRange := domain.DateRange{Start: req.Start, End: req.End}

	var (
		current    domain.ClimateSeries
		historical domain.ClimateSeries
		vegetation domain.VegetationSeries
		observed   []domain.Observation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = e.climate.FetchDailySeries(gctx, currentRange, loc)
		return err
	})
	g.Go(func() error {
		var err error
		historical, err = e.climate.FetchDailySeries(gctx, historicalRange, loc)
		return err
	})
	g.Go(func() error {
		var err error
		vegetation, err = e.vegetation.FetchSeries(gctx, vegetationRange, loc, req.LocationName)
		return err
	})
	g.Go(func() error {
		var err error
		observed, err = e.observations.FetchObservations(gctx, loc, e.radiusKm, vegetationRange, years)
		return err
	})

	if err := g.Wait(); err != nil {
		e.metrics.EvaluationsTotal.WithLabelValues("error").Inc()
		e.logger.Error("bloom evaluation failed",
			"location", req.LocationName,
			"error", err,
		)
		return domain.BloomResult{}, err
	}

	currentMetrics := domain.ComputeClimateMetrics(current)
	historicalMetrics := domain.ComputeClimateMetrics(historical)
	avgNDVI := domain.AverageNDVI(vegetation.Samples)

	ranked := domain.AggregateObservations(observed, years)
	if len(ranked) > topSpeciesLimit {
		ranked = ranked[:topSpeciesLimit]
	}

	scored := domain.ScoreBloom(currentMetrics, historicalMetrics, avgNDVI, domain.NDVIValues(vegetation.Samples))

	top := e.resolveTopSpecies(ctx, req, ranked)

	result := domain.BloomResult{
		BloomStatus:       scored.Status,
		Confidence:        scored.Confidence,
		CurrentMetrics:    currentMetrics,
		HistoricalMetrics: historicalMetrics,
		AvgNDVI:           avgNDVI,
		NDVITrend:         domain.TrendPoints(vegetation.Samples),
		Score:             scored.Score,
		RasterURL:         vegetation.RasterURL,
		TopSpecies:        []domain.SpeciesRecord{top},
		EvaluatedAt:       time.Now().UTC(),
	}

	e.publish(ctx, req.LocationName, result)

	e.metrics.EvaluationsTotal.WithLabelValues("success").Inc()
	e.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	e.logger.Info("bloom evaluation complete",
		"location", req.LocationName,
		"status", scored.Status,
		"score", scored.Score,
		"confidence", scored.Confidence,
		"species_ranked", len(ranked),
	)
	return result, nil
}

// resolveTopSpecies attaches descriptive text to the top-ranked species, or
// synthesizes a location-based placeholder when nothing qualified.
func (e *Evaluator) resolveTopSpecies(ctx context.Context, req Request, ranked []domain.SpeciesRecord) domain.SpeciesRecord {
	if len(ranked) > 0 && ranked[0].CommonName != "" {
		top := ranked[0]
		top.Details = fallbackDetails
		if e.describer != nil {
			top.Details = e.describer.DescribeSpecies(ctx, top.CommonName)
		}
		return top
	}

	details := fallbackDetails
	if e.describer != nil {
		details = e.describer.DescribeLocation(ctx, req.Lat, req.Lon)
	}
	return domain.SpeciesRecord{
		Name:       placeholderSpeciesName,
		CommonName: placeholderCommonName,
		Years:      []int{},
		Photos:     []string{},
		Details:    details,
	}
}

// publish forwards the result to the sink when one is configured. Failures
// are logged, never surfaced: publishing is downstream enrichment.
func (e *Evaluator) publish(ctx context.Context, locationName string, result domain.BloomResult) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, locationName, result); err != nil {
		e.logger.Warn("result publish failed", "location", locationName, "error", err)
	}
}

// validate checks the request fields before any upstream call is made.
func validate(req Request) error {
	if req.LocationName == "" {
		return fmt.Errorf("%w: locationName is required", domain.ErrValidation)
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return fmt.Errorf("%w: startDate and endDate are required", domain.ErrValidation)
	}
	if req.End.Before(req.Start) {
		return fmt.Errorf("%w: endDate precedes startDate", domain.ErrValidation)
	}
	if req.Lat < -90 || req.Lat > 90 {
		return fmt.Errorf("%w: latitude out of range", domain.ErrValidation)
	}
	if req.Lon < -180 || req.Lon > 180 {
		return fmt.Errorf("%w: longitude out of range", domain.ErrValidation)
	}
	return nil
}

// WindowYears lists the analysis years ascending, ending at endYear.
func WindowYears(endYear int) []int {
	years := make([]int, analysisYears)
	for i := 0; i < analysisYears; i++ {
		years[i] = endYear - (analysisYears - 1) + i
	}
	return years
}
