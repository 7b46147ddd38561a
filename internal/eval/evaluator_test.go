package eval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomwatch/bloom-eval-service/internal/domain"
	"github.com/bloomwatch/bloom-eval-service/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClimate struct {
	mu     sync.Mutex
	calls  int
	ranges []domain.DateRange
	series domain.ClimateSeries
	err    error
}

func (f *fakeClimate) FetchDailySeries(_ context.Context, rng domain.DateRange, _ domain.Geo) (domain.ClimateSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ranges = append(f.ranges, rng)
	return f.series, f.err
}

type fakeVegetation struct {
	mu     sync.Mutex
	calls  int
	rng    domain.DateRange
	name   string
	series domain.VegetationSeries
	err    error
}

func (f *fakeVegetation) FetchSeries(_ context.Context, rng domain.DateRange, _ domain.Geo, locationName string) (domain.VegetationSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.rng = rng
	f.name = locationName
	return f.series, f.err
}

type fakeObservations struct {
	mu    sync.Mutex
	calls int
	years []int
	obs   []domain.Observation
	err   error
}

func (f *fakeObservations) FetchObservations(_ context.Context, _ domain.Geo, _ float64, _ domain.DateRange, years []int) ([]domain.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.years = years
	return f.obs, f.err
}

type fakeDescriber struct {
	speciesCalls  int
	locationCalls int
}

func (f *fakeDescriber) DescribeSpecies(_ context.Context, commonName string) string {
	f.speciesCalls++
	return "about " + commonName
}

func (f *fakeDescriber) DescribeLocation(_ context.Context, _, _ float64) string {
	f.locationCalls++
	return "about this place"
}

type fakePublisher struct {
	calls  int
	name   string
	result domain.BloomResult
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, locationName string, result domain.BloomResult) error {
	f.calls++
	f.name = locationName
	f.result = result
	return f.err
}

func validRequest() Request {
	return Request{
		LocationName: "whitehorse",
		Start:        time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
		Lat:          60.7,
		Lon:          -135.1,
	}
}

func warmSeries() domain.ClimateSeries {
	return domain.ClimateSeries{
		Temperature:   map[string]float64{"20240501": 20, "20240502": 21},
		Precipitation: map[string]float64{"20240501": 2, "20240502": 3},
	}
}

func coolSeries() domain.ClimateSeries {
	return domain.ClimateSeries{
		Temperature:   map[string]float64{"20230501": 14, "20230502": 15},
		Precipitation: map[string]float64{"20230501": 2, "20230502": 3},
	}
}

func greenSeries() domain.VegetationSeries {
	return domain.VegetationSeries{
		Samples: []domain.NDVISample{
			{Date: time.Date(2024, time.May, 8, 0, 0, 0, 0, time.UTC), NDVI: 0.5},
			{Date: time.Date(2024, time.May, 24, 0, 0, 0, 0, time.UTC), NDVI: 0.6},
			{Date: time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC), NDVI: 0.7},
		},
		RasterURL: "https://appeears.example/bundle/task-1/f-tif",
	}
}

func qualifyingObservation(year string) domain.Observation {
	return domain.Observation{
		ObservedOn: year + "-06-01",
		Taxon: &domain.Taxon{
			ID:                  77,
			Name:                "Epilobium angustifolium",
			PreferredCommonName: "Fireweed",
			IconicTaxonName:     "Plantae",
			Rank:                "species",
			TaxonSchemes:        []domain.TaxonScheme{{Name: "Angiosperms of the World"}},
		},
	}
}

func newEvaluator(climate *fakeClimate, vegetation *fakeVegetation, observations *fakeObservations, describer Describer, publisher ResultPublisher) *Evaluator {
	return New(climate, vegetation, observations, describer, publisher, 10, time.Minute,
		observability.NewMetricsForTesting(), discardLogger())
}

func TestEvaluate(t *testing.T) {
	// The climate fake serves both windows; the current/historical split is
	// checked through the ranges it records.
	climate := &fakeClimate{series: warmSeries()}
	vegetation := &fakeVegetation{series: greenSeries()}
	observations := &fakeObservations{obs: []domain.Observation{
		qualifyingObservation("2023"),
		qualifyingObservation("2024"),
	}}
	describer := &fakeDescriber{}
	publisher := &fakePublisher{}

	e := newEvaluator(climate, vegetation, observations, describer, publisher)
	result, err := e.Evaluate(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, climate.calls)
	assert.Equal(t, 1, vegetation.calls)
	assert.Equal(t, 1, observations.calls)

	// The current window gains a 30-day lead; the historical window is the
	// same shape shifted back a year.
	wantCurrent := domain.DateRange{
		Start: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
	}
	wantHistorical := domain.DateRange{
		Start: time.Date(2023, time.April, 2, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.ElementsMatch(t, []domain.DateRange{wantCurrent, wantHistorical}, climate.ranges)

	// The vegetation window is the raw request window.
	assert.Equal(t, domain.DateRange{
		Start: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
	}, vegetation.rng)
	assert.Equal(t, "whitehorse", vegetation.name)

	assert.Equal(t, []int{2018, 2019, 2020, 2021, 2022, 2023, 2024}, observations.years)

	assert.NotEmpty(t, result.BloomStatus)
	assert.InDelta(t, 0.6, result.AvgNDVI, 1e-9)
	assert.Len(t, result.NDVITrend, 3)
	assert.Equal(t, "https://appeears.example/bundle/task-1/f-tif", result.RasterURL)
	assert.False(t, result.EvaluatedAt.IsZero())

	require.Len(t, result.TopSpecies, 1)
	assert.Equal(t, "Fireweed", result.TopSpecies[0].CommonName)
	assert.Equal(t, 2, result.TopSpecies[0].Count)
	assert.Equal(t, "about Fireweed", result.TopSpecies[0].Details)
	assert.Equal(t, 1, describer.speciesCalls)
	assert.Equal(t, 0, describer.locationCalls)

	assert.Equal(t, 1, publisher.calls)
	assert.Equal(t, "whitehorse", publisher.name)
	assert.Equal(t, result.BloomStatus, publisher.result.BloomStatus)
}

func TestEvaluate_PlaceholderSpecies(t *testing.T) {
	climate := &fakeClimate{series: warmSeries()}
	vegetation := &fakeVegetation{series: greenSeries()}
	observations := &fakeObservations{}
	describer := &fakeDescriber{}

	e := newEvaluator(climate, vegetation, observations, describer, nil)
	result, err := e.Evaluate(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, result.TopSpecies, 1)
	assert.Equal(t, "Famous Flowering Plant", result.TopSpecies[0].Name)
	assert.Equal(t, "Unknown", result.TopSpecies[0].CommonName)
	assert.Equal(t, "about this place", result.TopSpecies[0].Details)
	assert.Equal(t, 1, describer.locationCalls)
	assert.Equal(t, 0, describer.speciesCalls)
}

func TestEvaluate_NilDescriber(t *testing.T) {
	climate := &fakeClimate{series: warmSeries()}
	vegetation := &fakeVegetation{series: greenSeries()}
	observations := &fakeObservations{obs: []domain.Observation{qualifyingObservation("2024")}}

	e := newEvaluator(climate, vegetation, observations, nil, nil)
	result, err := e.Evaluate(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, result.TopSpecies, 1)
	assert.Equal(t, "No details available.", result.TopSpecies[0].Details)
}

func TestEvaluate_ProviderFailureAborts(t *testing.T) {
	upstream := errors.New("vegetation exploded")
	climate := &fakeClimate{series: warmSeries()}
	vegetation := &fakeVegetation{err: upstream}
	observations := &fakeObservations{}
	publisher := &fakePublisher{}

	e := newEvaluator(climate, vegetation, observations, nil, publisher)
	_, err := e.Evaluate(context.Background(), validRequest())

	assert.ErrorIs(t, err, upstream)
	assert.Equal(t, 0, publisher.calls, "failed evaluations are not published")
}

func TestEvaluate_PublishFailureIsNotFatal(t *testing.T) {
	climate := &fakeClimate{series: warmSeries()}
	vegetation := &fakeVegetation{series: greenSeries()}
	observations := &fakeObservations{}
	publisher := &fakePublisher{err: errors.New("broker down")}

	e := newEvaluator(climate, vegetation, observations, nil, publisher)
	_, err := e.Evaluate(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, 1, publisher.calls)
}

func TestEvaluate_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing location", func(r *Request) { r.LocationName = "" }},
		{"missing start", func(r *Request) { r.Start = time.Time{} }},
		{"missing end", func(r *Request) { r.End = time.Time{} }},
		{"end before start", func(r *Request) { r.Start, r.End = r.End, r.Start }},
		{"latitude too high", func(r *Request) { r.Lat = 90.5 }},
		{"latitude too low", func(r *Request) { r.Lat = -90.5 }},
		{"longitude too high", func(r *Request) { r.Lon = 180.5 }},
		{"longitude too low", func(r *Request) { r.Lon = -180.5 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			climate := &fakeClimate{}
			vegetation := &fakeVegetation{}
			observations := &fakeObservations{}

			req := validRequest()
			tc.mutate(&req)

			e := newEvaluator(climate, vegetation, observations, nil, nil)
			_, err := e.Evaluate(context.Background(), req)

			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, 0, climate.calls, "no provider is called for an invalid request")
			assert.Equal(t, 0, vegetation.calls)
			assert.Equal(t, 0, observations.calls)
		})
	}
}

func TestWindowYears(t *testing.T) {
	assert.Equal(t, []int{2018, 2019, 2020, 2021, 2022, 2023, 2024}, WindowYears(2024))
}
