package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bloomwatch/bloom-eval-service/internal/domain"
	"github.com/bloomwatch/bloom-eval-service/internal/eval"
)

// apiRequest is the shared request body shape across the POST routes.
// Unused fields are simply absent for a given route.
type apiRequest struct {
	LocationName string  `json:"locationName"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Radius       float64 `json:"radius"`
}

func (s *Server) handleBloomStatus(w http.ResponseWriter, r *http.Request) {
	body, rng, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.evaluator.Evaluate(r.Context(), eval.Request{
		LocationName: body.LocationName,
		Start:        rng.Start,
		End:          rng.End,
		Lat:          body.Lat,
		Lon:          body.Lon,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		domain.BloomResult
	}{Success: true, BloomResult: result})
}

func (s *Server) handleClimate(w http.ResponseWriter, r *http.Request) {
	body, rng, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	series, err := s.providers.Climate.FetchDailySeries(r.Context(), rng, domain.Geo{Lat: body.Lat, Lon: body.Lon})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleNDVI(w http.ResponseWriter, r *http.Request) {
	body, rng, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if body.LocationName == "" {
		s.writeError(w, fmt.Errorf("%w: locationName is required", domain.ErrValidation))
		return
	}

	series, err := s.providers.Vegetation.FetchSeries(r.Context(), rng, domain.Geo{Lat: body.Lat, Lon: body.Lon}, body.LocationName)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data    []domain.NDVISample `json:"data"`
		TiffURL string              `json:"tiffUrl"`
	}{Data: series.Samples, TiffURL: series.RasterURL})
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	body, rng, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	radius := body.Radius
	if radius <= 0 {
		radius = s.radiusKm
	}

	years := eval.WindowYears(rng.End.Year())
	observed, err := s.providers.Observations.FetchObservations(
		r.Context(), domain.Geo{Lat: body.Lat, Lon: body.Lon}, radius, rng, years)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ranked := domain.AggregateObservations(observed, years)
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	writeJSON(w, http.StatusOK, struct {
		Success       bool                   `json:"success"`
		YearsAnalyzed []int                  `json:"yearsAnalyzed"`
		TopSpecies    []domain.SpeciesRecord `json:"topSpecies"`
	}{Success: true, YearsAnalyzed: years, TopSpecies: ranked})
}

func (s *Server) handleGlobe(w http.ResponseWriter, r *http.Request) {
	body, rng, err := decodeRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	radius := body.Radius
	if radius <= 0 {
		radius = 30
	}

	observed, err := s.providers.Globe.FetchObservations(r.Context(), rng, domain.Geo{Lat: body.Lat, Lon: body.Lon}, radius)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Data    any  `json:"data"`
	}{Success: true, Data: observed})
}

// decodeRequest parses the shared body shape and its date window.
func decodeRequest(r *http.Request) (apiRequest, domain.DateRange, error) {
	var body apiRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return apiRequest{}, domain.DateRange{}, fmt.Errorf("%w: malformed request body", domain.ErrValidation)
	}

	if body.StartDate == "" || body.EndDate == "" {
		return apiRequest{}, domain.DateRange{}, fmt.Errorf("%w: startDate and endDate are required", domain.ErrValidation)
	}
	start, err := time.Parse("2006-01-02", body.StartDate)
	if err != nil {
		return apiRequest{}, domain.DateRange{}, fmt.Errorf("%w: startDate must be YYYY-MM-DD", domain.ErrValidation)
	}
	end, err := time.Parse("2006-01-02", body.EndDate)
	if err != nil {
		return apiRequest{}, domain.DateRange{}, fmt.Errorf("%w: endDate must be YYYY-MM-DD", domain.ErrValidation)
	}

	return body, domain.DateRange{Start: start, End: end}, nil
}

// writeError maps the error taxonomy onto transport statuses. Provider error
// bodies never reach the response; sentinel messages are display-safe.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstreamAuth),
		errors.Is(err, domain.ErrUpstreamRequest),
		errors.Is(err, domain.ErrTaskFailed),
		errors.Is(err, domain.ErrTaskTimeout),
		errors.Is(err, domain.ErrDataFormat):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
