// Package globe fetches citizen-science land-cover observations from the
// GLOBE Observer measurement API.
package globe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bloomwatch/bloom-eval-service/internal/domain"
	"github.com/bloomwatch/bloom-eval-service/internal/observability"
)

const providerName = "globe"

// Observation is one land-cover measurement with its usable photo URLs.
type Observation struct {
	ID        int64      `json:"id"`
	Date      string     `json:"date"`
	Location  domain.Geo `json:"location"`
	LandCover any        `json:"landCover"`
	Comments  string     `json:"comments"`
	PhotoURLs []string   `json:"photoUrls"`
}

// Client queries the GLOBE measurement search endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a GLOBE observation client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchObservations queries land-cover measurements inside the bounding box
// derived from the point and radius.
func (c *Client) FetchObservations(ctx context.Context, rng domain.DateRange, loc domain.Geo, radiusKm float64) ([]Observation, error) {
	bbox := domain.RadiusToBBox(loc.Lat, loc.Lon, radiusKm)

	params := url.Values{
		"protocols": {"land_covers"},
		"startdate": {domain.ISODate(rng.Start)},
		"enddate":   {domain.ISODate(rng.End)},
		"geojson":   {"TRUE"},
		"sample":    {"TRUE"},
		"bbox":      {fmt.Sprintf("%f,%f,%f,%f", bbox.MinLon, bbox.MinLat, bbox.MaxLon, bbox.MaxLat)},
	}

	start := time.Now()
	defer func() {
		c.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/measurement/protocol/measureddate/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/stream+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("%w: land-cover request: %v", domain.ErrUpstreamRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("%w: land-cover provider status %d", domain.ErrUpstreamRequest, resp.StatusCode)
	}

	var payload featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return nil, fmt.Errorf("%w: decode land-cover response: %v", domain.ErrDataFormat, err)
	}

	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	return mapFeatures(payload.Features), nil
}

func mapFeatures(features []feature) []Observation {
	out := make([]Observation, 0, len(features))
	for _, f := range features {
		obs := Observation{
			ID:        f.Properties.MeasurementID,
			Date:      f.Properties.MeasuredDate,
			LandCover: f.Properties.LandCoverClassifications,
			Comments:  f.Properties.Comments,
			PhotoURLs: collectPhotoURLs(f.Properties),
		}
		if obs.Comments == "" {
			obs.Comments = f.Properties.FieldNotes
		}
		if len(f.Geometry.Coordinates) == 2 {
			obs.Location = domain.Geo{Lat: f.Geometry.Coordinates[1], Lon: f.Geometry.Coordinates[0]}
		}
		out = append(out, obs)
	}
	return out
}

// collectPhotoURLs gathers the six directional photo fields, dropping empty
// entries and the provider's literal "null" placeholders.
func collectPhotoURLs(p properties) []string {
	candidates := []string{
		p.DownwardPhotoURL,
		p.EastPhotoURL,
		p.NorthPhotoURL,
		p.SouthPhotoURL,
		p.WestPhotoURL,
		p.UpwardPhotoURL,
	}
	urls := make([]string, 0, len(candidates))
	for _, u := range candidates {
		if u != "" && u != "null" {
			urls = append(urls, u)
		}
	}
	return urls
}

// GLOBE GeoJSON response types.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
	Properties properties `json:"properties"`
}

type properties struct {
	MeasurementID            int64  `json:"measurementId"`
	MeasuredDate             string `json:"measuredDate"`
	LandCoverClassifications any    `json:"landCoverClassifications"`
	Comments                 string `json:"comments"`
	FieldNotes               string `json:"landcoversFieldNotes"`
	DownwardPhotoURL         string `json:"landcoversDownwardPhotoUrl"`
	EastPhotoURL             string `json:"landcoversEastPhotoUrl"`
	NorthPhotoURL            string `json:"landcoversNorthPhotoUrl"`
	SouthPhotoURL            string `json:"landcoversSouthPhotoUrl"`
	WestPhotoURL             string `json:"landcoversWestPhotoUrl"`
	UpwardPhotoURL           string `json:"landcoversUpwardPhotoUrl"`
}
