// Package inaturalist fetches raw species observations from the iNaturalist
// API, one query per analysis year.
package inaturalist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bloomwatch/bloom-eval-service/internal/domain"
	"github.com/bloomwatch/bloom-eval-service/internal/observability"
)

const providerName = "inaturalist"

// perPage is the provider's page-size cap for observation queries.
const perPage = 200

// Client queries the iNaturalist observations endpoint. No authentication is
// required for read access.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an iNaturalist observation client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchObservations queries the date window once per analysis year, with the
// window's year substituted for each target year, and concatenates the raw
// results. Any single failed year fails the whole fetch.
func (c *Client) FetchObservations(ctx context.Context, loc domain.Geo, radiusKm float64, rng domain.DateRange, years []int) ([]domain.Observation, error) {
	var all []domain.Observation
	for _, year := range years {
		obs, err := c.fetchYear(ctx, loc, radiusKm, rng, year)
		if err != nil {
			c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
			return nil, err
		}
		all = append(all, obs...)
	}
	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	return all, nil
}

func (c *Client) fetchYear(ctx context.Context, loc domain.Geo, radiusKm float64, rng domain.DateRange, year int) ([]domain.Observation, error) {
	params := url.Values{
		"lat":      {strconv.FormatFloat(loc.Lat, 'f', -1, 64)},
		"lng":      {strconv.FormatFloat(loc.Lon, 'f', -1, 64)},
		"radius":   {strconv.FormatFloat(radiusKm, 'f', -1, 64)},
		"d1":       {domain.ISODate(withYear(rng.Start, year))},
		"d2":       {domain.ISODate(withYear(rng.End, year))},
		"per_page": {strconv.Itoa(perPage)},
		"order":    {"desc"},
		"order_by": {"observed_on"},
	}

	start := time.Now()
	defer func() {
		c.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/observations?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: observation request for %d: %v", domain.ErrUpstreamRequest, year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("observation provider returned non-success status",
			"status", resp.StatusCode,
			"year", year,
			"body_length", len(body),
		)
		return nil, fmt.Errorf("%w: observation provider status %d for %d", domain.ErrUpstreamRequest, resp.StatusCode, year)
	}

	var page struct {
		Results []domain.Observation `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decode observation response: %v", domain.ErrDataFormat, err)
	}
	return page.Results, nil
}

// withYear moves a date into the target year, keeping month and day.
func withYear(t time.Time, year int) time.Time {
	return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
