// Package power fetches daily climate series from the NASA POWER point API.
package power

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

const providerName = "power"

// Client queries the POWER temporal daily point endpoint. POWER requires no
// authentication.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a POWER climate client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchDailySeries retrieves the four measurement channels for one point and
// date window. The provider marks missing days with the -999 sentinel, which
// is preserved here and filtered during aggregation.
func (c *Client) FetchDailySeries(ctx context.Context, rng domain.DateRange, loc domain.Geo) (domain.ClimateSeries, error) {
	params := url.Values{
		"parameters": {"T2M,T2M_MAX,T2M_MIN,PRECTOTCORR"},
		"community":  {"AG"},
		"longitude":  {strconv.FormatFloat(loc.Lon, 'f', -1, 64)},
		"latitude":   {strconv.FormatFloat(loc.Lat, 'f', -1, 64)},
		"start":      {domain.CompactDate(rng.Start)},
		"end":        {domain.CompactDate(rng.End)},
		"format":     {"JSON"},
	}

	start := time.Now()
	series, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode(), rng, loc)
	c.metrics.ProviderDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return domain.ClimateSeries{}, err
	}
	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	return series, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, rng domain.DateRange, loc domain.Geo) (domain.ClimateSeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.ClimateSeries{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ClimateSeries{}, fmt.Errorf("%w: climate request: %v", domain.ErrUpstreamRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("climate provider returned non-success status",
			"status", resp.StatusCode,
			"body_length", len(body),
		)
		return domain.ClimateSeries{}, fmt.Errorf("%w: climate provider status %d", domain.ErrUpstreamRequest, resp.StatusCode)
	}

	var powerResp response
	if err := json.NewDecoder(resp.Body).Decode(&powerResp); err != nil {
		return domain.ClimateSeries{}, fmt.Errorf("%w: decode climate response: %v", domain.ErrDataFormat, err)
	}

	p := powerResp.Properties.Parameter
	if p.T2M == nil || p.Precipitation == nil {
		return domain.ClimateSeries{}, fmt.Errorf("%w: climate response missing measurement channels", domain.ErrDataFormat)
	}

	return domain.ClimateSeries{
		Location:       loc,
		Range:          rng,
		Temperature:    p.T2M,
		TemperatureMax: p.T2MMax,
		TemperatureMin: p.T2MMin,
		Precipitation:  p.Precipitation,
	}, nil
}

// POWER API response types.

type response struct {
	Properties struct {
		Parameter parameter `json:"parameter"`
	} `json:"properties"`
}

type parameter struct {
	T2M           map[string]float64 `json:"T2M"`
	T2MMax        map[string]float64 `json:"T2M_MAX"`
	T2MMin        map[string]float64 `json:"T2M_MIN"`
	Precipitation map[string]float64 `json:"PRECTOTCORR"`
}
