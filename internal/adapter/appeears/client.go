// Package appeears drives the AppEEARS asynchronous batch-processing API:
// credential exchange, point-task submission, bounded status polling, and
// output-bundle download. One task lifecycle is strictly sequential — each
// step needs the previous step's task id, token, or terminal status — and its
// bearer token and task id are scoped to a single evaluation.
package appeears

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bloomwatch/bloom-eval-service/internal/domain"
	"github.com/bloomwatch/bloom-eval-service/internal/observability"
)

const providerName = "appeears"

// MOD13Q1 v6.1 point-task parameters. Both vegetation layers are requested,
// in tabular form for the trend analysis and raster form for client-side
// rendering.
const (
	product   = "MOD13Q1.061"
	ndviLayer = "_250m_16_days_NDVI"
	eviLayer  = "_250m_16_days_EVI"
)

// TaskStatus is the provider's task state enum.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusDone       TaskStatus = "done"
	StatusError      TaskStatus = "error"
)

// Client runs vegetation task lifecycles against AppEEARS.
type Client struct {
	username        string
	password        string
	baseURL         string
	httpClient      *http.Client
	clock           clockwork.Clock
	pollInterval    time.Duration
	maxPollAttempts int
	metrics         *observability.Metrics
	logger          *slog.Logger
}

// Options bundles the lifecycle tuning knobs.
type Options struct {
	Username        string
	Password        string
	BaseURL         string
	Timeout         time.Duration
	PollInterval    time.Duration
	MaxPollAttempts int
}

// NewClient creates an AppEEARS client using the real clock. Tests swap the
// clock via SetClock to simulate the polling interval without real delay.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		username:        opts.Username,
		password:        opts.Password,
		baseURL:         opts.BaseURL,
		httpClient:      &http.Client{Timeout: opts.Timeout},
		clock:           clockwork.NewRealClock(),
		pollInterval:    opts.PollInterval,
		maxPollAttempts: opts.MaxPollAttempts,
		metrics:         metrics,
		logger:          logger,
	}
}

// SetClock swaps the polling time source. Pass nil to reset to real time.
func (c *Client) SetClock(clock clockwork.Clock) {
	if clock == nil {
		c.clock = clockwork.NewRealClock()
		return
	}
	c.clock = clock
}

// task carries the per-evaluation lifecycle state. Discarded after download
// or terminal failure; nothing is shared across evaluations.
type task struct {
	id    string
	token string
}

// login exchanges the Earthdata credentials for a bearer token.
func (c *Client) login(ctx context.Context) (string, error) {
	if c.username == "" || c.password == "" {
		return "", fmt.Errorf("%w: earthdata credentials are not configured", domain.ErrUpstreamAuth)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", nil)
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: login request: %v", domain.ErrUpstreamAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: login rejected with status %d", domain.ErrUpstreamAuth, resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode login response: %v", domain.ErrDataFormat, err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("%w: login response carried no token", domain.ErrUpstreamAuth)
	}
	return body.Token, nil
}

// submit authenticates and posts a point task for both vegetation layers.
func (c *Client) submit(ctx context.Context, rng domain.DateRange, loc domain.Geo, locationName string) (task, error) {
	token, err := c.login(ctx)
	if err != nil {
		return task{}, err
	}

	reqBody := taskRequest{
		TaskType: "point",
		TaskName: fmt.Sprintf("bloom_%s_%d", locationName, c.clock.Now().UnixMilli()),
		Params: taskParams{
			Dates: []taskDates{{
				StartDate: domain.MDYDate(rng.Start),
				EndDate:   domain.MDYDate(rng.End),
			}},
			Layers: []taskLayer{
				{Product: product, Layer: ndviLayer},
				{Product: product, Layer: eviLayer},
			},
			Coordinates: []taskCoordinate{{
				ID:        locationName,
				Latitude:  loc.Lat,
				Longitude: loc.Lon,
				Category:  "bloom_location",
			}},
			Outputs: []taskOutput{
				{FileType: "csv", ProjectionName: "geographic"},
				{FileType: "geotiff", ProjectionName: "geographic"},
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return task{}, fmt.Errorf("marshal task request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/task", bytes.NewReader(payload))
	if err != nil {
		return task{}, fmt.Errorf("create task request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return task{}, fmt.Errorf("%w: task submission: %v", domain.ErrUpstreamRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("vegetation task submission rejected",
			"status", resp.StatusCode,
			"body_length", len(body),
		)
		return task{}, fmt.Errorf("%w: task submission status %d", domain.ErrUpstreamRequest, resp.StatusCode)
	}

	var body struct {
		TaskID string `json:"task_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return task{}, fmt.Errorf("%w: decode task response: %v", domain.ErrDataFormat, err)
	}
	if body.TaskID == "" {
		return task{}, fmt.Errorf("%w: task response carried no task id", domain.ErrDataFormat)
	}

	return task{id: body.TaskID, token: token}, nil
}

// taskStatus queries the provider for the task's current state.
func (c *Client) taskStatus(ctx context.Context, t task) (TaskStatus, error) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/task/"+t.id, t.token, &body); err != nil {
		return "", fmt.Errorf("check task status: %w", err)
	}
	return TaskStatus(body.Status), nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, fullURL, token string, out any) error {
	resp, err := c.get(ctx, fullURL, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrDataFormat, err)
	}
	return nil
}

// get performs an authenticated GET, treating any non-200 as an upstream
// failure. The caller owns the response body.
func (c *Client) get(ctx context.Context, fullURL, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRequest, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamRequest, resp.StatusCode)
	}
	return resp, nil
}

// AppEEARS task request types.

type taskRequest struct {
	TaskType string     `json:"task_type"`
	TaskName string     `json:"task_name"`
	Params   taskParams `json:"params"`
}

type taskParams struct {
	Dates       []taskDates      `json:"dates"`
	Layers      []taskLayer      `json:"layers"`
	Coordinates []taskCoordinate `json:"coordinates"`
	Outputs     []taskOutput     `json:"outputs"`
}

type taskDates struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type taskLayer struct {
	Product string `json:"product"`
	Layer   string `json:"layer"`
}

type taskCoordinate struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Category  string  `json:"category"`
}

type taskOutput struct {
	FileType       string `json:"file_type"`
	ProjectionName string `json:"projection_name"`
}
