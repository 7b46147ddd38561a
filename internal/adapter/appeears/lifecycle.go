package appeears

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bloomwatch/bloom-eval-service/internal/domain"
)

// FetchSeries runs the full task lifecycle: submit, poll until a terminal
// status within the attempt budget, then download and parse the output
// bundle. The task id and bearer token live only for this call.
func (c *Client) FetchSeries(ctx context.Context, rng domain.DateRange, loc domain.Geo, locationName string) (domain.VegetationSeries, error) {
	start := c.clock.Now()

	t, err := c.submit(ctx, rng, loc, locationName)
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return domain.VegetationSeries{}, err
	}
	c.logger.Info("vegetation task submitted", "task_id", t.id, "location", locationName)

	if err := c.waitForCompletion(ctx, t); err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		return domain.VegetationSeries{}, err
	}

	series, err := c.download(ctx, t)
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerName, "error").Inc()
		c.logger.Error("vegetation bundle download failed", "task_id", t.id, "error", err)
		return domain.VegetationSeries{}, err
	}

	c.metrics.ProviderRequests.WithLabelValues(providerName, "success").Inc()
	c.metrics.VegetationTaskDuration.Observe(c.clock.Since(start).Seconds())
	c.logger.Info("vegetation task complete",
		"task_id", t.id,
		"samples", len(series.Samples),
		"has_raster", series.RasterURL != "",
	)
	return series, nil
}

// waitForCompletion polls the task status at a fixed interval until the task
// is done, fails, or the attempt budget runs out. Exhausting the budget is a
// timeout, never an implicit go-ahead to download partial data. The sleep is
// cancellable through ctx.
func (c *Client) waitForCompletion(ctx context.Context, t task) error {
	for attempt := 1; attempt <= c.maxPollAttempts; attempt++ {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return err
		}

		status, err := c.taskStatus(ctx, t)
		if err != nil {
			return err
		}
		c.logger.Debug("vegetation task polled", "task_id", t.id, "status", status, "attempt", attempt)

		switch status {
		case StatusDone:
			c.metrics.VegetationPollAttempts.Observe(float64(attempt))
			return nil
		case StatusError:
			return fmt.Errorf("%w: task %s reached error status", domain.ErrTaskFailed, t.id)
		case StatusPending, StatusProcessing:
			// keep polling
		default:
			return fmt.Errorf("%w: unknown task status %q", domain.ErrDataFormat, status)
		}
	}

	c.metrics.VegetationPollAttempts.Observe(float64(c.maxPollAttempts))
	return fmt.Errorf("%w: task %s not done after %d polls of %s",
		domain.ErrTaskTimeout, t.id, c.maxPollAttempts, c.pollInterval)
}

// sleep blocks for d on the injected clock, returning early if ctx is
// cancelled.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

// download lists the task's output bundle, parses the tabular file into the
// sample sequence, and picks the raster file's URL without fetching it.
func (c *Client) download(ctx context.Context, t task) (domain.VegetationSeries, error) {
	var bundle bundleResponse
	if err := c.getJSON(ctx, c.baseURL+"/bundle/"+t.id, t.token, &bundle); err != nil {
		return domain.VegetationSeries{}, fmt.Errorf("list bundle: %w", err)
	}

	csvFile, ok := findFile(bundle.Files, "csv", ".csv")
	if !ok {
		return domain.VegetationSeries{}, fmt.Errorf("%w: no tabular file in task bundle", domain.ErrDataFormat)
	}

	resp, err := c.get(ctx, c.bundleFileURL(t.id, csvFile.FileID), t.token)
	if err != nil {
		return domain.VegetationSeries{}, fmt.Errorf("download tabular file: %w", err)
	}
	defer resp.Body.Close()

	samples, err := parseSeriesCSV(resp.Body)
	if err != nil {
		return domain.VegetationSeries{}, err
	}

	series := domain.VegetationSeries{Samples: samples}
	if rasterFile, ok := findFile(bundle.Files, "geotiff", ".tif"); ok {
		series.RasterURL = c.bundleFileURL(t.id, rasterFile.FileID)
	}
	return series, nil
}

func (c *Client) bundleFileURL(taskID, fileID string) string {
	return c.baseURL + "/bundle/" + taskID + "/" + fileID
}

// findFile selects a bundle file by declared file type, falling back to a
// file-name suffix match for bundles that omit the type field.
func findFile(files []bundleFile, fileType, suffix string) (bundleFile, bool) {
	for _, f := range files {
		if f.FileType == fileType && f.FileID != "" {
			return f, true
		}
	}
	for _, f := range files {
		if strings.Contains(f.FileName, suffix) && f.FileID != "" {
			return f, true
		}
	}
	return bundleFile{}, false
}

type bundleResponse struct {
	Files []bundleFile `json:"files"`
}

type bundleFile struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
}
