// Package gemini resolves natural-language species descriptions through the
// Gemini generative model. The lookup is presentation enrichment: it degrades
// to a fixed fallback string and never fails an evaluation.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Fallback strings returned instead of an error.
const (
	NoDetails    = "No details available."
	FetchFailure = "Error fetching species details."
)

// Client wraps a Gemini generative model for description lookups.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

// NewClient creates a Gemini descriptive-text client.
func NewClient(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init: %w", err)
	}
	return &Client{
		client: client,
		model:  client.GenerativeModel(modelName),
		logger: logger,
	}, nil
}

// Close releases the underlying API connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// DescribeSpecies returns a short natural-language description for a species
// common name. Best-effort: transport or model failures yield a fixed string.
func (c *Client) DescribeSpecies(ctx context.Context, commonName string) string {
	prompt := fmt.Sprintf(
		"Give me a detailed description of the species %q including habitat, flowering season, and significance, in about 150 words.",
		commonName,
	)
	return c.generate(ctx, prompt)
}

// DescribeLocation returns a description of the most famous flowering plant
// for bare coordinates, used when no observed species qualified.
func (c *Client) DescribeLocation(ctx context.Context, lat, lon float64) string {
	prompt := fmt.Sprintf(
		"Given the latitude %v and longitude %v, tell me the most famous flowering plant or flower that blooms there, "+
			"and give a detailed description including habitat, flowering season, and significance, in about 150 words.",
		lat, lon,
	)
	return c.generate(ctx, prompt)
}

func (c *Client) generate(ctx context.Context, prompt string) string {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Warn("description lookup failed", "error", err)
		return FetchFailure
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return NoDetails
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok || strings.TrimSpace(string(text)) == "" {
		return NoDetails
	}
	return strings.TrimSpace(string(text))
}
