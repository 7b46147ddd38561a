// Package kafka publishes completed bloom evaluations to a sink topic for
// downstream consumers. Publishing is optional and feature-flagged; it never
// affects the evaluation outcome.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/bloomwatch/bloom-eval-service/internal/config"
	"github.com/bloomwatch/bloom-eval-service/internal/domain"
	"github.com/bloomwatch/bloom-eval-service/internal/observability"
)

// Publisher produces bloom results to the configured results topic.
type Publisher struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the results topic.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// Publish serializes one bloom result and writes it keyed by location name.
func (p *Publisher) Publish(ctx context.Context, locationName string, result domain.BloomResult) error {
	msg, err := serializeToMessage(locationName, result)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish bloom result: %w", err)
	}
	p.metrics.ResultsPublished.Inc()
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a BloomResult into a Kafka message.
func serializeToMessage(locationName string, result domain.BloomResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize bloom result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(locationName),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "bloom_status", Value: []byte(result.BloomStatus)},
			{Key: "evaluated_at", Value: []byte(result.EvaluatedAt.Format(time.RFC3339))},
		},
	}, nil
}
