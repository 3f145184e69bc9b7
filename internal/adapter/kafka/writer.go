package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-anomaly/internal/config"
	"github.com/couchcryptid/climate-anomaly/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes reports to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes report and writes it keyed by its ID. The ID is stable
// per series and observation date. It returns the post ID.
func (w *Writer) Publish(ctx context.Context, report domain.Report) (string, error) {
	msg, err := serializeToMessage(report)
	if err != nil {
		return "", err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return "", fmt.Errorf("publish report %s: %w", report.ID, err)
	}
	w.logger.Debug("report published", "id", report.ID, "source", report.Series.ID)
	return report.ID, nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Report into a Kafka message.
func serializeToMessage(report domain.Report) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "series_id", Value: []byte(report.Series.ID)},
			{Key: "observation_date", Value: []byte(report.Result.Date.Format(time.DateOnly))},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
