// Package kafka publishes normalized crash records to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/crash-data-dashboard/internal/config"
	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// writeBatchTimeout flushes partially filled per-partition batches. The
// hash balancer spreads a batch over partitions, so most never fill.
const writeBatchTimeout = 10 * time.Millisecond

// Writer produces messages to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: writeBatchTimeout,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes records in a single WriteMessages
// call. loadedAt is the dataset load time stamped on every message.
func (w *Writer) PublishBatch(ctx context.Context, loadedAt time.Time, records []domain.CrashRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], loadedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write crash records: %w", err)
	}
	w.logger.Debug("crash records written", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// messageKey identifies a record by its source position.
func messageKey(rec domain.CrashRecord) string {
	return strconv.Itoa(rec.Partition) + "-" + strconv.Itoa(rec.Line)
}

// serializeToMessage marshals a CrashRecord into a Kafka message.
func serializeToMessage(rec domain.CrashRecord, loadedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize crash record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(rec)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "damage_category", Value: []byte(rec.DamageCategory)},
			{Key: "loaded_at", Value: []byte(loadedAt.Format(time.RFC3339))},
		},
	}, nil
}
