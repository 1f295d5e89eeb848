package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/crash-data-dashboard/internal/config"
	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	loadedAt := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	rec := domain.NormalizeRecord(domain.CrashRecord{
		Partition:        3,
		Line:             17,
		CrashDateRaw:     "03/15/2023 02:30:00 PM",
		WeatherCondition: "RAIN",
		Damage:           "OVER $1,500",
	})

	msg, err := serializeToMessage(rec, loadedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("3-17"), msg.Key)
	assert.Contains(t, string(msg.Value), `"weather_condition":"RAIN"`)
	assert.Contains(t, string(msg.Value), `"damage_value":2000`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "damage_category", msg.Headers[0].Key)
	assert.Equal(t, []byte(domain.DamageBandVeryHigh), msg.Headers[0].Value)
	assert.Equal(t, "loaded_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(loadedAt.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.CrashRecord
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, 2000, decoded.DamageValue)
	require.NotNil(t, decoded.CrashHour)
	assert.Equal(t, 14, *decoded.CrashHour)
}

func TestPublishBatch_Empty(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaTopic: "t", BatchSize: 10}
	w := NewWriter(cfg, slog.Default())
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.PublishBatch(context.Background(), time.Now(), nil))
}

func TestNewWriter_FlushesPartialBatches(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaTopic: "t", BatchSize: 50}
	w := NewWriter(cfg, slog.Default())
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, 50, w.writer.BatchSize)
	assert.Equal(t, writeBatchTimeout, w.writer.BatchTimeout)
	assert.Less(t, w.writer.BatchTimeout, 100*time.Millisecond)
}
