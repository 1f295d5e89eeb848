package pipeline

import (
	"context"
	"time"

	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// Publisher writes normalized records to a downstream sink.
type Publisher interface {
	PublishBatch(ctx context.Context, loadedAt time.Time, records []domain.CrashRecord) error
}

const (
	publishAttempts   = 3
	initialBackoff    = 200 * time.Millisecond
	maxPublishBackoff = 5 * time.Second
)

// publish sends records in batches, retrying each batch with exponential
// backoff. A batch that still fails is dropped and counted.
func (s *Service) publish(ctx context.Context, ds *domain.Dataset) {
	records := ds.Records
	size := s.batchSize
	if size < 1 {
		size = len(records)
	}
	sent, failed := 0, 0
	for start := 0; start < len(records); start += size {
		if ctx.Err() != nil {
			break
		}
		end := min(start+size, len(records))
		batch := records[start:end]
		if s.publishBatch(ctx, ds.LoadedAt, batch) {
			sent += len(batch)
			s.metrics.RecordsPublished.Add(float64(len(batch)))
		} else {
			failed += len(batch)
			s.metrics.PublishErrors.Inc()
		}
	}
	s.logger.Info("records published", "published", sent, "failed", failed)
}

func (s *Service) publishBatch(ctx context.Context, loadedAt time.Time, batch []domain.CrashRecord) bool {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := s.publisher.PublishBatch(ctx, loadedAt, batch)
		if err == nil {
			return true
		}
		s.logger.Warn("publish batch failed", "error", err, "attempt", attempt, "batch_size", len(batch))
		if attempt == publishAttempts || !retry.SleepWithContext(ctx, backoff) {
			return false
		}
		backoff = retry.NextBackoff(backoff, maxPublishBackoff)
	}
}
