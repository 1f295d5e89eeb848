package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
	"github.com/couchcryptid/crash-data-dashboard/internal/observability"
)

// PartitionReader reads the raw rows of one partition. Indexes are 1-based.
type PartitionReader interface {
	Partitions() int
	ReadPartition(ctx context.Context, index int) ([]domain.RawRecord, error)
}

// ProgressFunc receives (loaded, total) partition counts. Calls are
// serialized and loaded never decreases.
type ProgressFunc func(loaded, total int)

// Loader builds the normalized dataset from all partitions.
type Loader struct {
	reader  PartitionReader
	workers int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader parsing up to workers partitions at once.
func NewLoader(reader PartitionReader, workers int, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if workers < 1 {
		workers = 1
	}
	return &Loader{reader: reader, workers: workers, logger: logger, metrics: metrics}
}

// partitionStats counts recovered conditions seen while normalizing.
type partitionStats struct {
	dateFailures  int
	damageCoerced int
}

// Load reads every partition, normalizes the rows and concatenates them in
// partition index order. Any partition failure fails the whole load.
func (l *Loader) Load(ctx context.Context, progress ProgressFunc) (*domain.Dataset, error) {
	start := time.Now()
	total := l.reader.Partitions()
	if progress == nil {
		progress = func(int, int) {}
	}
	progress(0, total)

	parts := make([][]domain.CrashRecord, total)
	stats := make([]partitionStats, total)

	var mu sync.Mutex
	loaded := 0

	pool := pond.NewPool(l.workers)
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i := 1; i <= total; i++ {
		index := i
		group.SubmitErr(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			rows, err := l.reader.ReadPartition(groupCtx, index)
			if err != nil {
				return fmt.Errorf("load partition %d: %w", index, err)
			}
			parts[index-1], stats[index-1] = normalizePartition(rows)
			l.metrics.PartitionsLoaded.Inc()

			mu.Lock()
			loaded++
			progress(loaded, total)
			mu.Unlock()

			l.logger.Debug("partition loaded", "partition", index, "records", len(rows))
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		l.metrics.LoadErrors.Inc()
		return nil, err
	}

	size := 0
	for _, p := range parts {
		size += len(p)
	}
	records := make([]domain.CrashRecord, 0, size)
	var totals partitionStats
	for i, p := range parts {
		records = append(records, p...)
		totals.dateFailures += stats[i].dateFailures
		totals.damageCoerced += stats[i].damageCoerced
	}

	ds := domain.NewDataset(records, total)

	l.metrics.RecordsLoaded.Add(float64(len(records)))
	l.metrics.DateParseFailures.Add(float64(totals.dateFailures))
	l.metrics.DamageCoercedZero.Add(float64(totals.damageCoerced))
	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())

	l.logger.Info("dataset loaded",
		"partitions", total,
		"records", len(records),
		"date_parse_failures", totals.dateFailures,
		"damage_coerced_zero", totals.damageCoerced,
		"duration", time.Since(start),
	)
	return ds, nil
}

func normalizePartition(rows []domain.RawRecord) ([]domain.CrashRecord, partitionStats) {
	out := make([]domain.CrashRecord, len(rows))
	var st partitionStats
	for i := range rows {
		rec := domain.NormalizeRecord(domain.ParseRawRecord(rows[i]))
		if rec.CrashDate == nil {
			st.dateFailures++
		}
		if rec.DamageValue == 0 && domain.DetectDamageFormat(rec.Damage) != domain.DamageMissing {
			st.damageCoerced++
		}
		out[i] = rec
	}
	return out, st
}
