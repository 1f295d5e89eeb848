// Package csvfile reads the partitioned crash CSV files from disk.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
)

var (
	// ErrPartitionMissing is returned when a partition file does not exist.
	ErrPartitionMissing = errors.New("partition missing")
	// ErrMissingColumn is returned when a header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
)

// ctxCheckInterval is how many rows are read between context checks.
const ctxCheckInterval = 1000

// Reader locates partitions as fmt.Sprintf(pattern, index) under dir, with
// 1-based indexes.
type Reader struct {
	dir     string
	pattern string
	count   int
}

// NewReader creates a reader for count partitions.
func NewReader(dir, pattern string, count int) *Reader {
	return &Reader{dir: dir, pattern: pattern, count: count}
}

// Partitions returns the fixed partition count.
func (r *Reader) Partitions() int { return r.count }

// Path returns the file path of a partition.
func (r *Reader) Path(index int) string {
	return filepath.Join(r.dir, fmt.Sprintf(r.pattern, index))
}

// ReadPartition parses one partition file into raw records.
func (r *Reader) ReadPartition(ctx context.Context, index int) ([]domain.RawRecord, error) {
	_, rows, err := r.ReadPartitionWithHeader(ctx, index)
	return rows, err
}

// ReadPartitionWithHeader is ReadPartition that also returns the header row.
func (r *Reader) ReadPartitionWithHeader(ctx context.Context, index int) ([]string, []domain.RawRecord, error) {
	if index < 1 || index > r.count {
		return nil, nil, fmt.Errorf("partition %d out of range 1..%d", index, r.count)
	}
	path := r.Path(index)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrPartitionMissing, path)
		}
		return nil, nil, fmt.Errorf("open partition %d: %w", index, err)
	}
	defer f.Close()

	header, rows, err := ReadRecords(ctx, f, index)
	if err != nil {
		return nil, nil, fmt.Errorf("read partition %s: %w", path, err)
	}
	return header, rows, nil
}

// ReadRecords parses CSV from rd. The first row is the header; every
// following row becomes a RawRecord keyed by header name. Short rows leave
// the trailing columns empty; a row with more fields than the header fails
// the whole read.
func ReadRecords(ctx context.Context, rd io.Reader, partition int) ([]string, []domain.RawRecord, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("empty file: no header row")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	header = normalizeHeader(header)
	if err := checkColumns(header); err != nil {
		return nil, nil, err
	}

	rows := make([]domain.RawRecord, 0)
	for {
		if len(rows)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if len(row) > len(header) {
			return nil, nil, fmt.Errorf("parse csv: line %d: %d fields, header has %d", line, len(row), len(header))
		}
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = row[j]
			} else {
				fields[h] = ""
			}
		}
		rows = append(rows, domain.RawRecord{Partition: partition, Line: line, Fields: fields})
	}
	return header, rows, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func checkColumns(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range domain.RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}
