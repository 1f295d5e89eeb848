// Command validate checks a directory of crash partitions before the
// dashboard is pointed at it. It verifies every partition exists and shares
// one header, that required columns are present, and that dates and damage
// values normalize cleanly.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data -partitions 13
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/couchcryptid/crash-data-dashboard/internal/adapter/csvfile"
	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
)

// maxListedErrors caps the per-phase detail printed for large datasets.
const maxListedErrors = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// partition is one loaded partition file.
type partition struct {
	index  int
	path   string
	header []string
	rows   []domain.RawRecord
}

func main() {
	dataDir := flag.String("data-dir", "data", "directory containing partition CSV files")
	pattern := flag.String("pattern", "crash_data_%d.csv", "partition file name pattern with one %d")
	count := flag.Int("partitions", 13, "number of partitions")
	maxBad := flag.Float64("max-bad", 0.01, "tolerated fraction of rows with unparsable dates or damage")
	flag.Parse()

	if *count < 1 || strings.Count(*pattern, "%d") != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataDir, *pattern, *count, *maxBad); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, pattern string, count int, maxBad float64) int {
	fmt.Println("=== Crash Partition Validation ===")
	fmt.Println()

	reader := csvfile.NewReader(dataDir, pattern, count)
	parts, load := loadPartitions(context.Background(), reader)

	phases := []*phase{
		load,
		validateSchema(parts),
		validateDates(parts, maxBad),
		validateDamage(parts, maxBad),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d across %d of %d partitions\n", countRows(parts), len(parts), count)
	printDamageMix(parts)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxListedErrors {
				fmt.Printf("  ... %d more\n", len(p.errors)-maxListedErrors)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Partition presence ──

func loadPartitions(ctx context.Context, r *csvfile.Reader) ([]partition, *phase) {
	p := &phase{name: "Phase 1: Partition Presence"}
	parts := make([]partition, 0, r.Partitions())
	for i := 1; i <= r.Partitions(); i++ {
		header, rows, err := r.ReadPartitionWithHeader(ctx, i)
		if err != nil {
			p.errorf("partition %d: %v", i, err)
			continue
		}
		if len(rows) == 0 {
			p.errorf("partition %d (%s): no data rows", i, r.Path(i))
		}
		parts = append(parts, partition{index: i, path: r.Path(i), header: header, rows: rows})
	}
	return parts, p
}

func countRows(parts []partition) int {
	n := 0
	for _, part := range parts {
		n += len(part.rows)
	}
	return n
}

// ── Phase 2: Schema parity ──
// Every partition must carry the same header as the first one.

func validateSchema(parts []partition) *phase {
	p := &phase{name: "Phase 2: Schema Parity"}
	if len(parts) == 0 {
		p.errorf("no partitions loaded")
		return p
	}
	first := parts[0]
	for _, part := range parts {
		for _, col := range domain.RequiredColumns {
			if !slices.Contains(part.header, col) {
				p.errorf("partition %d: missing required column %s", part.index, col)
			}
		}
		if part.index == first.index {
			continue
		}
		if !slices.Equal(part.header, first.header) {
			p.errorf("partition %d: header differs from partition %d (%d vs %d columns)",
				part.index, first.index, len(part.header), len(first.header))
		}
	}
	return p
}

// ── Phase 3: Crash dates ──

func validateDates(parts []partition, maxBad float64) *phase {
	p := &phase{name: "Phase 3: Crash Dates"}
	total, bad := 0, 0
	for _, part := range parts {
		for _, row := range part.rows {
			total++
			raw := row.Fields[domain.ColCrashDate]
			if _, ok := domain.ParseCrashDate(raw); !ok {
				bad++
				p.errorf("partition %d line %d: unparsable %s %q", part.index, row.Line, domain.ColCrashDate, raw)
			}
		}
	}
	return tolerate(p, bad, total, maxBad)
}

// ── Phase 4: Damage values ──
// A non-empty damage value that extracts to zero was coerced.

func validateDamage(parts []partition, maxBad float64) *phase {
	p := &phase{name: "Phase 4: Damage Values"}
	total, bad := 0, 0
	for _, part := range parts {
		for _, row := range part.rows {
			total++
			raw := row.Fields[domain.ColDamage]
			if domain.DetectDamageFormat(raw) == domain.DamageMissing {
				continue
			}
			rec := domain.NormalizeRecord(domain.ParseRawRecord(row))
			if rec.DamageValue == 0 {
				bad++
				p.errorf("partition %d line %d: damage %q coerced to 0", part.index, row.Line, raw)
			}
			if !slices.Contains(domain.DamageBands, rec.DamageCategory) {
				p.errorf("partition %d line %d: damage category %q out of bands", part.index, row.Line, rec.DamageCategory)
			}
		}
	}
	return tolerate(p, bad, total, maxBad)
}

// tolerate clears a phase whose failures stay within the bad-row budget.
func tolerate(p *phase, bad, total int, maxBad float64) *phase {
	if total == 0 || bad == 0 {
		return p
	}
	frac := float64(bad) / float64(total)
	fmt.Printf("  Note: %s: %d of %d rows failed (%.2f%%)\n", p.name, bad, total, frac*100)
	if frac <= maxBad && len(p.errors) == bad {
		p.errors = nil
	}
	return p
}

func printDamageMix(parts []partition) {
	mix := map[domain.DamageFormat]int{}
	for _, part := range parts {
		for _, row := range part.rows {
			mix[domain.DetectDamageFormat(row.Fields[domain.ColDamage])]++
		}
	}
	formats := []domain.DamageFormat{domain.DamageMissing, domain.DamageOver, domain.DamageOrLess, domain.DamageRange, domain.DamageAmount}
	fields := make([]string, 0, len(formats))
	for _, f := range formats {
		fields = append(fields, fmt.Sprintf("%s=%d", f, mix[f]))
	}
	fmt.Printf("Damage formats: %s\n", strings.Join(fields, " "))
}
