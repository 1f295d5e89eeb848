// Command genmock writes a deterministic synthetic crash dataset for local
// runs and tests: partition CSVs in the portal export layout, demo classifier
// artifacts fitted to those rows, and a placeholder hotspot map.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -data-dir data -partitions 13 -rows 500 \
//	  -model-dir models -map-out chicago_map.html
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
	"github.com/couchcryptid/crash-data-dashboard/internal/model"
	"github.com/jonboulle/clockwork"
)

var (
	firstCrash = time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)
	lastCrash  = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
)

var (
	weathers    = []string{"CLEAR", "CLEAR", "CLEAR", "RAIN", "SNOW", "CLOUDY/OVERCAST", "FOG/SMOKE/HAZE", "UNKNOWN"}
	lightings   = []string{"DAYLIGHT", "DAYLIGHT", "DARKNESS, LIGHTED ROAD", "DARKNESS", "DUSK", "DAWN"}
	trafficways = []string{"NOT DIVIDED", "DIVIDED - W/MEDIAN (NOT RAISED)", "ONE-WAY", "PARKING LOT", "FOUR WAY"}
	surfaces    = []string{"DRY", "DRY", "WET", "SNOW OR SLUSH", "ICE", "UNKNOWN"}
	defects     = []string{"NO DEFECTS", "NO DEFECTS", "NO DEFECTS", "RUT, HOLES", "WORN SURFACE", "UNKNOWN"}
	crashTypes  = []string{"REAR END", "TURNING", "ANGLE", "PARKED MOTOR VEHICLE", "SIDESWIPE SAME DIRECTION", "PEDESTRIAN"}
	speeds      = []int{15, 20, 25, 30, 30, 30, 35, 40, 45, 55}
	damages     = []string{"$500 OR LESS", "$501 - $1,000", "OVER $1,500", "OVER $1,500", "$1,001 - $1,500", "$900", ""}
)

var header = append(slices.Clone(domain.RequiredColumns), domain.ColFirstCrashType, domain.ColNumUnits)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataDir := flag.String("data-dir", "data", "output directory for partition CSVs")
	pattern := flag.String("pattern", "crash_data_%d.csv", "partition file name pattern with one %d")
	partitions := flag.Int("partitions", 13, "number of partitions")
	rows := flag.Int("rows", 500, "rows per partition")
	modelDir := flag.String("model-dir", "models", "output directory for classifier artifacts")
	mapOut := flag.String("map-out", "chicago_map.html", "output path for the placeholder map")
	seed := flag.Uint64("seed", 2024, "random seed")
	flag.Parse()

	if *partitions < 1 || *rows < 1 || strings.Count(*pattern, "%d") != 1 {
		flag.Usage()
		return fmt.Errorf("invalid flags")
	}

	// Fixed clock so the printed load timestamp is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.January, 2, 6, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(*seed, *seed))
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		return err
	}

	var records []domain.CrashRecord
	for p := 1; p <= *partitions; p++ {
		raws := make([]domain.RawRecord, 0, *rows)
		for line := 2; line < *rows+2; line++ {
			raws = append(raws, domain.RawRecord{Partition: p, Line: line, Fields: generateRow(rng)})
		}
		path := filepath.Join(*dataDir, fmt.Sprintf(*pattern, p))
		if err := writePartition(path, raws); err != nil {
			return fmt.Errorf("writing partition %d: %w", p, err)
		}
		for _, raw := range raws {
			records = append(records, domain.NormalizeRecord(domain.ParseRawRecord(raw)))
		}
		log.Printf("partition %d: %d rows -> %s", p, len(raws), path)
	}

	for _, a := range []model.Artifact{riskArtifact(records), damageArtifact(records)} {
		path := filepath.Join(*modelDir, a.Name+".json")
		if err := writeJSON(path, a); err != nil {
			return fmt.Errorf("writing model %s: %w", a.Name, err)
		}
		log.Printf("wrote model: %s", path)
	}

	if err := writeMap(*mapOut, records); err != nil {
		return fmt.Errorf("writing map: %w", err)
	}
	log.Printf("wrote map: %s", *mapOut)

	printStats(domain.NewDataset(records, *partitions))
	return nil
}

// generateRow draws one crash. Injuries grow with speed and darkness so the
// fitted demo models have signal to find.
func generateRow(rng *rand.Rand) map[string]string {
	at := firstCrash.Add(time.Duration(rng.Int64N(int64(lastCrash.Sub(firstCrash)))))
	at = at.Truncate(time.Minute)
	speed := pick(rng, speeds)
	lighting := pick(rng, lightings)

	risk := float64(speed)/55 + 0.3*boolFloat(strings.Contains(lighting, "DARK"))
	injuries := 0
	for i := 0; i < 3; i++ {
		if rng.Float64() < risk/3 {
			injuries++
		}
	}

	fields := map[string]string{
		domain.ColCrashDate:        at.Format("01/02/2006 03:04:05 PM"),
		domain.ColPostedSpeedLimit: strconv.Itoa(speed),
		domain.ColWeather:          pick(rng, weathers),
		domain.ColLighting:         lighting,
		domain.ColTrafficway:       pick(rng, trafficways),
		domain.ColSurface:          pick(rng, surfaces),
		domain.ColRoadDefect:       pick(rng, defects),
		domain.ColInjuriesTotal:    strconv.Itoa(injuries),
		domain.ColDamage:           pick(rng, damages),
		domain.ColFirstCrashType:   pick(rng, crashTypes),
		domain.ColNumUnits:         strconv.Itoa(1 + rng.IntN(3)),
	}
	// A few rows carry export glitches the normalizer must tolerate.
	switch rng.IntN(200) {
	case 0:
		fields[domain.ColInjuriesTotal] = ""
	case 1:
		fields[domain.ColCrashDate] = "N/A"
	case 2:
		fields[domain.ColDamage] = "UNKNOWN"
	}
	return fields
}

func pick[T any](rng *rand.Rand, vals []T) T {
	return vals[rng.IntN(len(vals))]
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func writePartition(path string, raws []domain.RawRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, raw := range raws {
		for i, col := range header {
			row[i] = raw.Fields[col]
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(ds *domain.Dataset) {
	overview := domain.Summarize(ds.Records)
	view := domain.FilterRecords(ds.Records, domain.FilterParams{
		Start:    time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Weather:  domain.WeatherAll,
		Severity: domain.SeverityAll,
	})

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Loaded at: %s\n", ds.LoadedAt.Format(time.RFC3339))
	fmt.Printf("Total: %d (default view: %d)\n", overview.TotalCrashes, len(view))
	fmt.Printf("Injuries: %d (none=%d, some=%d)\n",
		overview.TotalInjuries, overview.Injuries.NoInjuries, overview.Injuries.WithInjuries)
	fmt.Printf("Total damage: $%d\n", overview.TotalDamage)
	for _, c := range overview.DamageByCategory {
		fmt.Printf("  %-16s $%d\n", c.Category, c.Total)
	}
	fmt.Printf("Weather values: %s\n", strings.Join(ds.WeatherConditions, ", "))
}
