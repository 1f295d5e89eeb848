package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// crashDateLayouts are tried in order. Portal exports use the first layout.
var crashDateLayouts = []string{
	"01/02/2006 03:04:05 PM",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ParseRawRecord lifts the columns the dashboard uses out of a raw CSV row.
// Numeric columns that are empty or unparsable stay nil.
func ParseRawRecord(raw RawRecord) CrashRecord {
	f := raw.Fields
	return CrashRecord{
		Partition:          raw.Partition,
		Line:               raw.Line,
		CrashDateRaw:       strings.TrimSpace(f[ColCrashDate]),
		PostedSpeedLimit:   parseOptionalInt(f[ColPostedSpeedLimit]),
		WeatherCondition:   strings.TrimSpace(f[ColWeather]),
		LightingCondition:  strings.TrimSpace(f[ColLighting]),
		TrafficwayType:     strings.TrimSpace(f[ColTrafficway]),
		RoadwaySurfaceCond: strings.TrimSpace(f[ColSurface]),
		RoadDefect:         strings.TrimSpace(f[ColRoadDefect]),
		InjuriesTotal:      parseOptionalInt(f[ColInjuriesTotal]),
		Damage:             f[ColDamage],
		FirstCrashType:     strings.TrimSpace(f[ColFirstCrashType]),
		NumUnits:           parseOptionalInt(f[ColNumUnits]),
		Fields:             f,
	}
}

// NormalizeRecord computes the derived damage and date fields from the raw
// ones. It only reads raw fields, so applying it twice gives the same record.
func NormalizeRecord(rec CrashRecord) CrashRecord {
	rec.DamageValue = ExtractDamageValue(rec.Damage)
	rec.DamageCategory = CategorizeDamage(rec.DamageValue)

	rec.CrashDate, rec.CrashMonth, rec.CrashHour, rec.CrashYear = nil, nil, nil, 0
	if t, ok := ParseCrashDate(rec.CrashDateRaw); ok {
		month := int(t.Month())
		hour := t.Hour()
		rec.CrashDate = &t
		rec.CrashMonth = &month
		rec.CrashHour = &hour
		rec.CrashYear = t.Year()
	}
	return rec
}

// NormalizeRecords returns a new slice with every record normalized. The
// input slice is not modified.
func NormalizeRecords(records []CrashRecord) []CrashRecord {
	out := make([]CrashRecord, len(records))
	for i := range records {
		out[i] = NormalizeRecord(records[i])
	}
	return out
}

// ParseCrashDate parses a crash date in any of the known export layouts.
// Zone-less layouts are read as UTC wall-clock time.
func ParseCrashDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range crashDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseOptionalInt parses integer columns, accepting "3.0" style floats
// that pandas writes for columns containing blanks.
func parseOptionalInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return nil
	}
	v := int(f)
	return &v
}
