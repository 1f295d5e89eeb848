package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// WeatherAll disables the weather predicate.
const WeatherAll = "All"

// Severity selects crashes by INJURIES_TOTAL.
type Severity string

const (
	SeverityAll      Severity = "All"
	SeverityMinor    Severity = "Minor"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

// moderateMaxInjuries is the inclusive upper bound for SeverityModerate.
const moderateMaxInjuries = 3

// ErrInvalidSeverity is returned by ParseSeverity for unknown selector values.
var ErrInvalidSeverity = errors.New("invalid severity")

// Severities lists the selector values in display order.
var Severities = []Severity{SeverityAll, SeverityMinor, SeverityModerate, SeveritySevere}

// ParseSeverity validates a severity selector. Empty input means SeverityAll.
func ParseSeverity(s string) (Severity, error) {
	if s == "" {
		return SeverityAll, nil
	}
	if slices.Contains(Severities, Severity(s)) {
		return Severity(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
}

// Matches reports whether a crash with the given injury count satisfies the
// selector. A nil count only matches SeverityAll.
func (s Severity) Matches(injuries *int) bool {
	if s == SeverityAll || s == "" {
		return true
	}
	if injuries == nil {
		return false
	}
	n := *injuries
	switch s {
	case SeverityMinor:
		return n == 0
	case SeverityModerate:
		return n > 0 && n <= moderateMaxInjuries
	case SeveritySevere:
		return n > 0
	default:
		return false
	}
}

// FilterParams is one filter-input tuple. Start and End are inclusive.
type FilterParams struct {
	Start    time.Time
	End      time.Time
	Weather  string
	Severity Severity
}

// Key identifies the tuple for caching.
func (p FilterParams) Key() string {
	return fmt.Sprintf("%d|%d|%s|%s", p.Start.UnixNano(), p.End.UnixNano(), p.Weather, p.Severity)
}

// FilterRecords returns the records matching every active predicate. Records
// without a parsed crash date never match. The input slice is not modified and
// the result is a new slice, empty when nothing matches.
func FilterRecords(records []CrashRecord, p FilterParams) []CrashRecord {
	out := make([]CrashRecord, 0)
	for i := range records {
		rec := &records[i]
		if rec.CrashDate == nil || rec.CrashDate.Before(p.Start) || rec.CrashDate.After(p.End) {
			continue
		}
		if p.Weather != WeatherAll && p.Weather != "" && rec.WeatherCondition != p.Weather {
			continue
		}
		if !p.Severity.Matches(rec.InjuriesTotal) {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

// RoadFilter is a multi-select over road attributes. An empty list disables
// that predicate.
type RoadFilter struct {
	Trafficway []string
	Surface    []string
	Defect     []string
}

// FilterRoads narrows records to the selected road attributes.
func FilterRoads(records []CrashRecord, f RoadFilter) []CrashRecord {
	out := make([]CrashRecord, 0)
	for i := range records {
		rec := &records[i]
		if len(f.Trafficway) > 0 && !slices.Contains(f.Trafficway, rec.TrafficwayType) {
			continue
		}
		if len(f.Surface) > 0 && !slices.Contains(f.Surface, rec.RoadwaySurfaceCond) {
			continue
		}
		if len(f.Defect) > 0 && !slices.Contains(f.Defect, rec.RoadDefect) {
			continue
		}
		out = append(out, *rec)
	}
	return out
}
