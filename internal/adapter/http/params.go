package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
)

const dateLayout = "2006-01-02"

// Selector defaults shown when the dashboard first opens.
var (
	defaultStart = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	defaultEnd   = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
)

const (
	defaultRecordLimit = 100
	maxRecordLimit     = 1000
)

// parseFilterParams reads start, end, weather and severity. Dates are
// YYYY-MM-DD at 00:00 UTC; both bounds are inclusive instants.
func parseFilterParams(q url.Values) (domain.FilterParams, error) {
	start, err := parseDate(q, "start", defaultStart)
	if err != nil {
		return domain.FilterParams{}, err
	}
	end, err := parseDate(q, "end", defaultEnd)
	if err != nil {
		return domain.FilterParams{}, err
	}
	severity, err := domain.ParseSeverity(q.Get("severity"))
	if err != nil {
		return domain.FilterParams{}, err
	}
	weather := q.Get("weather")
	if weather == "" {
		weather = domain.WeatherAll
	}
	return domain.FilterParams{Start: start, End: end, Weather: weather, Severity: severity}, nil
}

func parseDate(q url.Values, key string, def time.Time) (time.Time, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: want YYYY-MM-DD, got %q", key, s)
	}
	return t, nil
}

func parseLimit(q url.Values) (int, error) {
	s := q.Get("limit")
	if s == "" {
		return defaultRecordLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit: %q", s)
	}
	return min(n, maxRecordLimit), nil
}

// parseRoadFilter reads repeated trafficway, surface and defect parameters.
// Values are not comma split since several contain commas ("RUT, HOLES").
func parseRoadFilter(q url.Values) domain.RoadFilter {
	return domain.RoadFilter{
		Trafficway: nonEmpty(q["trafficway"]),
		Surface:    nonEmpty(q["surface"]),
		Defect:     nonEmpty(q["defect"]),
	}
}

func nonEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
