package domain

import "time"

// Source column names used by the dashboard. All other columns are kept
// verbatim in CrashRecord.Fields.
const (
	ColCrashDate        = "CRASH_DATE"
	ColPostedSpeedLimit = "POSTED_SPEED_LIMIT"
	ColWeather          = "WEATHER_CONDITION"
	ColLighting         = "LIGHTING_CONDITION"
	ColTrafficway       = "TRAFFICWAY_TYPE"
	ColSurface          = "ROADWAY_SURFACE_COND"
	ColRoadDefect       = "ROAD_DEFECT"
	ColInjuriesTotal    = "INJURIES_TOTAL"
	ColDamage           = "DAMAGE"
	ColFirstCrashType   = "FIRST_CRASH_TYPE"
	ColNumUnits         = "NUM_UNITS"
)

// Derived column names, as used by model artifacts.
const (
	ColDamageValue    = "DAMAGE_VALUE"
	ColDamageCategory = "DAMAGE_CATEGORY"
	ColCrashMonth     = "CRASH_MONTH"
	ColCrashHour      = "CRASH_HOUR"
)

// RequiredColumns must be present in every partition header.
var RequiredColumns = []string{
	ColCrashDate,
	ColPostedSpeedLimit,
	ColWeather,
	ColLighting,
	ColTrafficway,
	ColSurface,
	ColRoadDefect,
	ColInjuriesTotal,
	ColDamage,
}

// RawRecord is one CSV row keyed by header name.
type RawRecord struct {
	Partition int
	Line      int
	Fields    map[string]string
}

// CrashRecord is a single reported collision. The derived fields are computed
// once by NormalizeRecord and never modified afterwards.
type CrashRecord struct {
	Partition int `json:"partition"`
	Line      int `json:"line"`

	CrashDateRaw       string `json:"crash_date_raw"`
	PostedSpeedLimit   *int   `json:"posted_speed_limit,omitempty"`
	WeatherCondition   string `json:"weather_condition"`
	LightingCondition  string `json:"lighting_condition"`
	TrafficwayType     string `json:"trafficway_type"`
	RoadwaySurfaceCond string `json:"roadway_surface_cond"`
	RoadDefect         string `json:"road_defect"`
	InjuriesTotal      *int   `json:"injuries_total,omitempty"`
	Damage             string `json:"damage"`
	FirstCrashType     string `json:"first_crash_type,omitempty"`
	NumUnits           *int   `json:"num_units,omitempty"`

	// Fields holds every source column, including the ones above.
	Fields map[string]string `json:"-"`

	// Derived.
	DamageValue    int        `json:"damage_value"`
	DamageCategory string     `json:"damage_category"`
	CrashDate      *time.Time `json:"crash_date,omitempty"`
	CrashMonth     *int       `json:"crash_month,omitempty"`
	CrashHour      *int       `json:"crash_hour,omitempty"`
	CrashYear      int        `json:"crash_year"`
}

// Dataset is the loaded, normalized crash table. It is read-only once built.
type Dataset struct {
	Records           []CrashRecord
	Partitions        int
	LoadedAt          time.Time
	WeatherConditions []string
}

// NewDataset wraps normalized records and stamps the load time.
func NewDataset(records []CrashRecord, partitions int) *Dataset {
	return &Dataset{
		Records:           records,
		Partitions:        partitions,
		LoadedAt:          clock.Now(),
		WeatherConditions: distinctValues(records, func(r CrashRecord) string { return r.WeatherCondition }),
	}
}

// distinctValues returns non-empty values in order of first appearance.
func distinctValues(records []CrashRecord, field func(CrashRecord) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for i := range records {
		v := field(records[i])
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
