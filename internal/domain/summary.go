package domain

import (
	"sort"
)

// CategoryCount is a value with its number of crashes.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoryTotal is a damage band with its summed damage value.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
}

// YearCount is the number of crashes in one calendar year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// InjurySplit counts crashes with and without injuries.
type InjurySplit struct {
	NoInjuries   int `json:"no_injuries"`
	WithInjuries int `json:"with_injuries"`
}

// Summary holds the aggregates shown on the dashboard for one view. Every
// field is well defined for an empty view; AvgSpeedLimit is nil when no
// record has a speed limit.
type Summary struct {
	TotalCrashes     int             `json:"total_crashes"`
	TotalInjuries    int             `json:"total_injuries"`
	AvgSpeedLimit    *float64        `json:"avg_speed_limit"`
	TotalDamage      int             `json:"total_damage"`
	Injuries         InjurySplit     `json:"injuries"`
	DamageByCategory []CategoryTotal `json:"damage_by_category"`
	CrashesByHour    [24]int         `json:"crashes_by_hour"`
	CrashesByMonth   [12]int         `json:"crashes_by_month"`
	CrashesByYear    []YearCount     `json:"crashes_by_year"`
	Weather          []CategoryCount `json:"weather"`
	Lighting         []CategoryCount `json:"lighting"`
}

// Summarize aggregates a view.
func Summarize(records []CrashRecord) Summary {
	s := Summary{
		TotalCrashes:     len(records),
		DamageByCategory: make([]CategoryTotal, 0),
		CrashesByYear:    make([]YearCount, 0),
	}

	var speedSum, speedN int
	damage := make(map[string]int)
	years := make(map[int]int)
	weather := make(map[string]int)
	lighting := make(map[string]int)

	for i := range records {
		rec := &records[i]
		if rec.InjuriesTotal != nil {
			s.TotalInjuries += *rec.InjuriesTotal
			if *rec.InjuriesTotal == 0 {
				s.Injuries.NoInjuries++
			} else if *rec.InjuriesTotal > 0 {
				s.Injuries.WithInjuries++
			}
		}
		if rec.PostedSpeedLimit != nil {
			speedSum += *rec.PostedSpeedLimit
			speedN++
		}
		s.TotalDamage += rec.DamageValue
		if rec.DamageCategory != "" {
			damage[rec.DamageCategory] += rec.DamageValue
		}
		if rec.CrashHour != nil && *rec.CrashHour >= 0 && *rec.CrashHour < 24 {
			s.CrashesByHour[*rec.CrashHour]++
		}
		if rec.CrashMonth != nil && *rec.CrashMonth >= 1 && *rec.CrashMonth <= 12 {
			s.CrashesByMonth[*rec.CrashMonth-1]++
		}
		if rec.CrashYear != 0 {
			years[rec.CrashYear]++
		}
		if rec.WeatherCondition != "" {
			weather[rec.WeatherCondition]++
		}
		if rec.LightingCondition != "" {
			lighting[rec.LightingCondition]++
		}
	}

	if speedN > 0 {
		avg := float64(speedSum) / float64(speedN)
		s.AvgSpeedLimit = &avg
	}

	for cat, total := range damage {
		s.DamageByCategory = append(s.DamageByCategory, CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(s.DamageByCategory, func(i, j int) bool {
		a, b := s.DamageByCategory[i], s.DamageByCategory[j]
		if a.Total != b.Total {
			return a.Total < b.Total
		}
		return a.Category < b.Category
	})

	for y, n := range years {
		s.CrashesByYear = append(s.CrashesByYear, YearCount{Year: y, Count: n})
	}
	sort.Slice(s.CrashesByYear, func(i, j int) bool { return s.CrashesByYear[i].Year < s.CrashesByYear[j].Year })

	s.Weather = sortedCounts(weather)
	s.Lighting = sortedCounts(lighting)
	return s
}

// sortedCounts orders by count descending, then value ascending.
func sortedCounts(m map[string]int) []CategoryCount {
	out := make([]CategoryCount, 0, len(m))
	for v, n := range m {
		out = append(out, CategoryCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// RoadConditionGroup aggregates crashes sharing trafficway, surface and defect.
type RoadConditionGroup struct {
	TrafficwayType     string  `json:"trafficway_type"`
	RoadwaySurfaceCond string  `json:"roadway_surface_cond"`
	RoadDefect         string  `json:"road_defect"`
	CrashCount         int     `json:"crash_count"`
	AvgInjuries        float64 `json:"avg_injuries"`
}

type roadKey struct {
	trafficway, surface, defect string
}

// GroupRoadConditions counts and averages injuries per road condition
// triple. Records with an empty attribute are skipped; records without an
// injury count are left out of both the count and the mean, so a group may
// report zero crashes. Groups are sorted by their key.
func GroupRoadConditions(records []CrashRecord) []RoadConditionGroup {
	type acc struct {
		injurySum   int
		injuryCount int
	}
	groups := make(map[roadKey]*acc)
	for i := range records {
		rec := &records[i]
		if rec.TrafficwayType == "" || rec.RoadwaySurfaceCond == "" || rec.RoadDefect == "" {
			continue
		}
		k := roadKey{rec.TrafficwayType, rec.RoadwaySurfaceCond, rec.RoadDefect}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		if rec.InjuriesTotal != nil {
			a.injurySum += *rec.InjuriesTotal
			a.injuryCount++
		}
	}

	out := make([]RoadConditionGroup, 0, len(groups))
	for k, a := range groups {
		g := RoadConditionGroup{
			TrafficwayType:     k.trafficway,
			RoadwaySurfaceCond: k.surface,
			RoadDefect:         k.defect,
			CrashCount:         a.injuryCount,
		}
		if a.injuryCount > 0 {
			g.AvgInjuries = float64(a.injurySum) / float64(a.injuryCount)
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TrafficwayType != b.TrafficwayType {
			return a.TrafficwayType < b.TrafficwayType
		}
		if a.RoadwaySurfaceCond != b.RoadwaySurfaceCond {
			return a.RoadwaySurfaceCond < b.RoadwaySurfaceCond
		}
		return a.RoadDefect < b.RoadDefect
	})
	return out
}

// PivotInjurySeverity averages the group means per trafficway and surface,
// giving the cells of the injury severity heatmap. Groups without injury
// counts have no mean and are skipped.
func PivotInjurySeverity(groups []RoadConditionGroup) map[string]map[string]float64 {
	type acc struct {
		sum float64
		n   int
	}
	cells := make(map[string]map[string]*acc)
	for _, g := range groups {
		if g.CrashCount == 0 {
			continue
		}
		row, ok := cells[g.TrafficwayType]
		if !ok {
			row = make(map[string]*acc)
			cells[g.TrafficwayType] = row
		}
		c, ok := row[g.RoadwaySurfaceCond]
		if !ok {
			c = &acc{}
			row[g.RoadwaySurfaceCond] = c
		}
		c.sum += g.AvgInjuries
		c.n++
	}

	out := make(map[string]map[string]float64, len(cells))
	for tw, row := range cells {
		out[tw] = make(map[string]float64, len(row))
		for surface, c := range row {
			out[tw][surface] = c.sum / float64(c.n)
		}
	}
	return out
}
