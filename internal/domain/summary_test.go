package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	records := NormalizeRecords([]CrashRecord{
		{CrashDateRaw: "01/05/2021 08:15:00 AM", Damage: "$500 OR LESS", InjuriesTotal: intPtr(0), PostedSpeedLimit: intPtr(30), WeatherCondition: "CLEAR", LightingCondition: "DAYLIGHT"},
		{CrashDateRaw: "02/06/2022 08:45:00 PM", Damage: "OVER $1,500", InjuriesTotal: intPtr(2), PostedSpeedLimit: intPtr(20), WeatherCondition: "RAIN", LightingCondition: "DARKNESS"},
		{CrashDateRaw: "02/07/2022 08:00:00 PM", Damage: "$501 - $1,000", InjuriesTotal: nil, WeatherCondition: "CLEAR", LightingCondition: "DARKNESS"},
	})

	s := Summarize(records)

	assert.Equal(t, 3, s.TotalCrashes)
	assert.Equal(t, 2, s.TotalInjuries)
	require.NotNil(t, s.AvgSpeedLimit)
	assert.InDelta(t, 25.0, *s.AvgSpeedLimit, 1e-9)
	assert.Equal(t, 250+2000+750, s.TotalDamage)
	assert.Equal(t, InjurySplit{NoInjuries: 1, WithInjuries: 1}, s.Injuries)

	assert.Equal(t, []CategoryTotal{
		{Category: DamageBandLow, Total: 250},
		{Category: DamageBandMedium, Total: 750},
		{Category: DamageBandVeryHigh, Total: 2000},
	}, s.DamageByCategory)

	assert.Equal(t, 1, s.CrashesByHour[8])
	assert.Equal(t, 2, s.CrashesByHour[20])
	assert.Equal(t, 1, s.CrashesByMonth[0])
	assert.Equal(t, 2, s.CrashesByMonth[1])
	assert.Equal(t, []YearCount{{Year: 2021, Count: 1}, {Year: 2022, Count: 2}}, s.CrashesByYear)
	assert.Equal(t, []CategoryCount{{Value: "CLEAR", Count: 2}, {Value: "RAIN", Count: 1}}, s.Weather)
	assert.Equal(t, []CategoryCount{{Value: "DARKNESS", Count: 2}, {Value: "DAYLIGHT", Count: 1}}, s.Lighting)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Zero(t, s.TotalCrashes)
	assert.Nil(t, s.AvgSpeedLimit)
	assert.NotNil(t, s.DamageByCategory)
	assert.Empty(t, s.DamageByCategory)
	assert.Empty(t, s.Weather)
}

func TestGroupRoadConditions(t *testing.T) {
	records := []CrashRecord{
		{TrafficwayType: "ONE-WAY", RoadwaySurfaceCond: "DRY", RoadDefect: "NO DEFECTS", InjuriesTotal: intPtr(0)},
		{TrafficwayType: "ONE-WAY", RoadwaySurfaceCond: "DRY", RoadDefect: "NO DEFECTS", InjuriesTotal: intPtr(2)},
		{TrafficwayType: "ONE-WAY", RoadwaySurfaceCond: "DRY", RoadDefect: "NO DEFECTS", InjuriesTotal: nil},
		{TrafficwayType: "DIVIDED", RoadwaySurfaceCond: "WET", RoadDefect: "NO DEFECTS", InjuriesTotal: intPtr(1)},
		{TrafficwayType: "", RoadwaySurfaceCond: "WET", RoadDefect: "NO DEFECTS"},
		{TrafficwayType: "PARKING LOT", RoadwaySurfaceCond: "DRY", RoadDefect: "NO DEFECTS", InjuriesTotal: nil},
	}

	groups := GroupRoadConditions(records)
	require.Len(t, groups, 3)

	assert.Equal(t, "DIVIDED", groups[0].TrafficwayType)
	assert.Equal(t, 1, groups[0].CrashCount)
	assert.InDelta(t, 1.0, groups[0].AvgInjuries, 1e-9)

	assert.Equal(t, "ONE-WAY", groups[1].TrafficwayType)
	assert.Equal(t, 2, groups[1].CrashCount, "records without injuries are not counted")
	assert.InDelta(t, 1.0, groups[1].AvgInjuries, 1e-9)

	assert.Equal(t, "PARKING LOT", groups[2].TrafficwayType)
	assert.Zero(t, groups[2].CrashCount)

	pivot := PivotInjurySeverity(groups)
	assert.NotContains(t, pivot, "PARKING LOT")
}

func TestPivotInjurySeverity(t *testing.T) {
	groups := []RoadConditionGroup{
		{TrafficwayType: "ONE-WAY", RoadwaySurfaceCond: "DRY", RoadDefect: "NO DEFECTS", CrashCount: 2, AvgInjuries: 1},
		{TrafficwayType: "ONE-WAY", RoadwaySurfaceCond: "DRY", RoadDefect: "RUT, HOLES", CrashCount: 1, AvgInjuries: 3},
		{TrafficwayType: "ONE-WAY", RoadwaySurfaceCond: "WET", RoadDefect: "NO DEFECTS", CrashCount: 4, AvgInjuries: 0.5},
	}

	pivot := PivotInjurySeverity(groups)
	require.Contains(t, pivot, "ONE-WAY")
	assert.InDelta(t, 2.0, pivot["ONE-WAY"]["DRY"], 1e-9)
	assert.InDelta(t, 0.5, pivot["ONE-WAY"]["WET"], 1e-9)
}

func TestNewDataset(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	ds := NewDataset([]CrashRecord{
		{WeatherCondition: "CLEAR"},
		{WeatherCondition: "RAIN"},
		{WeatherCondition: "CLEAR"},
		{WeatherCondition: ""},
	}, 2)

	assert.Equal(t, fake.Now(), ds.LoadedAt)
	assert.Equal(t, 2, ds.Partitions)
	assert.Equal(t, []string{"CLEAR", "RAIN"}, ds.WeatherConditions)
}
