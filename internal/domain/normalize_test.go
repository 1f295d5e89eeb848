package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRow(fields map[string]string) RawRecord {
	return RawRecord{Partition: 1, Line: 2, Fields: fields}
}

func TestParseRawRecord(t *testing.T) {
	rec := ParseRawRecord(rawRow(map[string]string{
		ColCrashDate:        "03/15/2023 02:30:00 PM",
		ColPostedSpeedLimit: "30",
		ColWeather:          " CLEAR ",
		ColLighting:         "DAYLIGHT",
		ColTrafficway:       "DIVIDED - W/MEDIAN (NOT RAISED)",
		ColSurface:          "DRY",
		ColRoadDefect:       "NO DEFECTS",
		ColInjuriesTotal:    "2.0",
		ColDamage:           "$501 - $1,000",
		ColNumUnits:         "",
	}))

	assert.Equal(t, 1, rec.Partition)
	assert.Equal(t, 2, rec.Line)
	assert.Equal(t, "CLEAR", rec.WeatherCondition)
	require.NotNil(t, rec.PostedSpeedLimit)
	assert.Equal(t, 30, *rec.PostedSpeedLimit)
	require.NotNil(t, rec.InjuriesTotal)
	assert.Equal(t, 2, *rec.InjuriesTotal)
	assert.Nil(t, rec.NumUnits)
	assert.Equal(t, "$501 - $1,000", rec.Damage)
	assert.Zero(t, rec.DamageValue, "derived fields are not computed by parsing")
}

func TestParseRawRecord_UnparsableNumbers(t *testing.T) {
	rec := ParseRawRecord(rawRow(map[string]string{
		ColPostedSpeedLimit: "fast",
		ColInjuriesTotal:    "1.5",
	}))
	assert.Nil(t, rec.PostedSpeedLimit)
	assert.Nil(t, rec.InjuriesTotal)
}

func TestNormalizeRecord(t *testing.T) {
	rec := NormalizeRecord(CrashRecord{
		CrashDateRaw: "03/15/2023 02:30:00 PM",
		Damage:       "OVER $1,500",
	})

	assert.Equal(t, 2000, rec.DamageValue)
	assert.Equal(t, DamageBandVeryHigh, rec.DamageCategory)
	require.NotNil(t, rec.CrashDate)
	assert.Equal(t, time.Date(2023, 3, 15, 14, 30, 0, 0, time.UTC), *rec.CrashDate)
	require.NotNil(t, rec.CrashMonth)
	assert.Equal(t, 3, *rec.CrashMonth)
	require.NotNil(t, rec.CrashHour)
	assert.Equal(t, 14, *rec.CrashHour)
	assert.Equal(t, 2023, rec.CrashYear)
}

func TestNormalizeRecord_UnparsableDate(t *testing.T) {
	rec := NormalizeRecord(CrashRecord{CrashDateRaw: "yesterday", Damage: "$100"})

	assert.Nil(t, rec.CrashDate)
	assert.Nil(t, rec.CrashMonth)
	assert.Nil(t, rec.CrashHour)
	assert.Zero(t, rec.CrashYear)
	assert.Equal(t, 100, rec.DamageValue)
	assert.Equal(t, DamageBandLow, rec.DamageCategory)
}

func TestNormalizeRecord_Idempotent(t *testing.T) {
	inputs := []CrashRecord{
		{CrashDateRaw: "2021-07-04T23:59:00", Damage: "$501 - $1,000"},
		{CrashDateRaw: "", Damage: ""},
		{CrashDateRaw: "garbage", Damage: "$500 OR LESS"},
	}
	for _, in := range inputs {
		once := NormalizeRecord(in)
		twice := NormalizeRecord(once)
		assert.Equal(t, once, twice)
	}
}

func TestNormalizeRecords_DoesNotMutateInput(t *testing.T) {
	in := []CrashRecord{{CrashDateRaw: "01/02/2022 08:00:00 AM", Damage: "$900"}}
	out := NormalizeRecords(in)

	require.Len(t, out, 1)
	assert.Zero(t, in[0].DamageValue)
	assert.Nil(t, in[0].CrashDate)
	assert.Equal(t, 900, out[0].DamageValue)
	assert.NotNil(t, out[0].CrashDate)
}

func TestParseCrashDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"03/15/2023 02:30:00 PM", time.Date(2023, 3, 15, 14, 30, 0, 0, time.UTC)},
		{"03/15/2023 12:05:00 AM", time.Date(2023, 3, 15, 0, 5, 0, 0, time.UTC)},
		{"2023-03-15T14:30:00.000", time.Date(2023, 3, 15, 14, 30, 0, 0, time.UTC)},
		{"2023-03-15 14:30:00", time.Date(2023, 3, 15, 14, 30, 0, 0, time.UTC)},
		{"2023-03-15T14:30:00-05:00", time.Date(2023, 3, 15, 19, 30, 0, 0, time.UTC)},
		{"2023-03-15", time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCrashDate(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := ParseCrashDate("13/45/2023")
	assert.False(t, ok)
}
