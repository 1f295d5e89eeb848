package main

import (
	"math/rand/v2"
	"testing"

	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
	"github.com/couchcryptid/crash-data-dashboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateRecords(t *testing.T, n int) []domain.CrashRecord {
	t.Helper()
	rng := rand.New(rand.NewPCG(1, 1))
	records := make([]domain.CrashRecord, 0, n)
	for i := range n {
		raw := domain.RawRecord{Partition: 1, Line: i + 2, Fields: generateRow(rng)}
		records = append(records, domain.NormalizeRecord(domain.ParseRawRecord(raw)))
	}
	return records
}

func TestGenerateRow_Deterministic(t *testing.T) {
	a := generateRow(rand.New(rand.NewPCG(7, 7)))
	b := generateRow(rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a, b)
	for _, col := range header {
		assert.Contains(t, a, col)
	}
}

func TestRiskArtifact_Predicts(t *testing.T) {
	c, err := model.New(riskArtifact(generateRecords(t, 400)))
	require.NoError(t, err)

	scenario := domain.RiskScenario{
		WeatherCondition:   "CLEAR",
		LightingCondition:  "DAYLIGHT",
		RoadwaySurfaceCond: "DRY",
		PostedSpeedLimit:   30,
		DamageValue:        750,
		NumUnits:           2,
		CrashHour:          14,
		FirstCrashType:     "REAR END",
	}
	p, err := c.Predict(scenario.ModelInputs())
	require.NoError(t, err)
	assert.Contains(t, []string{domain.RiskHigh, domain.RiskMedium, domain.RiskLow}, p.Label)

	total := 0.0
	for _, v := range p.Probabilities {
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Len(t, c.TopFeatures(-1), 8)
}

func TestDamageArtifact_DefaultsFillMissingInputs(t *testing.T) {
	c, err := model.New(damageArtifact(generateRecords(t, 200)))
	require.NoError(t, err)

	p, err := c.Predict(map[string]string{})
	require.NoError(t, err)
	assert.Contains(t, domain.DamageBands, p.Label)
}

func TestGini(t *testing.T) {
	assert.InDelta(t, 0.0, gini([]float64{5, 0}), 1e-9)
	assert.InDelta(t, 0.5, gini([]float64{3, 3}), 1e-9)
	assert.InDelta(t, 0.0, gini(nil), 1e-9)
}
