package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testArtifact splits on speed first, then on weather:
//
//	speed <= 35 && CLEAR -> Low
//	speed <= 35 && !CLEAR -> Medium (3:1 over High)
//	speed > 35           -> High
func testArtifact() Artifact {
	weather := NewLabelEncoder([]string{"RAIN", "CLEAR", "SNOW", "CLEAR"})
	return Artifact{
		Name:   "risk",
		Target: "RISK_LEVEL",
		Features: []Feature{
			{Name: "WEATHER_CONDITION", Encoder: &weather, Default: "CLEAR"},
			{Name: "POSTED_SPEED_LIMIT"},
		},
		TargetEncoder: NewLabelEncoder([]string{"High", "Medium", "Low"}),
		Importances:   []float64{0.3, 0.7},
		Forest: Forest{
			NClasses: 3,
			Trees: []Tree{{
				ChildrenLeft:  []int{1, 3, -1, -1, -1},
				ChildrenRight: []int{2, 4, -1, -1, -1},
				Feature:       []int{1, 0, -2, -2, -2},
				Threshold:     []float64{35, 0.5, -2, -2, -2},
				Value: [][]float64{
					{6, 4, 3},
					{1, 4, 3},
					{5, 0, 0},
					{0, 4, 0},
					{1, 0, 3},
				},
			}},
		},
	}
}

func TestLabelEncoder(t *testing.T) {
	enc := NewLabelEncoder([]string{"SNOW", "CLEAR", "RAIN", "CLEAR"})
	assert.Equal(t, []string{"CLEAR", "RAIN", "SNOW"}, enc.Classes)

	code, err := enc.Transform("RAIN")
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	v, err := enc.InverseTransform(2)
	require.NoError(t, err)
	assert.Equal(t, "SNOW", v)

	_, err = enc.Transform("FOG")
	require.ErrorIs(t, err, ErrUnknownCategory)

	_, err = enc.InverseTransform(3)
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestClassifierPredict(t *testing.T) {
	c, err := New(testArtifact())
	require.NoError(t, err)

	tests := []struct {
		name   string
		inputs map[string]string
		want   string
	}{
		{"fast road", map[string]string{"WEATHER_CONDITION": "CLEAR", "POSTED_SPEED_LIMIT": "45"}, "High"},
		{"slow clear", map[string]string{"WEATHER_CONDITION": "CLEAR", "POSTED_SPEED_LIMIT": "30"}, "Low"},
		{"slow rain", map[string]string{"WEATHER_CONDITION": "RAIN", "POSTED_SPEED_LIMIT": "30"}, "Medium"},
		{"threshold goes left", map[string]string{"WEATHER_CONDITION": "SNOW", "POSTED_SPEED_LIMIT": "35"}, "Medium"},
		{"default weather", map[string]string{"POSTED_SPEED_LIMIT": "20"}, "Low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.Predict(tt.inputs)
			require.NoError(t, err)
			assert.Equal(t, "risk", p.Model)
			assert.Equal(t, tt.want, p.Label)
		})
	}
}

func TestClassifierPredict_Probabilities(t *testing.T) {
	c, err := New(testArtifact())
	require.NoError(t, err)

	p, err := c.Predict(map[string]string{"WEATHER_CONDITION": "RAIN", "POSTED_SPEED_LIMIT": "25"})
	require.NoError(t, err)

	want := map[string]float64{"High": 0.25, "Low": 0, "Medium": 0.75}
	if diff := cmp.Diff(want, p.Probabilities); diff != "" {
		t.Errorf("probabilities mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifierPredict_Errors(t *testing.T) {
	c, err := New(testArtifact())
	require.NoError(t, err)

	_, err = c.Predict(map[string]string{"WEATHER_CONDITION": "FOG", "POSTED_SPEED_LIMIT": "30"})
	require.ErrorIs(t, err, ErrUnknownCategory)

	_, err = c.Predict(map[string]string{"WEATHER_CONDITION": "CLEAR"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = c.Predict(map[string]string{"POSTED_SPEED_LIMIT": "fast"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestForestPredictProba_Averages(t *testing.T) {
	stump := func(left, right []float64) Tree {
		return Tree{
			ChildrenLeft:  []int{1, -1, -1},
			ChildrenRight: []int{2, -1, -1},
			Feature:       []int{0, -2, -2},
			Threshold:     []float64{0.5, -2, -2},
			Value:         [][]float64{{1, 1}, left, right},
		}
	}
	f := Forest{NClasses: 2, Trees: []Tree{
		stump([]float64{10, 0}, []float64{0, 10}),
		stump([]float64{2, 2}, []float64{0, 4}),
	}}

	proba := f.PredictProba([]float64{0})
	assert.InDeltaSlice(t, []float64{0.75, 0.25}, proba, 1e-9)
	assert.Equal(t, 0, f.Predict([]float64{0}))
	assert.Equal(t, 1, f.Predict([]float64{1}))
}

func TestLoad(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(testArtifact()))

	c, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, "risk", c.Name())
	assert.Equal(t, "RISK_LEVEL", c.Target())
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(strings.NewReader("{not json"))
	require.Error(t, err)

	tests := []struct {
		name   string
		mutate func(*Artifact)
	}{
		{"no name", func(a *Artifact) { a.Name = "" }},
		{"no features", func(a *Artifact) { a.Features = nil }},
		{"class count mismatch", func(a *Artifact) { a.Forest.NClasses = 2 }},
		{"importance count mismatch", func(a *Artifact) { a.Importances = []float64{1} }},
		{"backward child", func(a *Artifact) { a.Forest.Trees[0].ChildrenLeft[1] = 0 }},
		{"feature out of range", func(a *Artifact) { a.Forest.Trees[0].Feature[0] = 9 }},
		{"unsorted encoder", func(a *Artifact) { a.Features[0].Encoder = &LabelEncoder{Classes: []string{"B", "A"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testArtifact()
			tt.mutate(&a)
			_, err := New(a)
			require.Error(t, err)
		})
	}
}

func TestOptions(t *testing.T) {
	c, err := New(testArtifact())
	require.NoError(t, err)

	opts := c.Options()
	require.Len(t, opts, 2)
	assert.Equal(t, KindCategorical, opts[0].Kind)
	assert.Equal(t, []string{"CLEAR", "RAIN", "SNOW"}, opts[0].Classes)
	assert.Equal(t, "CLEAR", opts[0].Default)
	assert.Equal(t, KindNumeric, opts[1].Kind)
	assert.Empty(t, opts[1].Classes)
}

func TestTopFeatures(t *testing.T) {
	c, err := New(testArtifact())
	require.NoError(t, err)

	top := c.TopFeatures(1)
	require.Len(t, top, 1)
	assert.Equal(t, "POSTED_SPEED_LIMIT", top[0].Feature)

	assert.Len(t, c.TopFeatures(10), 2)
}
