package main

import (
	"cmp"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
	"github.com/couchcryptid/crash-data-dashboard/internal/model"
)

// column extracts one model input from a record. ok is false when the
// record has no value for it.
type column struct {
	name        string
	categorical bool
	value       func(domain.CrashRecord) (v string, ok bool)
}

func text(get func(domain.CrashRecord) string) func(domain.CrashRecord) (string, bool) {
	return func(r domain.CrashRecord) (string, bool) {
		v := get(r)
		return v, v != ""
	}
}

func number(get func(domain.CrashRecord) *int) func(domain.CrashRecord) (string, bool) {
	return func(r domain.CrashRecord) (string, bool) {
		v := get(r)
		if v == nil {
			return "", false
		}
		return strconv.Itoa(*v), true
	}
}

var (
	colSpeed     = column{domain.ColPostedSpeedLimit, false, number(func(r domain.CrashRecord) *int { return r.PostedSpeedLimit })}
	colWeather   = column{domain.ColWeather, true, text(func(r domain.CrashRecord) string { return r.WeatherCondition })}
	colLighting  = column{domain.ColLighting, true, text(func(r domain.CrashRecord) string { return r.LightingCondition })}
	colSurface   = column{domain.ColSurface, true, text(func(r domain.CrashRecord) string { return r.RoadwaySurfaceCond })}
	colCrashType = column{domain.ColFirstCrashType, true, text(func(r domain.CrashRecord) string { return r.FirstCrashType })}
	colUnits     = column{domain.ColNumUnits, false, number(func(r domain.CrashRecord) *int { return r.NumUnits })}
	colHour      = column{domain.ColCrashHour, false, number(func(r domain.CrashRecord) *int { return r.CrashHour })}
	colDamage    = column{domain.ColDamageValue, false, func(r domain.CrashRecord) (string, bool) {
		return strconv.Itoa(r.DamageValue), true
	}}
)

// riskArtifact predicts the risk level from the scenario inputs the risk
// assessment endpoint sends.
func riskArtifact(records []domain.CrashRecord) model.Artifact {
	label := func(r domain.CrashRecord) (string, bool) {
		if r.InjuriesTotal == nil {
			return "", false
		}
		switch n := *r.InjuriesTotal; {
		case n == 0:
			return domain.RiskLow, true
		case n == 1:
			return domain.RiskMedium, true
		default:
			return domain.RiskHigh, true
		}
	}
	cols := []column{colWeather, colLighting, colSurface, colSpeed, colDamage, colUnits, colHour, colCrashType}
	return fitStumps("risk", "RISK_LEVEL", cols, records, label)
}

func damageArtifact(records []domain.CrashRecord) model.Artifact {
	label := func(r domain.CrashRecord) (string, bool) {
		return r.DamageCategory, r.DamageCategory != ""
	}
	cols := []column{colSpeed, colUnits, colCrashType, colSurface}
	return fitStumps("damage", domain.ColDamageCategory, cols, records, label)
}

type sample struct {
	x float64
	y int
}

// fitStumps builds a forest of one depth-one tree per feature. Each stump
// splits at the feature median and its leaves hold Laplace-smoothed class
// counts. Importances are the normalized Gini decrease of each split.
func fitStumps(name, target string, cols []column, records []domain.CrashRecord, label func(domain.CrashRecord) (string, bool)) model.Artifact {
	var labels []string
	for _, r := range records {
		if y, ok := label(r); ok {
			labels = append(labels, y)
		}
	}
	targetEnc := model.NewLabelEncoder(labels)
	nClasses := len(targetEnc.Classes)

	a := model.Artifact{
		Name:          name,
		Target:        target,
		TargetEncoder: targetEnc,
		Forest:        model.Forest{NClasses: nClasses},
	}

	for j, col := range cols {
		feature, encode := buildFeature(col, records)
		var samples []sample
		for _, r := range records {
			v, ok := col.value(r)
			y, labeled := label(r)
			if !ok || !labeled {
				continue
			}
			code, _ := targetEnc.Transform(y)
			samples = append(samples, sample{x: encode(v), y: code})
		}
		tree, gain := fitStump(j, samples, nClasses)
		a.Features = append(a.Features, feature)
		a.Forest.Trees = append(a.Forest.Trees, tree)
		a.Importances = append(a.Importances, gain)
	}
	normalize(a.Importances)
	return a
}

// buildFeature returns the artifact feature and a value encoder. The
// default is the most common value, so omitted inputs still predict.
func buildFeature(col column, records []domain.CrashRecord) (model.Feature, func(string) float64) {
	counts := map[string]int{}
	var values []string
	for _, r := range records {
		if v, ok := col.value(r); ok {
			counts[v]++
			values = append(values, v)
		}
	}
	mode := ""
	for v, n := range counts {
		if n > counts[mode] || (n == counts[mode] && v < mode) {
			mode = v
		}
	}

	f := model.Feature{Name: col.name, Default: mode}
	if !col.categorical {
		return f, func(v string) float64 {
			n, _ := strconv.ParseFloat(v, 64)
			return n
		}
	}
	enc := model.NewLabelEncoder(values)
	f.Encoder = &enc
	return f, func(v string) float64 {
		code, _ := enc.Transform(v)
		return float64(code)
	}
}

func fitStump(feature int, samples []sample, nClasses int) (model.Tree, float64) {
	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.x
	}
	slices.Sort(xs)
	threshold := 0.0
	if len(xs) > 0 {
		threshold = xs[len(xs)/2]
	}

	parent := make([]float64, nClasses)
	left := make([]float64, nClasses)
	right := make([]float64, nClasses)
	for _, s := range samples {
		parent[s.y]++
		if s.x <= threshold {
			left[s.y]++
		} else {
			right[s.y]++
		}
	}
	nl, nr := sum(left), sum(right)
	gain := 0.0
	if n := nl + nr; n > 0 {
		gain = gini(parent) - (nl/n)*gini(left) - (nr/n)*gini(right)
	}
	for i := range nClasses {
		left[i]++
		right[i]++
	}

	return model.Tree{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{feature, -2, -2},
		Threshold:     []float64{threshold, -2, -2},
		Value:         [][]float64{parent, left, right},
	}, max(gain, 0)
}

func gini(counts []float64) float64 {
	n := sum(counts)
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

func sum(vals []float64) float64 {
	total := 0.0
	for _, v := range vals {
		total += v
	}
	return total
}

func normalize(vals []float64) {
	total := sum(vals)
	for i := range vals {
		if total == 0 {
			vals[i] = 1 / float64(len(vals))
			continue
		}
		vals[i] /= total
	}
}

// writeMap renders a static stand-in for the hotspot map: crash counts per
// trafficway, busiest first.
func writeMap(path string, records []domain.CrashRecord) error {
	counts := map[string]int{}
	for _, r := range records {
		counts[r.TrafficwayType]++
	}
	type row struct {
		name  string
		count int
	}
	rows := make([]row, 0, len(counts))
	for k, v := range counts {
		rows = append(rows, row{k, v})
	}
	slices.SortFunc(rows, func(a, b row) int {
		return cmp.Or(cmp.Compare(b.count, a.count), strings.Compare(a.name, b.name))
	})

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Chicago crash hotspots</title></head>\n<body>\n")
	b.WriteString("<h1>Chicago crash hotspots</h1>\n<table>\n<tr><th>Trafficway</th><th>Crashes</th></tr>\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td></tr>\n", html.EscapeString(r.name), r.count)
	}
	b.WriteString("</table>\n</body></html>\n")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}
