package domain

import (
	"math"
	"strconv"
	"strings"
)

// DamageFormat identifies which representation a DAMAGE value uses.
type DamageFormat int

const (
	DamageMissing DamageFormat = iota
	DamageOver
	DamageOrLess
	DamageRange
	DamageAmount
)

func (f DamageFormat) String() string {
	switch f {
	case DamageMissing:
		return "missing"
	case DamageOver:
		return "over"
	case DamageOrLess:
		return "or_less"
	case DamageRange:
		return "range"
	case DamageAmount:
		return "amount"
	default:
		return "unknown"
	}
}

// Bucket estimates for labels that carry no exact amount.
const (
	damageOverEstimate   = 2000
	damageOrLessEstimate = 250
)

// Damage bands, upper bounds inclusive.
const (
	DamageBandLow      = "$0 - $500"
	DamageBandMedium   = "$501 - $1,000"
	DamageBandHigh     = "$1,001 - $1,500"
	DamageBandVeryHigh = "Over $1,500"
)

// DamageBands lists the category labels from cheapest to most expensive.
var DamageBands = []string{DamageBandLow, DamageBandMedium, DamageBandHigh, DamageBandVeryHigh}

// DetectDamageFormat inspects the text shape. The checks run in a fixed order:
// "OVER" before "OR LESS" before a hyphen, so "OVER $1,500" never reaches
// range parsing.
func DetectDamageFormat(s string) DamageFormat {
	s = strings.TrimSpace(s)
	if s == "" {
		return DamageMissing
	}
	upper := strings.ToUpper(s)
	switch {
	case strings.Contains(upper, "OVER"):
		return DamageOver
	case strings.Contains(upper, "OR LESS"):
		return DamageOrLess
	case strings.Contains(s, "-"):
		return DamageRange
	default:
		return DamageAmount
	}
}

// ExtractDamageValue turns free-text damage into a non-negative integer
// estimate. Unparsable text yields 0.
func ExtractDamageValue(s string) int {
	switch DetectDamageFormat(s) {
	case DamageOver:
		return damageOverEstimate
	case DamageOrLess:
		return damageOrLessEstimate
	case DamageRange:
		return parseDamageRange(s)
	case DamageAmount:
		v, ok := parseDollarAmount(s)
		if !ok {
			return 0
		}
		return v
	default:
		return 0
	}
}

// parseDamageRange averages "$501 - $1,000" style bounds, truncating.
func parseDamageRange(s string) int {
	lo, hi, found := strings.Cut(s, "-")
	if !found {
		return 0
	}
	low, ok := parseDollarAmount(lo)
	if !ok {
		return 0
	}
	high, ok := parseDollarAmount(hi)
	if !ok {
		return 0
	}
	return (low + high) / 2
}

// parseDollarAmount strips "$" and thousands separators and truncates the
// result to an integer. Negative or non-numeric text is rejected.
func parseDollarAmount(s string) (int, bool) {
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) || v >= math.MaxInt {
		return 0, false
	}
	return int(v), true
}

// CategorizeDamage maps a damage value onto one of the four DamageBands.
func CategorizeDamage(value int) string {
	switch {
	case value <= 500:
		return DamageBandLow
	case value <= 1000:
		return DamageBandMedium
	case value <= 1500:
		return DamageBandHigh
	default:
		return DamageBandVeryHigh
	}
}
