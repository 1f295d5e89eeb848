package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDamageValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"whitespace", "   ", 0},
		{"plain dollar amount", "$1,234.56", 1234},
		{"amount without symbol", "875", 875},
		{"over bucket", "OVER $1,500", 2000},
		{"over bucket lowercase", "over $1,500", 2000},
		{"or less bucket", "$500 OR LESS", 250},
		{"range bucket", "$501 - $1,000", 750},
		{"range bucket odd sum", "$1,001 - $1,500", 1250},
		{"range with garbage bound", "$501 - lots", 0},
		{"garbage", "unknown", 0},
		{"negative amount", "$-5", 0},
		{"NaN text", "NaN", 0},
		{"huge amount", "$99999999999999", 99999999999999},
		{"above int32", "$3,000,000,000", 3000000000},
		{"huge amount truncated", "$2,147,483,648.75", 2147483648},
		{"overflowing float", "1e309", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDamageValue(tt.input))
		})
	}
}

func TestExtractDamageValue_NeverNegative(t *testing.T) {
	inputs := []string{"-", "$-1 - $-3", "-100", "OVER", "OR LESS", "$", ",", "1e309"}
	for _, in := range inputs {
		assert.GreaterOrEqual(t, ExtractDamageValue(in), 0, in)
	}
}

func TestDetectDamageFormat(t *testing.T) {
	tests := []struct {
		input string
		want  DamageFormat
	}{
		{"", DamageMissing},
		{"OVER $1,500", DamageOver},
		{"$500 OR LESS", DamageOrLess},
		{"$501 - $1,000", DamageRange},
		{"$1,234.56", DamageAmount},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDamageFormat(tt.input))
		})
	}
}

func TestCategorizeDamage(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, DamageBandLow},
		{250, DamageBandLow},
		{500, DamageBandLow},
		{501, DamageBandMedium},
		{1000, DamageBandMedium},
		{1001, DamageBandHigh},
		{1500, DamageBandHigh},
		{1501, DamageBandVeryHigh},
		{2000, DamageBandVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategorizeDamage(tt.value), "value %d", tt.value)
	}
}

func TestCategorizeDamage_AlwaysABand(t *testing.T) {
	for _, v := range []int{0, 1, 499, 777, 1499, 1_000_000} {
		assert.Contains(t, DamageBands, CategorizeDamage(v))
	}
}
