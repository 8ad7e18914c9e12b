package macros

import (
	"math"
	"strconv"
	"strings"
)

// DefaultServings is the multiplier used whenever the requested one is unusable.
const DefaultServings = 1.0

// NormalizeServings maps zero, negative, NaN and infinite multipliers to DefaultServings.
func NormalizeServings(multiplier float64) float64 {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier <= 0 {
		return DefaultServings
	}
	return multiplier
}

// ParseServings reads a multiplier typed by the user. Unparsable text normalizes to
// DefaultServings instead of failing because the field is edited live.
func ParseServings(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultServings
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return DefaultServings
	}
	return NormalizeServings(value)
}

// ApplyServings derives the macronutrients for a multiplier from the 1x baseline.
// Protein, carbs and fat are rounded to two decimals; calories are left unrounded.
// A multiplier of exactly 1 returns the baseline untouched.
func ApplyServings(baseline Info, multiplier float64) Info {
	multiplier = NormalizeServings(multiplier)
	if multiplier == DefaultServings {
		return baseline
	}
	return Info{
		Calories: baseline.Calories * multiplier,
		Protein:  RoundHundredths(baseline.Protein * multiplier),
		Carbs:    RoundHundredths(baseline.Carbs * multiplier),
		Fat:      RoundHundredths(baseline.Fat * multiplier),
	}
}

// RoundHundredths rounds half away from zero to two decimal places.
func RoundHundredths(value float64) float64 {
	return math.Round(value*100) / 100
}
