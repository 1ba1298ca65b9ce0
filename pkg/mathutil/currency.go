// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/fincalc/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// IsFinite reports whether val is neither NaN nor an infinity.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Fraction converts percentage points (e.g. 4.99) to a decimal rate (0.0499).
func Fraction(points float64) float64 {
	return points / constants.PercentageMultiplier
}

// Points converts a decimal rate to percentage points.
func Points(fraction float64) float64 {
	return fraction * constants.PercentageMultiplier
}

// RatioOr returns num/den when den is strictly positive and fallback otherwise.
func RatioOr(num, den, fallback float64) float64 {
	if den > 0 {
		return num / den
	}
	return fallback
}

// CalculatePercentage calculates what percentage value is of total, or zero
// when total is zero.
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}
