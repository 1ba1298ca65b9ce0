package pricing

import (
	"math"

	"github.com/iwvelando/fincalc/pkg/mathutil"
)

// Comparison holds two direct calculations and the change in net profit
// going from A to B.
type Comparison struct {
	A                  Result  `json:"a"`
	B                  Result  `json:"b"`
	ProfitDelta        float64 `json:"profitDelta"`
	ProfitDeltaPercent float64 `json:"profitDeltaPercent"`
	Improved           bool    `json:"improved"`
}

// Compare evaluates both input sets in ModeDirect. ProfitDeltaPercent is
// relative to the magnitude of A's profit, and zero when A breaks exactly even.
func Compare(a, b Inputs) Comparison {
	ra := Calculate(ModeDirect, a)
	rb := Calculate(ModeDirect, b)

	delta := rb.NetProfit - ra.NetProfit
	return Comparison{
		A:                  ra,
		B:                  rb,
		ProfitDelta:        delta,
		ProfitDeltaPercent: mathutil.CalculatePercentage(delta, math.Abs(ra.NetProfit)),
		Improved:           delta >= 0,
	}
}
