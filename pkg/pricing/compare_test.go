package pricing

import (
	"math"
	"testing"
)

func TestCompare(t *testing.T) {
	a := directScenario()
	b := directScenario()
	b.PVS = Float(99.90)

	c := Compare(a, b)

	if !c.A.Valid || !c.B.Valid {
		t.Fatalf("both sides should be valid: %q / %q", c.A.Error, c.B.Error)
	}
	// Ten more per unit, less the 4.99% fee, over 100 units.
	wantDelta := 100 * 10 * (1 - 0.0499)
	if math.Abs(c.ProfitDelta-wantDelta) > 1e-6 {
		t.Fatalf("ProfitDelta = %v, want %v", c.ProfitDelta, wantDelta)
	}
	wantPercent := wantDelta / c.A.NetProfit * 100
	if math.Abs(c.ProfitDeltaPercent-wantPercent) > 1e-9 {
		t.Fatalf("ProfitDeltaPercent = %v, want %v", c.ProfitDeltaPercent, wantPercent)
	}
	if !c.Improved {
		t.Fatalf("higher price should be an improvement")
	}

	reverse := Compare(b, a)
	if reverse.Improved {
		t.Fatalf("lower price should not be an improvement")
	}
}

func TestCompareAgainstLoss(t *testing.T) {
	a := Inputs{PVS: Float(10), Meta: Float(10), CF: Float(200)}
	b := Inputs{PVS: Float(10), Meta: Float(30), CF: Float(200)}

	c := Compare(a, b)
	if c.A.NetProfit != -100 || c.B.NetProfit != 100 {
		t.Fatalf("profits = %v / %v, want -100 / 100", c.A.NetProfit, c.B.NetProfit)
	}
	// Measured against the size of the loss, so recovering it reads as +200%.
	if c.ProfitDeltaPercent != 200 {
		t.Fatalf("ProfitDeltaPercent = %v, want 200", c.ProfitDeltaPercent)
	}
}

func TestCompareFromBreakEven(t *testing.T) {
	a := Inputs{PVS: Float(10), Meta: Float(10), CF: Float(100)}
	b := Inputs{PVS: Float(12), Meta: Float(10), CF: Float(100)}

	c := Compare(a, b)
	if c.ProfitDelta != 20 {
		t.Fatalf("ProfitDelta = %v, want 20", c.ProfitDelta)
	}
	if c.ProfitDeltaPercent != 0 {
		t.Fatalf("ProfitDeltaPercent = %v, want 0 when A breaks even", c.ProfitDeltaPercent)
	}
}
