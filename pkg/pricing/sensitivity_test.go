package pricing

import (
	"math"
	"sort"
	"testing"
)

func TestSensitivity(t *testing.T) {
	in := directScenario()
	base := Calculate(ModeDirect, in)

	points := Sensitivity(in, base, SensitivityOptions{})
	if len(points) != 11 {
		t.Fatalf("got %d points, want 11", len(points))
	}

	if points[0].VariationPercent != -25 || points[10].VariationPercent != 25 {
		t.Fatalf("variation range = [%v, %v], want [-25, 25]", points[0].VariationPercent, points[10].VariationPercent)
	}

	current := points[5]
	if !current.Current {
		t.Fatalf("middle point not flagged as current: %+v", current)
	}
	if current.Price != base.Price || current.NetProfit != base.NetProfit {
		t.Fatalf("current point %+v does not match base result", current)
	}

	for i := 1; i < len(points); i++ {
		if i != 5 && points[i].Current {
			t.Fatalf("point %d unexpectedly flagged current", i)
		}
		if points[i].NetProfit <= points[i-1].NetProfit {
			t.Fatalf("profit should grow with price: %v then %v", points[i-1].NetProfit, points[i].NetProfit)
		}
	}

	want := base.Price * 0.75
	if math.Abs(points[0].Price-want) > 1e-9 {
		t.Fatalf("lowest price = %v, want %v", points[0].Price, want)
	}
}

func TestSensitivityCustomOptions(t *testing.T) {
	in := directScenario()
	base := Calculate(ModeDirect, in)

	points := Sensitivity(in, base, SensitivityOptions{Steps: 2, StepPercent: 10})
	if len(points) != 5 {
		t.Fatalf("got %d points, want 5", len(points))
	}
	variations := make([]float64, len(points))
	for i, p := range points {
		variations[i] = p.VariationPercent
	}
	if !sort.Float64sAreSorted(variations) || variations[0] != -20 || variations[4] != 20 {
		t.Fatalf("variations = %v, want -20..20 in 10 point steps", variations)
	}
}

func TestSensitivityHoldsSolvedVolume(t *testing.T) {
	in := Inputs{PVS: Float(197), TxF: Float(2), TxP: Float(9.9), MLLD: Float(40), CF: Float(1000), Marketing: FixedMarketing(5000)}
	base := Calculate(ModeTargetVolume, in)
	if !base.Valid {
		t.Fatalf("unexpected error %q", base.Error)
	}

	points := Sensitivity(in, base, SensitivityOptions{Steps: 1})
	mid := points[1]
	if mid.NetProfit != base.NetProfit {
		t.Fatalf("current NetProfit = %v, want %v at the solved volume", mid.NetProfit, base.NetProfit)
	}
}

func TestSensitivitySkipsUnusableBase(t *testing.T) {
	in := directScenario()

	if points := Sensitivity(in, Calculate(ModeTargetPrice, Inputs{}), SensitivityOptions{}); points != nil {
		t.Fatalf("expected nil for invalid base, got %d points", len(points))
	}

	zeroPrice := in
	zeroPrice.PVS = Float(0)
	if points := Sensitivity(zeroPrice, Calculate(ModeDirect, zeroPrice), SensitivityOptions{}); points != nil {
		t.Fatalf("expected nil for zero price, got %d points", len(points))
	}
}
