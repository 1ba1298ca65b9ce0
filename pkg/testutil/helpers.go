// Package testutil provides common fixtures for testing.
package testutil

import (
	"math"

	"github.com/iwvelando/fincalc/internal/projection"
	"github.com/iwvelando/fincalc/pkg/pricing"
)

// SubscriptionInputs returns a direct-mode scenario whose results are known:
// 26 units to break even and a net profit of 4391.399 on 100 units.
func SubscriptionInputs() pricing.Inputs {
	return pricing.Inputs{
		CP:        pricing.Float(25),
		TxF:       pricing.Float(1.5),
		TxP:       pricing.Float(4.99),
		CF:        pricing.Float(1500),
		Marketing: pricing.FixedMarketing(0),
		Churn:     pricing.Float(0),
		PVS:       pricing.Float(89.90),
		Meta:      pricing.Float(100),
	}
}

// SampleProjections returns one valid and one invalid projection.
func SampleProjections() []projection.Projection {
	valid := SubscriptionInputs()
	validResult := pricing.Calculate(pricing.ModeDirect, valid)

	invalid := pricing.Inputs{Meta: pricing.Float(100), TxP: pricing.Float(60), MLLD: pricing.Float(50)}

	return []projection.Projection{
		{
			Name:        "Subscription",
			Mode:        pricing.ModeDirect,
			Inputs:      valid,
			Result:      validResult,
			Sensitivity: pricing.Sensitivity(valid, validResult, pricing.SensitivityOptions{Steps: 1}),
		},
		{
			Name:   "Impossible",
			Mode:   pricing.ModeTargetPrice,
			Inputs: invalid,
			Result: pricing.Calculate(pricing.ModeTargetPrice, invalid),
		},
	}
}

// AlmostEqual reports whether a and b differ by at most tolerance.
func AlmostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
