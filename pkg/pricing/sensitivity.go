package pricing

import (
	"github.com/iwvelando/fincalc/pkg/constants"
	"github.com/iwvelando/fincalc/pkg/mathutil"
)

// SensitivityOptions controls the price sweep. Zero values fall back to the
// defaults in the constants package.
type SensitivityOptions struct {
	Steps       int     `json:"steps,omitempty" yaml:"steps,omitempty" mapstructure:"steps"`
	StepPercent float64 `json:"stepPercent,omitempty" yaml:"stepPercent,omitempty" mapstructure:"stepPercent"`
}

func (o SensitivityOptions) withDefaults() SensitivityOptions {
	if o.Steps <= 0 {
		o.Steps = constants.DefaultSensitivitySteps
	}
	if o.StepPercent <= 0 {
		o.StepPercent = constants.DefaultSensitivityStepPercent
	}
	return o
}

// SensitivityPoint is the outcome of selling at one price variation.
type SensitivityPoint struct {
	VariationPercent float64 `json:"variation"`
	Price            float64 `json:"price"`
	NetProfit        float64 `json:"netProfit"`
	NetMargin        float64 `json:"netMargin"`
	Current          bool    `json:"isCurrent"`
}

// Sensitivity sweeps the unit price around base.Price and reports the net
// profit at each point. Volume is held at base.Volume, i.e. demand is assumed
// not to react to price. Returns nil for an invalid base or a non-positive
// price.
func Sensitivity(in Inputs, base Result, opts SensitivityOptions) []SensitivityPoint {
	if !base.Valid || base.Price <= 0 {
		return nil
	}
	opts = opts.withDefaults()

	points := make([]SensitivityPoint, 0, 2*opts.Steps+1)
	for i := -opts.Steps; i <= opts.Steps; i++ {
		variation := float64(i) * opts.StepPercent
		price := base.Price * (1 + mathutil.Fraction(variation))

		sim := in
		sim.PVS = Float(price)
		sim.Meta = Float(base.Volume)
		r := Calculate(ModeDirect, sim)

		points = append(points, SensitivityPoint{
			VariationPercent: variation,
			Price:            price,
			NetProfit:        r.NetProfit,
			NetMargin:        r.NetMargin,
			Current:          i == 0,
		})
	}
	return points
}
