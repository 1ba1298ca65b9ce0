package pricing

import (
	"math"

	"github.com/iwvelando/fincalc/pkg/constants"
	"github.com/iwvelando/fincalc/pkg/mathutil"
)

// params is Inputs with every absent field resolved to zero and every
// percentage converted to a decimal rate.
type params struct {
	unitCost          float64
	fixedFee          float64
	feeRate           float64
	fixedCosts        float64
	fixedMarketing    float64
	variableMarketing float64
	churnRate         float64
	price             float64
	volume            float64
	marginRate        float64
}

func normalize(in Inputs) (params, bool) {
	p := params{
		unitCost:   value(in.CP),
		fixedFee:   value(in.TxF),
		feeRate:    mathutil.Fraction(value(in.TxP)),
		fixedCosts: value(in.CF),
		churnRate:  mathutil.Fraction(value(in.Churn)),
		price:      value(in.PVS),
		volume:     value(in.Meta),
		marginRate: mathutil.Fraction(value(in.MLLD)),
	}
	if in.Marketing.IsPercent() {
		p.variableMarketing = mathutil.Fraction(in.Marketing.Rate)
	} else if in.Marketing != nil {
		p.fixedMarketing = in.Marketing.Amount
	}

	for _, v := range []float64{
		p.unitCost, p.fixedFee, p.feeRate, p.fixedCosts, p.fixedMarketing,
		p.variableMarketing, p.churnRate, p.price, p.volume, p.marginRate,
	} {
		if !mathutil.IsFinite(v) {
			return p, false
		}
	}
	return p, true
}

// totalFixedCosts is overhead plus the flat part of marketing. Variable
// marketing is charged per unit instead.
func (p params) totalFixedCosts() float64 {
	return p.fixedCosts + p.fixedMarketing
}

func (p params) unitVariableCost(price float64) float64 {
	return p.unitCost + p.fixedFee + price*p.feeRate + price*p.variableMarketing
}

// Calculate derives the full metric set for the given mode. It never panics;
// precondition violations return an invalid Result carrying one of the
// package's sentinel errors.
func Calculate(mode Mode, in Inputs) Result {
	p, ok := normalize(in)
	if !ok {
		return invalid(ErrNonFiniteInput)
	}

	price, volume := p.price, p.volume
	fixed := p.totalFixedCosts()

	switch mode {
	case ModeDirect:
	case ModeTargetPrice:
		if !(p.volume > 0) {
			return invalid(ErrInvalidVolume)
		}
		// Net profit = revenue * margin, solved for the unit price.
		denominator := p.volume * (1 - p.feeRate - p.marginRate - p.variableMarketing)
		if denominator <= 0 {
			return invalid(ErrInfeasibleConstraints)
		}
		price = ((p.unitCost+p.fixedFee)*p.volume + fixed) / denominator
	case ModeTargetVolume:
		if !(p.price > 0) {
			return invalid(ErrInvalidPrice)
		}
		contribution := p.price - p.unitVariableCost(p.price)
		denominator := contribution - p.price*p.marginRate
		if denominator <= 0 {
			return invalid(ErrMarginUnreachable)
		}
		// Whole units only, rounded up so the margin is reached.
		volume = math.Ceil(fixed / denominator)
	default:
		return invalid(ErrUnknownMode)
	}

	r := p.metrics(price, volume)
	if !r.finite() {
		return invalid(ErrNonFiniteResult)
	}
	return r
}

func (p params) metrics(price, volume float64) Result {
	fixed := p.totalFixedCosts()
	unitVariable := p.unitVariableCost(price)
	contribution := price - unitVariable

	var breakEven float64
	if contribution > 0 {
		breakEven = math.Ceil(fixed / contribution)
	}

	revenue := price * volume
	netProfit := contribution*volume - fixed

	marginOfSafety := -1.0
	if volume > 0 {
		marginOfSafety = (volume - breakEven) / volume
	}

	marketingTotal := p.fixedMarketing + price*volume*p.variableMarketing
	cac := mathutil.RatioOr(marketingTotal, volume, 0)

	var lifetime, ltv float64
	if p.churnRate > 0 {
		lifetime = 1 / p.churnRate
		ltv = contribution / p.churnRate
	} else {
		ltv = contribution * constants.LTVFallbackPeriods
	}

	var payback float64
	if cac > 0 && contribution > 0 {
		payback = cac / contribution
	}

	totalCosts := unitVariable*volume + fixed

	return Result{
		Price:              price,
		Volume:             volume,
		UnitVariableCost:   unitVariable,
		ContributionMargin: contribution,
		BreakEvenUnits:     breakEven,
		BreakEvenRevenue:   breakEven * price,
		Revenue:            revenue,
		NetProfit:          netProfit,
		NetMargin:          mathutil.Points(mathutil.RatioOr(netProfit, revenue, 0)),
		Markup:             mathutil.RatioOr(price, p.unitCost, 0),
		FixedCostPerUnit:   mathutil.RatioOr(fixed, volume, 0),
		MarginOfSafety:     marginOfSafety,
		MarketingTotal:     marketingTotal,
		CAC:                cac,
		Lifetime:           lifetime,
		LTV:                ltv,
		Payback:            payback,
		ROI:                mathutil.Points(mathutil.RatioOr(netProfit, totalCosts, 0)),
		LTVToCAC:           mathutil.RatioOr(ltv, cac, 0),
		TotalFixedCosts:    fixed,
		TotalCosts:         totalCosts,
		Valid:              true,
	}
}

func (r Result) finite() bool {
	for _, v := range r.numbers() {
		if !mathutil.IsFinite(v) {
			return false
		}
	}
	return true
}

func (r Result) numbers() []float64 {
	return []float64{
		r.Price, r.Volume, r.UnitVariableCost, r.ContributionMargin,
		r.BreakEvenUnits, r.BreakEvenRevenue, r.Revenue, r.NetProfit,
		r.NetMargin, r.Markup, r.FixedCostPerUnit, r.MarginOfSafety,
		r.MarketingTotal, r.CAC, r.Lifetime, r.LTV, r.Payback, r.ROI,
		r.LTVToCAC, r.TotalFixedCosts, r.TotalCosts,
	}
}

func invalid(err error) Result {
	return Result{Valid: false, Error: err.Error(), err: err}
}
