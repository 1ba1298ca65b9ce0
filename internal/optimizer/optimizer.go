// Package optimizer searches for the unit price or sales volume that reaches a
// target net profit.
package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/fincalc/internal/config"
	"github.com/iwvelando/fincalc/pkg/constants"
	"github.com/iwvelando/fincalc/pkg/format"
	"github.com/iwvelando/fincalc/pkg/mathutil"
	"github.com/iwvelando/fincalc/pkg/optimization"
	"github.com/iwvelando/fincalc/pkg/pricing"
	"go.uber.org/zap"
)

// Runner executes the goal seek directives of every active scenario.
type Runner struct {
	logger *zap.Logger
	conf   *config.Configuration
}

type evaluation struct {
	value  float64
	profit float64
	target float64
}

func (e evaluation) feasible() bool {
	return e.profit >= e.target
}

func (e evaluation) headroom() float64 {
	return e.profit - e.target
}

// Result summarizes goal seek outcomes keyed by scenario name.
type Result struct {
	Summaries map[string][]optimization.Summary
}

// Empty indicates whether any goal seek directives were run.
func (r Result) Empty() bool {
	return len(r.Summaries) == 0
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, conf: conf}, nil
}

// Run executes all goal seek directives. The configuration is not modified.
func (r *Runner) Run() (*Result, error) {
	summaries := make(map[string][]optimization.Summary)

	for _, scenario := range r.conf.ActiveScenarios() {
		if scenario.GoalSeek == nil {
			continue
		}
		inputs, err := scenario.ResolveInputs(r.conf.Common.Inputs)
		if err != nil {
			return nil, err
		}

		summary, err := Seek(inputs, *scenario.GoalSeek)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		summary.TargetName = scenario.Name
		Describe(&summary, r.conf.Output.Currency, r.conf.Output.Locale)
		summaries[scenario.Name] = append(summaries[scenario.Name], summary)

		r.logger.Info("goal seek completed",
			zap.String("op", "optimizer.Run"),
			zap.String("scenario", scenario.Name),
			zap.String("field", summary.Field),
			zap.Float64("original", summary.Original),
			zap.Float64("value", summary.Value),
			zap.Float64("targetProfit", summary.TargetProfit),
			zap.Float64("achievedProfit", summary.AchievedProfit),
			zap.Int("iterations", summary.Iterations),
			zap.Bool("converged", summary.Converged),
		)
	}

	return &Result{Summaries: summaries}, nil
}

// Seek finds the value of cfg.Field that makes the direct-mode net profit of
// inputs reach cfg.TargetProfit. Volume is searched over whole units and the
// smallest sufficient volume is returned; price is bracketed to within
// cfg.Tolerance, then solved exactly, and always reaches the target. A target
// that cannot be reached inside the bounds yields a non-converged summary with
// a note rather than an error.
func Seek(inputs pricing.Inputs, cfg config.GoalSeekConfig) (optimization.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return optimization.Summary{}, err
	}

	base := pricing.Calculate(pricing.ModeDirect, inputs)
	if !base.Valid {
		return optimization.Summary{}, fmt.Errorf("baseline calculation failed: %w", base.Err())
	}

	summary := optimization.Summary{
		Scope:        "scenario",
		Field:        cfg.Field,
		TargetProfit: cfg.TargetProfit,
	}

	switch cfg.Field {
	case config.GoalSeekFieldVolume:
		summary.Original = base.Volume
		seekVolume(inputs, base, cfg, &summary)
	case config.GoalSeekFieldPrice:
		summary.Original = base.Price
		seekPrice(inputs, cfg, &summary)
	}
	return summary, nil
}

func seekVolume(inputs pricing.Inputs, base pricing.Result, cfg config.GoalSeekConfig, summary *optimization.Summary) {
	if base.ContributionMargin <= 0 {
		unchanged(summary, base, "contribution margin is zero or negative")
		return
	}

	lower := 1.0
	if cfg.Min != nil {
		lower = math.Max(math.Ceil(*cfg.Min), 0)
	}
	upper := constants.DefaultGoalSeekUpperBound
	if cfg.Max != nil {
		upper = math.Floor(*cfg.Max)
	}

	evaluate := func(volume float64) evaluation {
		trial := inputs
		trial.Meta = pricing.Float(volume)
		r := pricing.Calculate(pricing.ModeDirect, trial)
		return evaluation{value: volume, profit: r.NetProfit, target: cfg.TargetProfit}
	}

	bisect(evaluate, lower, upper, cfg, summary, func(lo, hi float64) float64 {
		return math.Floor((lo + hi) / 2)
	})
}

func seekPrice(inputs pricing.Inputs, cfg config.GoalSeekConfig, summary *optimization.Summary) {
	var feeRate, variableMarketing float64
	if inputs.TxP != nil {
		feeRate = mathutil.Fraction(*inputs.TxP)
	}
	if inputs.Marketing.IsPercent() {
		variableMarketing = mathutil.Fraction(inputs.Marketing.Rate)
	}
	if 1-feeRate-variableMarketing <= 0 {
		summary.Value = summary.Original
		summary.Notes = append(summary.Notes, "variable fees exceed 100%")
		return
	}

	volume := 0.0
	if inputs.Meta != nil {
		volume = *inputs.Meta
	}
	if volume <= 0 {
		volume = 1
		summary.Notes = append(summary.Notes, "volume not set; assuming a single unit")
	}

	lower := 0.0
	if inputs.CP != nil {
		lower += *inputs.CP
	}
	if inputs.TxF != nil {
		lower += *inputs.TxF
	}
	if cfg.Min != nil {
		lower = *cfg.Min
	}
	upper := constants.DefaultGoalSeekUpperBound
	if cfg.Max != nil {
		upper = *cfg.Max
	}

	evaluate := func(price float64) evaluation {
		trial := inputs
		trial.PVS = pricing.Float(price)
		trial.Meta = pricing.Float(volume)
		r := pricing.Calculate(pricing.ModeDirect, trial)
		return evaluation{value: price, profit: r.NetProfit, target: cfg.TargetProfit}
	}

	bisect(evaluate, lower, upper, cfg, summary, func(lo, hi float64) float64 {
		return lo + (hi-lo)/2
	})
	if !summary.Converged || summary.Iterations == 0 {
		return
	}

	// The bracket can sit up to one tolerance above the exact price, which
	// has a closed form once volume is fixed.
	var unitCost, fixed float64
	if inputs.CP != nil {
		unitCost += *inputs.CP
	}
	if inputs.TxF != nil {
		unitCost += *inputs.TxF
	}
	if inputs.CF != nil {
		fixed += *inputs.CF
	}
	if inputs.Marketing != nil && !inputs.Marketing.IsPercent() {
		fixed += inputs.Marketing.Amount
	}
	exact := ((cfg.TargetProfit+fixed)/volume + unitCost) / (1 - feeRate - variableMarketing)
	if exact < lower || exact > summary.Value {
		return
	}
	// Step past float error so the price still reaches the target.
	for i := 0; i < 64; i++ {
		if eval := evaluate(exact); eval.feasible() {
			settle(summary, eval, true)
			return
		}
		exact = math.Nextafter(exact, math.Inf(1))
	}
}

// bisect narrows [lower, upper] around the smallest feasible value. Profit is
// non-decreasing in both price and volume, which the search relies on.
func bisect(evaluate func(float64) evaluation, lower, upper float64, cfg config.GoalSeekConfig,
	summary *optimization.Summary, midpoint func(lo, hi float64) float64) {
	if lower > upper {
		summary.Value = summary.Original
		summary.Notes = append(summary.Notes, fmt.Sprintf("empty search range %.2f to %.2f", lower, upper))
		return
	}

	lowerEval := evaluate(lower)
	if lowerEval.feasible() {
		settle(summary, lowerEval, true)
		summary.Notes = append(summary.Notes, "target already met at the lower bound")
		return
	}
	upperEval := evaluate(upper)
	if !upperEval.feasible() {
		settle(summary, upperEval, false)
		summary.Notes = append(summary.Notes, fmt.Sprintf(
			"unable to reach target profit %.2f within bounds %.2f to %.2f", cfg.TargetProfit, lower, upper))
		return
	}

	lo, hi := lowerEval, upperEval
	iterations := 0
	for !mathutil.WithinTolerance(hi.value, lo.value, cfg.Tolerance) && iterations < cfg.MaxIterations {
		mid := midpoint(lo.value, hi.value)
		if mid <= lo.value || mid >= hi.value {
			break
		}
		eval := evaluate(mid)
		if eval.feasible() {
			hi = eval
		} else {
			lo = eval
		}
		iterations++
	}

	summary.Iterations = iterations
	settle(summary, hi, mathutil.WithinTolerance(hi.value, lo.value, cfg.Tolerance))
	if !summary.Converged {
		summary.Notes = append(summary.Notes, fmt.Sprintf("stopped after %d iterations", iterations))
	}
}

func settle(summary *optimization.Summary, eval evaluation, converged bool) {
	summary.Value = eval.value
	summary.AchievedProfit = eval.profit
	summary.Headroom = eval.headroom()
	summary.Converged = converged
}

func unchanged(summary *optimization.Summary, base pricing.Result, note string) {
	summary.Value = summary.Original
	summary.AchievedProfit = base.NetProfit
	summary.Headroom = base.NetProfit - summary.TargetProfit
	summary.Notes = append(summary.Notes, note)
}

// Describe fills the display strings of summary: prices as currency, volumes
// as whole units. Formatting errors leave the display strings empty.
func Describe(summary *optimization.Summary, currency, locale string) {
	if summary == nil {
		return
	}
	summary.OriginalDisplay = formatFieldDisplay(summary.Field, summary.Original, currency, locale)
	summary.ValueDisplay = formatFieldDisplay(summary.Field, summary.Value, currency, locale)
}

func formatFieldDisplay(field string, value float64, currency, locale string) string {
	if field == config.GoalSeekFieldPrice {
		s, err := format.Currency(value, currency, locale)
		if err != nil {
			return ""
		}
		return s
	}
	p, err := format.Printer(locale)
	if err != nil {
		return ""
	}
	return format.Number(p, value, 0) + " units"
}
