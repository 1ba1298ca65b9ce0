// Package pricing implements the FinCalc calculation engine: a pure function
// that derives break-even, margin, efficiency and profit metrics from a set of
// business parameters, optionally solving for the unit price or the sales
// volume needed to reach a desired net margin.
package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Mode selects which of price and volume is treated as the unknown.
type Mode string

const (
	// ModeDirect takes both price and volume as given.
	ModeDirect Mode = "DIRECT"
	// ModeTargetPrice solves for the unit price given volume and desired margin.
	ModeTargetPrice Mode = "TARGET_PRICE"
	// ModeTargetVolume solves for the volume given unit price and desired margin.
	ModeTargetVolume Mode = "TARGET_VOLUME"
)

// Modes lists every supported calculation mode.
var Modes = []Mode{ModeDirect, ModeTargetPrice, ModeTargetVolume}

// ParseMode accepts a mode name in any case, with '-' or ' ' as separators.
func ParseMode(value string) (Mode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for _, m := range Modes {
		if string(m) == normalized {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
}

// Valid reports whether m is one of the supported modes.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// UnmarshalText normalizes and validates a mode name. Empty text means
// ModeDirect.
func (m *Mode) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*m = ModeDirect
		return nil
	}
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarketingKind discriminates the two shapes of marketing spend.
type MarketingKind string

const (
	// MarketingFixed is a flat periodic amount, added to fixed costs.
	MarketingFixed MarketingKind = "fixed"
	// MarketingPercent is a percentage of revenue, charged per unit sold.
	MarketingPercent MarketingKind = "percent"
)

// Marketing is periodic marketing spend. Amount is read for the fixed kind
// (currency) and Rate for the percent kind (percentage points of revenue).
// An empty Kind means fixed.
type Marketing struct {
	Kind   MarketingKind `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`
	Amount float64       `json:"amount,omitempty" yaml:"amount,omitempty" mapstructure:"amount"`
	Rate   float64       `json:"rate,omitempty" yaml:"rate,omitempty" mapstructure:"rate"`
}

// FixedMarketing returns a flat periodic marketing spend.
func FixedMarketing(amount float64) *Marketing {
	return &Marketing{Kind: MarketingFixed, Amount: amount}
}

// PercentMarketing returns a marketing spend proportional to revenue.
func PercentMarketing(rate float64) *Marketing {
	return &Marketing{Kind: MarketingPercent, Rate: rate}
}

// IsPercent reports whether the spend is revenue-proportional.
func (m *Marketing) IsPercent() bool {
	return m != nil && strings.EqualFold(string(m.Kind), string(MarketingPercent))
}

// Value returns the number the user entered, whichever kind it is.
func (m *Marketing) Value() float64 {
	if m == nil {
		return 0
	}
	if m.IsPercent() {
		return m.Rate
	}
	return m.Amount
}

// UnmarshalJSON accepts either the tagged object or a bare number, which is
// read as a fixed amount.
func (m *Marketing) UnmarshalJSON(data []byte) error {
	var amount float64
	if err := json.Unmarshal(data, &amount); err == nil {
		*m = Marketing{Kind: MarketingFixed, Amount: amount}
		return nil
	}
	type plain Marketing
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("marketing must be a number or an object: %w", err)
	}
	*m = Marketing(decoded)
	if m.Kind == "" {
		m.Kind = MarketingFixed
	}
	kind := MarketingKind(strings.ToLower(string(m.Kind)))
	if kind != MarketingFixed && kind != MarketingPercent {
		return fmt.Errorf("unknown marketing kind %q", m.Kind)
	}
	m.Kind = kind
	return m.Validate()
}

// Validate rejects a value stored in the field the kind does not read.
func (m *Marketing) Validate() error {
	if m == nil {
		return nil
	}
	if m.IsPercent() {
		if m.Amount != 0 {
			return fmt.Errorf("%w: percent marketing takes a rate, got amount %g", ErrMarketingMismatch, m.Amount)
		}
		return nil
	}
	if m.Rate != 0 {
		return fmt.Errorf("%w: fixed marketing takes an amount, got rate %g", ErrMarketingMismatch, m.Rate)
	}
	return nil
}

// Inputs holds the business parameters. Every field is optional: nil means
// the user left it blank, which the engine treats as zero. Percentages are
// expressed in percentage points (4.99 means 4.99%).
type Inputs struct {
	// CP is the unit product cost.
	CP *float64 `json:"CP,omitempty" yaml:"cp,omitempty" mapstructure:"cp"`
	// TxF is the fixed fee charged per transaction.
	TxF *float64 `json:"TxF,omitempty" yaml:"txf,omitempty" mapstructure:"txf"`
	// TxP is the variable fee rate per transaction.
	TxP *float64 `json:"TxP,omitempty" yaml:"txp,omitempty" mapstructure:"txp"`
	// CF is the periodic fixed overhead.
	CF        *float64   `json:"CF,omitempty" yaml:"cf,omitempty" mapstructure:"cf"`
	Marketing *Marketing `json:"Marketing,omitempty" yaml:"marketing,omitempty" mapstructure:"marketing"`
	// Churn is the periodic customer cancellation rate.
	Churn *float64 `json:"Churn,omitempty" yaml:"churn,omitempty" mapstructure:"churn"`
	// PVS is the unit sale price. Solved for in ModeTargetPrice.
	PVS *float64 `json:"PVS,omitempty" yaml:"pvs,omitempty" mapstructure:"pvs"`
	// Meta is the sales volume for the period. Solved for in ModeTargetVolume.
	Meta *float64 `json:"Meta,omitempty" yaml:"meta,omitempty" mapstructure:"meta"`
	// MLLD is the desired net margin, used by the target modes. Must be below 100.
	MLLD *float64 `json:"MLL_D,omitempty" yaml:"mll_d,omitempty" mapstructure:"mll_d"`
}

// Float returns a pointer to v, for building Inputs literals.
func Float(v float64) *float64 {
	return &v
}

// Merge returns a copy of in where every field set in override replaces the
// corresponding field of in.
func (in Inputs) Merge(override Inputs) Inputs {
	out := in
	pick := func(dst **float64, src *float64) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	pick(&out.CP, override.CP)
	pick(&out.TxF, override.TxF)
	pick(&out.TxP, override.TxP)
	pick(&out.CF, override.CF)
	pick(&out.Churn, override.Churn)
	pick(&out.PVS, override.PVS)
	pick(&out.Meta, override.Meta)
	pick(&out.MLLD, override.MLLD)
	if override.Marketing != nil {
		m := *override.Marketing
		out.Marketing = &m
	}
	return out
}

// Value returns the dereferenced field or zero when it is absent.
func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Result is the flat set of derived metrics. When Valid is false every
// numeric field is zero and Error describes why.
type Result struct {
	// Price is the unit sale price, given or solved.
	Price float64 `json:"PVS"`
	// Volume is the sales volume, given or solved.
	Volume float64 `json:"Meta"`
	// UnitVariableCost includes product cost, transaction fees and any
	// revenue-proportional marketing.
	UnitVariableCost float64 `json:"CV_UN"`
	// ContributionMargin is price minus unit variable cost.
	ContributionMargin float64 `json:"MC_Real"`
	// BreakEvenUnits is the smallest whole volume covering fixed costs.
	// Zero when the contribution margin is not positive: break-even is
	// unreachable, not free.
	BreakEvenUnits float64 `json:"PE_UN"`
	// BreakEvenRevenue is BreakEvenUnits times price.
	BreakEvenRevenue float64 `json:"PE_Valor"`
	Revenue          float64 `json:"Revenue"`
	// NetProfit is contribution times volume minus fixed costs.
	NetProfit float64 `json:"LL"`
	// NetMargin is net profit over revenue, in percentage points. Zero
	// without revenue.
	NetMargin float64 `json:"MLL_Real"`
	// Markup is the price-to-cost multiplier. Zero when product cost is zero.
	Markup float64 `json:"Markup"`
	// FixedCostPerUnit is the fixed cost burden per unit sold. Zero without volume.
	FixedCostPerUnit float64 `json:"MMC"`
	// MarginOfSafety is the fraction of volume above break-even. -1 when the
	// volume is zero, meaning maximally unsafe.
	MarginOfSafety float64 `json:"MarginSafety"`
	// MarketingTotal is the period's marketing spend in currency.
	MarketingTotal float64 `json:"MarketingTotal"`
	// CAC is marketing spend per unit sold. Zero without volume.
	CAC float64 `json:"CAC"`
	// Lifetime is the expected customer lifespan in periods. Zero means
	// indefinite (no churn), not a zero lifespan.
	Lifetime float64 `json:"Lifetime"`
	// LTV is contribution margin over churn. Without churn it is capped at
	// constants.LTVFallbackPeriods periods of contribution margin.
	LTV float64 `json:"LTV"`
	// Payback is the number of periods of contribution needed to recoup CAC.
	// Zero when there is nothing to recoup or no margin to recoup it with.
	Payback float64 `json:"Payback"`
	// ROI is net profit over total costs, in percentage points.
	ROI float64 `json:"ROI"`
	// LTVToCAC is LTV over CAC. Zero when CAC is zero.
	LTVToCAC float64 `json:"LTV_CAC_Ratio"`
	// TotalFixedCosts is fixed overhead plus flat marketing.
	TotalFixedCosts float64 `json:"TotalFixedCosts"`
	// TotalCosts is total variable cost for the volume plus fixed costs.
	TotalCosts float64 `json:"TotalCosts"`

	Valid bool   `json:"isValid"`
	Error string `json:"error,omitempty"`

	err error
}

// Err returns the typed failure behind an invalid result, or nil.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	for _, known := range failures {
		if known.Error() == r.Error {
			return known
		}
	}
	if r.Error != "" {
		return errors.New(r.Error)
	}
	return nil
}
