// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/fincalc/pkg/pricing"
)

// field pairs a display name with an optional input value.
type field struct {
	name  string
	value *float64
}

func fields(in pricing.Inputs) []field {
	out := []field{
		{"CP", in.CP},
		{"TxF", in.TxF},
		{"TxP", in.TxP},
		{"CF", in.CF},
		{"Churn", in.Churn},
		{"PVS", in.PVS},
		{"Meta", in.Meta},
		{"MLL_D", in.MLLD},
	}
	if in.Marketing != nil {
		v := in.Marketing.Value()
		out = append(out, field{"Marketing", &v})
	}
	return out
}

// ValidateField checks a single input the way the input form does and returns
// an empty string when the value is acceptable.
func ValidateField(name string, value float64) string {
	if value < 0 {
		return fmt.Sprintf("%s cannot be negative (%g)", name, value)
	}
	switch name {
	case "TxP":
		if value > 100 {
			return fmt.Sprintf("TxP cannot exceed 100%% (%g)", value)
		}
	case "Churn":
		if value > 100 {
			return fmt.Sprintf("Churn cannot exceed 100%% (%g)", value)
		}
	case "MLL_D":
		if value >= 100 {
			return fmt.Sprintf("MLL_D must be below 100%% (%g)", value)
		}
	}
	return ""
}

// ValidateInputs returns warnings for out-of-range fields and for inputs the
// chosen mode needs but the scenario leaves blank. label prefixes every
// warning so callers can tell scenarios apart.
func ValidateInputs(label string, mode pricing.Mode, in pricing.Inputs) []string {
	var warnings []string

	for _, f := range fields(in) {
		if f.value == nil {
			continue
		}
		if msg := ValidateField(f.name, *f.value); msg != "" {
			warnings = append(warnings, fmt.Sprintf("%s: %s", label, msg))
		}
	}

	if in.Marketing.IsPercent() && in.Marketing.Rate > 100 {
		warnings = append(warnings, fmt.Sprintf("%s: percent marketing cannot exceed 100%% (%g)", label, in.Marketing.Rate))
	}

	switch mode {
	case pricing.ModeDirect:
		if in.PVS == nil {
			warnings = append(warnings, fmt.Sprintf("%s: PVS is blank, revenue will be zero", label))
		}
		if in.Meta == nil {
			warnings = append(warnings, fmt.Sprintf("%s: Meta is blank, volume will be zero", label))
		}
	case pricing.ModeTargetPrice:
		if in.Meta == nil {
			warnings = append(warnings, fmt.Sprintf("%s: %s requires Meta", label, mode))
		}
		if in.MLLD == nil {
			warnings = append(warnings, fmt.Sprintf("%s: MLL_D is blank, solving for break-even", label))
		}
		if msg := combinedRateWarning(in); msg != "" {
			warnings = append(warnings, fmt.Sprintf("%s: %s", label, msg))
		}
	case pricing.ModeTargetVolume:
		if in.PVS == nil {
			warnings = append(warnings, fmt.Sprintf("%s: %s requires PVS", label, mode))
		}
		if in.MLLD == nil {
			warnings = append(warnings, fmt.Sprintf("%s: MLL_D is blank, solving for break-even", label))
		}
	}

	return warnings
}

// combinedRateWarning flags target price inputs whose fee rate, desired
// margin and variable marketing leave nothing of the price to cover costs.
// Fields already out of range on their own are reported by ValidateField.
func combinedRateWarning(in pricing.Inputs) string {
	var txp, margin, marketing float64
	if in.TxP != nil {
		txp = *in.TxP
	}
	if in.MLLD != nil {
		margin = *in.MLLD
	}
	if in.Marketing.IsPercent() {
		marketing = in.Marketing.Rate
	}
	if txp > 100 || margin >= 100 || marketing > 100 {
		return ""
	}
	if total := txp + margin + marketing; total >= 100 {
		return fmt.Sprintf("TxP + MLL_D + percent marketing is %g%%, no price can satisfy it", total)
	}
	return ""
}
