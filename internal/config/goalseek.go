package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/fincalc/pkg/constants"
)

const (
	GoalSeekFieldPrice  = "price"
	GoalSeekFieldVolume = "volume"

	defaultToleranceDiscrete = 1
)

// GoalSeekConfig asks for the price or volume that yields a target net profit.
type GoalSeekConfig struct {
	Field         string   `yaml:"field,omitempty" mapstructure:"field" json:"field"`
	TargetProfit  float64  `yaml:"targetProfit" mapstructure:"targetProfit" json:"targetProfit"`
	Min           *float64 `yaml:"min,omitempty" mapstructure:"min" json:"min,omitempty"`
	Max           *float64 `yaml:"max,omitempty" mapstructure:"max" json:"max,omitempty"`
	Tolerance     float64  `yaml:"tolerance,omitempty" mapstructure:"tolerance" json:"tolerance,omitempty"`
	MaxIterations int      `yaml:"maxIterations,omitempty" mapstructure:"maxIterations" json:"maxIterations,omitempty"`
}

// CanonicalGoalSeekField returns the canonical identifier for a goal seek field.
func CanonicalGoalSeekField(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return GoalSeekFieldVolume
	}
	switch strings.ToLower(trimmed) {
	case "price", "pvs", "unitprice", "unit_price", "unit-price":
		return GoalSeekFieldPrice
	case "volume", "meta", "units", "quantity":
		return GoalSeekFieldVolume
	default:
		return strings.ToLower(trimmed)
	}
}

// Normalize ensures defaults and canonical values are applied before validation.
func (g *GoalSeekConfig) Normalize() {
	if g == nil {
		return
	}
	g.Field = CanonicalGoalSeekField(g.Field)

	if g.Tolerance <= 0 {
		if g.Field == GoalSeekFieldVolume {
			g.Tolerance = defaultToleranceDiscrete
		} else {
			g.Tolerance = constants.DefaultGoalSeekTolerance
		}
	}
	if g.MaxIterations <= 0 {
		g.MaxIterations = constants.DefaultGoalSeekMaxIterations
	}
}

// Validate returns an error when the goal seek configuration is unsupported.
func (g *GoalSeekConfig) Validate() error {
	if g == nil {
		return fmt.Errorf("goal seek configuration cannot be nil")
	}

	g.Normalize()

	switch g.Field {
	case GoalSeekFieldPrice, GoalSeekFieldVolume:
	default:
		return fmt.Errorf("goal seek field %q is not supported", g.Field)
	}

	if g.Min != nil && *g.Min < 0 {
		return fmt.Errorf("goal seek minimum %.2f cannot be negative", *g.Min)
	}
	if g.Min != nil && g.Max != nil && *g.Min >= *g.Max {
		return fmt.Errorf("goal seek minimum %.2f must be less than maximum %.2f", *g.Min, *g.Max)
	}
	if g.Field == GoalSeekFieldVolume && g.Max != nil && *g.Max < 1 {
		return fmt.Errorf("goal seek volume maximum %.0f must be at least 1", *g.Max)
	}

	return nil
}
