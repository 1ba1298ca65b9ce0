package config

import (
	"testing"

	"github.com/iwvelando/fincalc/pkg/constants"
)

func TestCanonicalGoalSeekField(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty defaults to volume", input: "", expected: GoalSeekFieldVolume},
		{name: "price casing", input: "Price", expected: GoalSeekFieldPrice},
		{name: "price by input name", input: "PVS", expected: GoalSeekFieldPrice},
		{name: "volume by input name", input: "meta", expected: GoalSeekFieldVolume},
		{name: "units alias", input: "UNITS", expected: GoalSeekFieldVolume},
		{name: "unknown lowered", input: "Churn", expected: "churn"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := CanonicalGoalSeekField(tc.input)
			if actual != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, actual)
			}
		})
	}
}

func TestGoalSeekConfigNormalize(t *testing.T) {
	testCases := []struct {
		name      string
		field     string
		tolerance float64
	}{
		{name: "price default tolerance", field: "price", tolerance: constants.DefaultGoalSeekTolerance},
		{name: "volume is discrete", field: "volume", tolerance: defaultToleranceDiscrete},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &GoalSeekConfig{Field: tc.field}
			cfg.Normalize()

			if cfg.Tolerance != tc.tolerance {
				t.Fatalf("expected tolerance %.2f, got %.2f", tc.tolerance, cfg.Tolerance)
			}
			if cfg.MaxIterations != constants.DefaultGoalSeekMaxIterations {
				t.Fatalf("expected %d iterations, got %d", constants.DefaultGoalSeekMaxIterations, cfg.MaxIterations)
			}
		})
	}

	var nilCfg *GoalSeekConfig
	nilCfg.Normalize()
}

func TestGoalSeekConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     GoalSeekConfig
		wantErr bool
	}{
		{name: "volume without bounds", cfg: GoalSeekConfig{Field: "volume", TargetProfit: 1000}},
		{name: "price with bounds", cfg: GoalSeekConfig{Field: "price", Min: floatPtr(10), Max: floatPtr(500)}},
		{name: "unsupported field", cfg: GoalSeekConfig{Field: "churn"}, wantErr: true},
		{name: "inverted bounds", cfg: GoalSeekConfig{Field: "price", Min: floatPtr(50), Max: floatPtr(10)}, wantErr: true},
		{name: "negative minimum", cfg: GoalSeekConfig{Field: "volume", Min: floatPtr(-1)}, wantErr: true},
		{name: "volume maximum below one", cfg: GoalSeekConfig{Field: "volume", Max: floatPtr(0.5)}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	var nilCfg *GoalSeekConfig
	if err := nilCfg.Validate(); err == nil {
		t.Fatalf("expected error for nil configuration")
	}
}

func floatPtr(value float64) *float64 {
	return &value
}
