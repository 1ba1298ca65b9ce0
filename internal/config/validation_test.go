package config

import (
	"strings"
	"testing"

	"github.com/iwvelando/fincalc/pkg/pricing"
)

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name           string
		config         Configuration
		expectWarnings []string
	}{
		{
			name: "Clean configuration",
			config: Configuration{
				Output: OutputConfig{Format: "pretty"},
				Scenarios: []Scenario{
					{
						Name:   "Base",
						Active: true,
						Inputs: pricing.Inputs{PVS: pricing.Float(50), Meta: pricing.Float(10)},
					},
				},
			},
		},
		{
			name: "Unsupported output format",
			config: Configuration{
				Output:    OutputConfig{Format: "xml"},
				Scenarios: []Scenario{{Name: "Base", Active: true, Inputs: pricing.Inputs{PVS: pricing.Float(1), Meta: pricing.Float(1)}}},
			},
			expectWarnings: []string{"expected output format"},
		},
		{
			name: "No active scenarios",
			config: Configuration{
				Output:    OutputConfig{Format: "csv"},
				Scenarios: []Scenario{{Name: "Off", Active: false}},
			},
			expectWarnings: []string{"no active scenarios"},
		},
		{
			name: "Inactive scenarios are not checked",
			config: Configuration{
				Output: OutputConfig{Format: "csv"},
				Scenarios: []Scenario{
					{Name: "On", Active: true, Inputs: pricing.Inputs{PVS: pricing.Float(1), Meta: pricing.Float(1)}},
					{Name: "Off", Active: false, Mode: "nonsense"},
				},
			},
		},
		{
			name: "Bad mode",
			config: Configuration{
				Output:    OutputConfig{Format: "csv"},
				Scenarios: []Scenario{{Name: "Bad", Active: true, Mode: "sideways"}},
			},
			expectWarnings: []string{"Scenario 'Bad': unknown calculation mode"},
		},
		{
			name: "Unknown template",
			config: Configuration{
				Output:    OutputConfig{Format: "csv"},
				Scenarios: []Scenario{{Name: "Bakery", Active: true, Template: "bakery"}},
			},
			expectWarnings: []string{"unknown template"},
		},
		{
			name: "Common input out of range",
			config: Configuration{
				Output: OutputConfig{Format: "csv"},
				Common: Common{Inputs: pricing.Inputs{TxP: pricing.Float(120)}},
				Scenarios: []Scenario{
					{Name: "Fees", Active: true, Inputs: pricing.Inputs{PVS: pricing.Float(1), Meta: pricing.Float(1)}},
				},
			},
			expectWarnings: []string{"Scenario 'Fees': TxP cannot exceed 100%"},
		},
		{
			name: "Target price missing volume",
			config: Configuration{
				Output: OutputConfig{Format: "csv"},
				Scenarios: []Scenario{
					{Name: "Solve", Active: true, Mode: "target_price", Inputs: pricing.Inputs{MLLD: pricing.Float(20)}},
				},
			},
			expectWarnings: []string{"requires Meta"},
		},
		{
			name: "Invalid goal seek",
			config: Configuration{
				Output: OutputConfig{Format: "csv"},
				Scenarios: []Scenario{
					{
						Name:     "Seek",
						Active:   true,
						Inputs:   pricing.Inputs{PVS: pricing.Float(1), Meta: pricing.Float(1)},
						GoalSeek: &GoalSeekConfig{Field: "churn"},
					},
				},
			},
			expectWarnings: []string{"goal seek field \"churn\" is not supported"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := tt.config.ValidateConfiguration()

			if len(warnings) != len(tt.expectWarnings) {
				t.Fatalf("expected %d warnings, got %d: %v", len(tt.expectWarnings), len(warnings), warnings)
			}
			for i, expected := range tt.expectWarnings {
				if !strings.Contains(warnings[i], expected) {
					t.Errorf("warning %d = %q, want it to contain %q", i, warnings[i], expected)
				}
			}
		})
	}
}
