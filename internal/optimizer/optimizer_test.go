package optimizer

import (
	"math"
	"strings"
	"testing"

	"github.com/iwvelando/fincalc/internal/config"
	"github.com/iwvelando/fincalc/pkg/pricing"
	"go.uber.org/zap"
)

func baselineInputs() pricing.Inputs {
	return pricing.Inputs{
		CP:        pricing.Float(25),
		TxF:       pricing.Float(1.5),
		TxP:       pricing.Float(4.99),
		CF:        pricing.Float(1500),
		Marketing: pricing.FixedMarketing(0),
		PVS:       pricing.Float(89.90),
		Meta:      pricing.Float(100),
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func hasNote(notes []string, fragment string) bool {
	for _, note := range notes {
		if strings.Contains(note, fragment) {
			return true
		}
	}
	return false
}

func TestSeekVolume(t *testing.T) {
	in := baselineInputs()
	summary, err := Seek(in, config.GoalSeekConfig{Field: "volume", TargetProfit: 10000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := pricing.Calculate(pricing.ModeDirect, in)
	closedForm := math.Ceil((10000 + base.TotalFixedCosts) / base.ContributionMargin)

	if !summary.Converged {
		t.Fatalf("expected convergence, notes: %v", summary.Notes)
	}
	if summary.Value != closedForm {
		t.Fatalf("volume = %v, want %v", summary.Value, closedForm)
	}
	if summary.Value != 196 {
		t.Fatalf("volume = %v, want 196", summary.Value)
	}
	if summary.Original != 100 {
		t.Fatalf("original = %v, want 100", summary.Original)
	}
	if summary.AchievedProfit < 10000 || summary.Headroom < 0 {
		t.Fatalf("achieved profit %v below target", summary.AchievedProfit)
	}

	fewer := in
	fewer.Meta = pricing.Float(summary.Value - 1)
	if r := pricing.Calculate(pricing.ModeDirect, fewer); r.NetProfit >= 10000 {
		t.Fatalf("volume %v is not minimal", summary.Value)
	}
}

func TestSeekPrice(t *testing.T) {
	in := baselineInputs()
	summary, err := Seek(in, config.GoalSeekConfig{Field: "price", TargetProfit: 10000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (p * (1 - 0.0499) - 26.5) * 100 - 1500 = 10000
	exact := (11500.0/100 + 26.5) / (1 - 0.0499)

	if !summary.Converged {
		t.Fatalf("expected convergence, notes: %v", summary.Notes)
	}
	if summary.Value < exact-1e-9 || summary.Value-exact > 1e-6 {
		t.Fatalf("price = %v, want %v", summary.Value, exact)
	}
	if summary.AchievedProfit < 10000 {
		t.Fatalf("achieved profit %v below target", summary.AchievedProfit)
	}
	if summary.Iterations == 0 || summary.Iterations > 100 {
		t.Fatalf("unexpected iteration count %d", summary.Iterations)
	}
}

func TestSeekPriceWithPercentMarketing(t *testing.T) {
	in := baselineInputs()
	in.Marketing = pricing.PercentMarketing(10)

	summary, err := Seek(in, config.GoalSeekConfig{Field: "price", TargetProfit: 10000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exact := (11500.0/100 + 26.5) / (1 - 0.0499 - 0.10)
	if !summary.Converged {
		t.Fatalf("expected convergence, notes: %v", summary.Notes)
	}
	if summary.Value < exact-1e-9 || summary.Value-exact > 1e-6 {
		t.Fatalf("price = %v, want %v", summary.Value, exact)
	}
	if summary.AchievedProfit < 10000 {
		t.Fatalf("achieved profit %v below target", summary.AchievedProfit)
	}
}

func TestSeekPriceWithoutVolume(t *testing.T) {
	in := baselineInputs()
	in.Meta = nil

	summary, err := Seek(in, config.GoalSeekConfig{Field: "price", TargetProfit: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasNote(summary.Notes, "single unit") {
		t.Fatalf("expected a note about the assumed volume, got %v", summary.Notes)
	}
	if !summary.Converged {
		t.Fatalf("expected convergence")
	}
}

func TestSeekInfeasible(t *testing.T) {
	tests := []struct {
		name   string
		inputs pricing.Inputs
		cfg    config.GoalSeekConfig
		note   string
	}{
		{
			name:   "Negative contribution margin",
			inputs: pricing.Inputs{CP: pricing.Float(50), PVS: pricing.Float(40), Meta: pricing.Float(10)},
			cfg:    config.GoalSeekConfig{Field: "volume", TargetProfit: 100},
			note:   "contribution margin is zero or negative",
		},
		{
			name:   "Variable fees at 100%",
			inputs: pricing.Inputs{TxP: pricing.Float(100), Meta: pricing.Float(10)},
			cfg:    config.GoalSeekConfig{Field: "price", TargetProfit: 100},
			note:   "variable fees exceed 100%",
		},
		{
			name:   "Percent marketing eats the rest",
			inputs: pricing.Inputs{TxP: pricing.Float(60), Marketing: pricing.PercentMarketing(40), Meta: pricing.Float(10)},
			cfg:    config.GoalSeekConfig{Field: "price", TargetProfit: 100},
			note:   "variable fees exceed 100%",
		},
		{
			name:   "Volume bound too low",
			inputs: baselineInputs(),
			cfg:    config.GoalSeekConfig{Field: "volume", TargetProfit: 10000, Max: floatPtr(50)},
			note:   "unable to reach target profit",
		},
		{
			name:   "Price bound too low",
			inputs: baselineInputs(),
			cfg:    config.GoalSeekConfig{Field: "price", TargetProfit: 10000, Min: floatPtr(30), Max: floatPtr(60)},
			note:   "unable to reach target profit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := Seek(tt.inputs, tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if summary.Converged {
				t.Fatalf("expected non-converged summary, got %+v", summary)
			}
			if !hasNote(summary.Notes, tt.note) {
				t.Fatalf("notes %v missing %q", summary.Notes, tt.note)
			}
		})
	}
}

func TestSeekTargetAlreadyMet(t *testing.T) {
	summary, err := Seek(baselineInputs(), config.GoalSeekConfig{Field: "volume", TargetProfit: -1500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Value != 1 || !summary.Converged {
		t.Fatalf("expected the lower bound to satisfy the target, got %+v", summary)
	}
	if !hasNote(summary.Notes, "lower bound") {
		t.Fatalf("notes %v missing lower bound note", summary.Notes)
	}
}

func TestSeekErrors(t *testing.T) {
	if _, err := Seek(baselineInputs(), config.GoalSeekConfig{Field: "churn"}); err == nil {
		t.Fatalf("expected error for unsupported field")
	}

	bad := baselineInputs()
	bad.CF = pricing.Float(math.Inf(1))
	if _, err := Seek(bad, config.GoalSeekConfig{Field: "volume"}); err == nil {
		t.Fatalf("expected error for non-finite inputs")
	}
}

func TestRunner(t *testing.T) {
	conf := &config.Configuration{
		Output: config.OutputConfig{Format: "pretty", Currency: "BRL", Locale: "pt-BR"},
		Common: config.Common{Inputs: baselineInputs()},
		Scenarios: []config.Scenario{
			{Name: "Plain", Active: true},
			{Name: "Seek price", Active: true, GoalSeek: &config.GoalSeekConfig{Field: "price", TargetProfit: 5000}},
			{Name: "Seek volume", Active: true, GoalSeek: &config.GoalSeekConfig{Field: "meta", TargetProfit: 5000}},
			{Name: "Inactive", Active: false, GoalSeek: &config.GoalSeekConfig{Field: "volume", TargetProfit: 5000}},
		},
	}

	runner, err := NewRunner(zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	result, err := runner.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Empty() {
		t.Fatalf("expected summaries")
	}
	if len(result.Summaries) != 2 {
		t.Fatalf("expected 2 scenarios with summaries, got %d", len(result.Summaries))
	}

	price := result.Summaries["Seek price"][0]
	if price.TargetName != "Seek price" || price.Field != config.GoalSeekFieldPrice {
		t.Fatalf("unexpected summary %+v", price)
	}
	if !strings.Contains(price.ValueDisplay, "R$") {
		t.Fatalf("price display %q should carry the currency symbol", price.ValueDisplay)
	}

	volume := result.Summaries["Seek volume"][0]
	if volume.Field != config.GoalSeekFieldVolume {
		t.Fatalf("field alias not canonicalized: %q", volume.Field)
	}
	if !strings.HasSuffix(volume.ValueDisplay, "units") {
		t.Fatalf("volume display %q should be in units", volume.ValueDisplay)
	}

	if conf.Scenarios[1].Inputs.PVS != nil {
		t.Fatalf("Run should not write back into the configuration")
	}
}

func TestNewRunnerNilConfig(t *testing.T) {
	if _, err := NewRunner(nil, nil); err == nil {
		t.Fatalf("expected error for nil configuration")
	}
}
