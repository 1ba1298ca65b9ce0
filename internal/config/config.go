// Package config defines the data structures related to configuration and
// includes functions for loading and validating scenario files.
package config

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/iwvelando/fincalc/pkg/constants"
	"github.com/iwvelando/fincalc/pkg/pricing"
	"github.com/iwvelando/fincalc/pkg/validation"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for fincalc.
type Configuration struct {
	Logging     LoggingConfig              `yaml:"logging,omitempty"`
	Output      OutputConfig               `yaml:"output,omitempty"`
	Sensitivity pricing.SensitivityOptions `yaml:"sensitivity,omitempty"`
	Common      Common                     `yaml:"common,omitempty"`
	Scenarios   []Scenario                 `yaml:"scenarios"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format   string `yaml:"format,omitempty"`   // pretty, csv, json, html, pdf
	Currency string `yaml:"currency,omitempty"` // ISO 4217 code
	Locale   string `yaml:"locale,omitempty"`   // BCP 47 tag
}

// Common holds the inputs shared by every scenario.
type Common struct {
	Inputs pricing.Inputs `yaml:"inputs,omitempty"`
}

// Scenario is one named calculation.
type Scenario struct {
	Name     string          `yaml:"name"`
	Active   bool            `yaml:"active"`
	Mode     string          `yaml:"mode,omitempty"`
	Template string          `yaml:"template,omitempty"`
	Inputs   pricing.Inputs  `yaml:"inputs,omitempty"`
	GoalSeek *GoalSeekConfig `yaml:"goalSeek,omitempty" mapstructure:"goalSeek"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r,
// e.g. an uploaded file.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.currency", constants.DefaultCurrency)
	v.SetDefault("output.locale", constants.DefaultLocale)
	v.SetDefault("sensitivity.steps", constants.DefaultSensitivitySteps)
	v.SetDefault("sensitivity.stepPercent", constants.DefaultSensitivityStepPercent)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		marketingHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&configuration, hook); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := configuration.Common.Inputs.Marketing.Validate(); err != nil {
		return nil, fmt.Errorf("common inputs: %w", err)
	}
	for _, scenario := range configuration.Scenarios {
		if err := scenario.Inputs.Marketing.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
	}
	return &configuration, nil
}

var marketingType = reflect.TypeOf(pricing.Marketing{})

// marketingHook lets a scenario write `marketing: 2000` as shorthand for a
// fixed amount.
func marketingHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() == reflect.Ptr {
		to = to.Elem()
	}
	if to != marketingType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		amount := reflect.ValueOf(data).Convert(reflect.TypeOf(float64(0))).Float()
		return map[string]interface{}{"kind": string(pricing.MarketingFixed), "amount": amount}, nil
	case reflect.Map:
		m, ok := data.(map[string]interface{})
		if !ok {
			return data, nil
		}
		kind, _ := m["kind"].(string)
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "":
			m["kind"] = string(pricing.MarketingFixed)
		case string(pricing.MarketingFixed), string(pricing.MarketingPercent):
			m["kind"] = strings.ToLower(strings.TrimSpace(kind))
		default:
			return nil, fmt.Errorf("unknown marketing kind %q", kind)
		}
		return m, nil
	}
	return data, nil
}

// CalculationMode parses the scenario mode, defaulting to pricing.ModeDirect.
func (s Scenario) CalculationMode() (pricing.Mode, error) {
	if strings.TrimSpace(s.Mode) == "" {
		return pricing.ModeDirect, nil
	}
	return pricing.ParseMode(s.Mode)
}

// ResolveInputs layers the common inputs, the scenario's template, and the
// scenario's own inputs, later layers winning field by field.
func (s Scenario) ResolveInputs(common pricing.Inputs) (pricing.Inputs, error) {
	resolved := pricing.Inputs{}.Merge(common)
	if name := strings.TrimSpace(s.Template); name != "" {
		preset, ok := pricing.Template(name)
		if !ok {
			return pricing.Inputs{}, fmt.Errorf("scenario %q: unknown template %q (available: %s)",
				s.Name, name, strings.Join(pricing.TemplateNames(), ", "))
		}
		resolved = resolved.Merge(preset)
	}
	return resolved.Merge(s.Inputs), nil
}

// ActiveScenarios returns the scenarios flagged active, in file order.
func (conf *Configuration) ActiveScenarios() []Scenario {
	var active []Scenario
	for _, scenario := range conf.Scenarios {
		if scenario.Active {
			active = append(active, scenario)
		}
	}
	return active
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		warnings = append(warnings, err.Error())
	}
	if len(conf.ActiveScenarios()) == 0 {
		warnings = append(warnings, "no active scenarios")
	}

	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			continue
		}
		label := fmt.Sprintf("Scenario '%s'", scenario.Name)

		mode, err := scenario.CalculationMode()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		inputs, err := scenario.ResolveInputs(conf.Common.Inputs)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		warnings = append(warnings, validation.ValidateInputs(label, mode, inputs)...)

		if scenario.GoalSeek != nil {
			if err := scenario.GoalSeek.Validate(); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", label, err))
			}
		}
	}

	return warnings
}
